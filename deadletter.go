package mailpool

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/Cayan-LLC/syslog4net/pkg/transports"
)

// DeadLetter appends undeliverable mail to a spool file so a failed or
// aborted send is not silently lost. The file is guarded with a flock so
// several processes can share one spool. Records are the raw encoded mail
// framed by a header line and a blank line.
type DeadLetter struct {
	path string
	lock *flock.Flock
}

// NewDeadLetter creates a spool writing to path. The file is created on
// first write.
func NewDeadLetter(path string) *DeadLetter {
	return &DeadLetter{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the spool file path.
func (d *DeadLetter) Path() string {
	return d.path
}

// Write appends one undeliverable mail with the failure cause. Called from
// worker and drain goroutines, never from the submitting goroutine.
func (d *DeadLetter) Write(m *transports.Mail, cause error) error {
	if err := d.lock.Lock(); err != nil {
		return NewSpoolWriteError(d.path, errors.Wrap(err, "acquiring spool lock"))
	}
	defer d.lock.Unlock()

	f, err := os.OpenFile(d.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return NewSpoolWriteError(d.path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "--- %s from=%s rcpt=%s cause=%v\n",
		time.Now().Format(time.RFC3339),
		m.From,
		strings.Join(m.Rcpt, ","),
		cause)
	w.Write(m.Data)
	if len(m.Data) == 0 || m.Data[len(m.Data)-1] != '\n' {
		w.WriteByte('\n')
	}
	w.WriteByte('\n')

	if err := w.Flush(); err != nil {
		return NewSpoolWriteError(d.path, err)
	}
	return nil
}
