package mailpool

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Cayan-LLC/syslog4net/pkg/transports"
)

func TestDeadLetterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail.dead")
	spool := NewDeadLetter(path)

	mail := &transports.Mail{
		From: "sender@example.com",
		Rcpt: []string{"a@example.com", "b@example.com"},
		Data: []byte("Subject: lost\r\n\r\nbody"),
	}
	if err := spool.Write(mail, errors.New("connection refused")); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}
	if err := spool.Write(mail, errors.New("second failure")); err != nil {
		t.Fatalf("second Write() failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading spool: %v", err)
	}
	got := string(content)

	for _, want := range []string{
		"from=sender@example.com",
		"rcpt=a@example.com,b@example.com",
		"cause=connection refused",
		"cause=second failure",
		"Subject: lost",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("spool missing %q", want)
		}
	}
	if n := strings.Count(got, "--- "); n != 2 {
		t.Errorf("spool has %d records, want 2", n)
	}
}

func TestPoolSpoolsFailedMail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail.dead")
	st := &stubTransport{template: stubSender{err: errors.New("550 rejected")}}

	pool, err := New(
		WithTransport(st.factory),
		WithDeadLetter(path),
		WithErrorHandler(SilentErrorHandler),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer pool.Close()

	env, err := pool.Send(testMail("victim@example.com"), nil)
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	<-env.Done()

	waitFor(t, time.Second, "spooled metric", func() bool {
		return pool.Metrics().Spooled == 1
	})

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading spool: %v", err)
	}
	if !strings.Contains(string(content), "rcpt=victim@example.com") {
		t.Error("failed mail not recorded in spool")
	}
	if !strings.Contains(string(content), "550 rejected") {
		t.Error("failure cause not recorded in spool")
	}
}

func TestPoolSpoolsAbortedMail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail.dead")
	release := make(chan struct{})
	defer close(release)
	st := &stubTransport{template: stubSender{release: release, ignoreCtx: true}}

	pool, err := New(
		WithTransport(st.factory),
		WithMaxConcurrency(1),
		WithDeadLetter(path),
		WithErrorHandler(SilentErrorHandler),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	// One stuck in flight, one queued; both end up in the spool.
	for i := 0; i < 2; i++ {
		if _, err := pool.Send(testMail("drain@example.com"), nil); err != nil {
			t.Fatalf("Send() failed: %v", err)
		}
	}
	pool.Drain(50 * time.Millisecond)

	waitFor(t, time.Second, "aborted mail spooled", func() bool {
		return pool.Metrics().Spooled == 2
	})

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading spool: %v", err)
	}
	if n := strings.Count(string(content), "--- "); n != 2 {
		t.Errorf("spool has %d records, want 2", n)
	}
}
