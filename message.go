package mailpool

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Cayan-LLC/syslog4net/pkg/transports"
)

// Message is a structured mail before encoding. SendMessage assembles it
// into a transports.Mail and releases attachment readers once the envelope
// completes.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string

	// Headers are additional top-level headers. From/To/Cc/Subject/Date
	// are always emitted and cannot be overridden here.
	Headers map[string]string

	Attachments []*Attachment
}

// Attachment is a file carried by a Message. When Content implements
// io.Closer it is closed after the envelope reaches a terminal state.
type Attachment struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// Encode renders the message as an RFC 5322 mail, multipart/mixed when
// attachments are present. It returns any attachment closers so the caller
// can release them after completion.
func (m *Message) Encode() (*transports.Mail, []io.Closer, error) {
	if m == nil {
		return nil, nil, ErrNilMail
	}
	if m.From == "" {
		return nil, nil, ErrNoSender
	}
	rcpt := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	rcpt = append(rcpt, m.To...)
	rcpt = append(rcpt, m.Cc...)
	rcpt = append(rcpt, m.Bcc...)
	if len(rcpt) == 0 {
		return nil, nil, ErrNoRecipients
	}

	var closers []io.Closer
	for _, a := range m.Attachments {
		if c, ok := a.Content.(io.Closer); ok {
			closers = append(closers, c)
		}
	}

	var buf bytes.Buffer
	m.writeHeaders(&buf)

	var err error
	if len(m.Attachments) == 0 {
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(m.Body)
	} else {
		err = m.writeMultipart(&buf)
	}
	if err != nil {
		return nil, closers, NewDispatchError(ErrCodeEncode, "encode", "", err)
	}

	mail := &transports.Mail{
		From: m.From,
		Rcpt: rcpt,
		Data: buf.Bytes(),
	}
	return mail, closers, nil
}

func (m *Message) writeHeaders(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "From: %s\r\n", m.From)
	if len(m.To) > 0 {
		fmt.Fprintf(buf, "To: %s\r\n", strings.Join(m.To, ", "))
	}
	if len(m.Cc) > 0 {
		fmt.Fprintf(buf, "Cc: %s\r\n", strings.Join(m.Cc, ", "))
	}
	// Bcc recipients appear only in the envelope, never in headers.
	fmt.Fprintf(buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(m.Headers) > 0 {
		keys := make([]string, 0, len(m.Headers))
		for k := range m.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(buf, "%s: %s\r\n", k, m.Headers[k])
		}
	}
}

func (m *Message) writeMultipart(buf *bytes.Buffer) error {
	mw := multipart.NewWriter(buf)
	fmt.Fprintf(buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	bodyHeader := textproto.MIMEHeader{}
	bodyHeader.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := mw.CreatePart(bodyHeader)
	if err != nil {
		return errors.Wrap(err, "creating body part")
	}
	if _, err := io.WriteString(part, m.Body); err != nil {
		return errors.Wrap(err, "writing body")
	}

	for _, a := range m.Attachments {
		contentType := a.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", contentType)
		header.Set("Content-Transfer-Encoding", "base64")
		header.Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", a.Filename))

		part, err := mw.CreatePart(header)
		if err != nil {
			return errors.Wrapf(err, "creating part for %s", a.Filename)
		}
		enc := base64.NewEncoder(base64.StdEncoding, part)
		if _, err := io.Copy(enc, a.Content); err != nil {
			enc.Close()
			return errors.Wrapf(err, "encoding attachment %s", a.Filename)
		}
		if err := enc.Close(); err != nil {
			return errors.Wrapf(err, "finishing attachment %s", a.Filename)
		}
	}
	return mw.Close()
}
