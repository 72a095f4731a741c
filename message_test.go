package mailpool

import (
	"encoding/base64"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestMessageEncodeValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     *Message
		wantErr error
	}{
		{
			name:    "missing sender",
			msg:     &Message{To: []string{"x@example.com"}},
			wantErr: ErrNoSender,
		},
		{
			name:    "missing recipients",
			msg:     &Message{From: "a@example.com"},
			wantErr: ErrNoRecipients,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.msg.Encode()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Encode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageEncodePlain(t *testing.T) {
	msg := &Message{
		From:    "sender@example.com",
		To:      []string{"to1@example.com", "to2@example.com"},
		Cc:      []string{"cc@example.com"},
		Bcc:     []string{"bcc@example.com"},
		Subject: "disk alert",
		Body:    "/var at 97%",
		Headers: map[string]string{"X-Mailer": "syslog4net"},
	}

	mail, closers, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(closers) != 0 {
		t.Errorf("closers = %d, want 0 for plain message", len(closers))
	}

	if mail.From != "sender@example.com" {
		t.Errorf("mail.From = %q", mail.From)
	}
	wantRcpt := []string{"to1@example.com", "to2@example.com", "cc@example.com", "bcc@example.com"}
	if len(mail.Rcpt) != len(wantRcpt) {
		t.Fatalf("mail.Rcpt = %v, want %v", mail.Rcpt, wantRcpt)
	}
	for i, r := range wantRcpt {
		if mail.Rcpt[i] != r {
			t.Errorf("mail.Rcpt[%d] = %q, want %q", i, mail.Rcpt[i], r)
		}
	}

	data := string(mail.Data)
	for _, want := range []string{
		"From: sender@example.com\r\n",
		"To: to1@example.com, to2@example.com\r\n",
		"Cc: cc@example.com\r\n",
		"Subject: disk alert\r\n",
		"MIME-Version: 1.0\r\n",
		"X-Mailer: syslog4net\r\n",
		"/var at 97%",
	} {
		if !strings.Contains(data, want) {
			t.Errorf("encoded mail missing %q", want)
		}
	}
	if strings.Contains(data, "Bcc") {
		t.Error("Bcc recipients leaked into headers")
	}
	if !strings.Contains(data, "Date: ") {
		t.Error("encoded mail missing Date header")
	}
}

func TestMessageEncodeWithAttachment(t *testing.T) {
	content := "attachment payload"
	msg := &Message{
		From:    "sender@example.com",
		To:      []string{"rcpt@example.com"},
		Subject: "with file",
		Body:    "see attached",
		Attachments: []*Attachment{
			{
				Filename:    "report.txt",
				ContentType: "text/plain",
				Content:     strings.NewReader(content),
			},
		},
	}

	mail, _, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	data := string(mail.Data)
	if !strings.Contains(data, "Content-Type: multipart/mixed; boundary=") {
		t.Error("encoded mail is not multipart/mixed")
	}
	if !strings.Contains(data, `filename="report.txt"`) {
		t.Error("attachment disposition missing")
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	if !strings.Contains(data, encoded) {
		t.Error("attachment content not base64-encoded in body")
	}
	if !strings.Contains(data, "see attached") {
		t.Error("body part missing")
	}
}

type trackedReader struct {
	*strings.Reader
	closed atomic.Bool
}

func (r *trackedReader) Close() error {
	r.closed.Store(true)
	return nil
}

// The structured-send overload must release attachment readers once the
// envelope completes, success or not.
func TestSendMessageReleasesAttachmentsAfterCompletion(t *testing.T) {
	st := &stubTransport{}
	pool, err := New(WithTransport(st.factory))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer pool.Close()

	reader := &trackedReader{Reader: strings.NewReader("contents")}
	fired := make(chan struct{})
	env, err := pool.SendMessage(&Message{
		From:    "sender@example.com",
		To:      []string{"rcpt@example.com"},
		Subject: "attached",
		Attachments: []*Attachment{
			{Filename: "f.bin", Content: reader},
		},
	}, func(env *Envelope, err error) {
		if !reader.closed.Load() {
			t.Error("attachment not released before user callback")
		}
		close(fired)
	})
	if err != nil {
		t.Fatalf("SendMessage() failed: %v", err)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback never fired")
	}
	if env.Status() != StatusSucceeded {
		t.Errorf("Status() = %v, want %v", env.Status(), StatusSucceeded)
	}
}

func TestSendMessageRejectedByClosedPool(t *testing.T) {
	st := &stubTransport{}
	pool, err := New(WithTransport(st.factory))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	pool.Drain(time.Second)

	reader := &trackedReader{Reader: strings.NewReader("contents")}
	_, err = pool.SendMessage(&Message{
		From:        "sender@example.com",
		To:          []string{"rcpt@example.com"},
		Attachments: []*Attachment{{Filename: "f.bin", Content: reader}},
	}, nil)
	if !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("SendMessage() error = %v, want %v", err, ErrPoolClosed)
	}
	if !reader.closed.Load() {
		t.Error("attachment leaked when submission was rejected")
	}
}
