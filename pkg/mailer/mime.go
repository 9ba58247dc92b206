package mailer

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"sort"
	"strings"
	"time"
)

// BuildMIME renders email as an RFC 5322 message. The text part is always
// present; an HTML alternative turns the message into multipart/alternative.
func BuildMIME(email *Email, date time.Time) ([]byte, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	header := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
		}
	}

	header("From", email.From)
	header("To", strings.Join(email.To, ", "))
	header("Cc", strings.Join(email.CC, ", "))
	header("Reply-To", email.ReplyTo)
	header("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	names := make([]string, 0, len(email.Headers))
	for name := range email.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		header(textproto.CanonicalMIMEHeaderKey(name), email.Headers[name])
	}

	if email.HTML == "" {
		header("Content-Type", "text/plain; charset=utf-8")
		header("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, email.Text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header("Content-Type", "multipart/alternative; boundary="+mw.Boundary())
	buf.WriteString("\r\n")

	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", email.Text},
		{"text/html; charset=utf-8", email.HTML},
	} {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"quoted-printable"},
		})
		if err != nil {
			return nil, err
		}
		if err := writeQP(w, part.content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	buf.Write(body.Bytes())
	return buf.Bytes(), nil
}

func writeQP(w io.Writer, s string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(s)); err != nil {
		return err
	}
	return qp.Close()
}
