package emailsvc

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

// consoleTransport writes the MIME form of each message to the logger and keeps it in SentMessages.
type consoleTransport struct {
	from       mail.Address
	subjPrefix string
	logger     core.Logger
	quiet      bool
}

func newConsoleTransport(logger core.Logger, quiet bool) consoleTransport {
	return consoleTransport{
		from:       core.Conf.DefaultFromEmail(),
		subjPrefix: "[" + core.Conf.AppName + "] ",
		logger:     logger,
		quiet:      quiet,
	}
}

// NewConsoleService prints messages instead of sending them.
func NewConsoleService(logger core.Logger) core.EmailService {
	return dispatcher{transport: newConsoleTransport(logger, false), logger: logger}
}

// NewConsoleServiceMock delivers inline and silently; tests read Sent.
func NewConsoleServiceMock() core.EmailService {
	return dispatcher{transport: newConsoleTransport(core.NopLogger{}, true), logger: core.NopLogger{}, inline: true}
}

func (ct consoleTransport) name() string { return "console" }

func (ct consoleTransport) deliver(msg core.EmailMessage) error {
	raw, err := ct.mime(msg)
	if err != nil {
		return err
	}
	if !ct.quiet {
		ct.logger.Info("email sent to console", map[string]interface{}{"message": raw})
	}
	recordSent(msg)
	return nil
}

func (ct consoleTransport) mime(msg core.EmailMessage) (string, error) {
	var sb strings.Builder
	parts := multipart.NewWriter(&sb)

	header := []struct{ key, value string }{
		{"From", ct.from.String()},
		{"To", addressList(msg.To)},
		{"Cc", addressList(msg.Cc)},
		{"Bcc", addressList(msg.Bcc)},
		{"Subject", mime.QEncoding.Encode("utf-8", ct.subjPrefix+msg.Subject)},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + parts.Boundary()},
	}
	for _, h := range header {
		if h.value != "" {
			fmt.Fprintf(&sb, "%s: %s\r\n", h.key, h.value)
		}
	}
	sb.WriteString("\r\n")

	bodies := []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", msg.TextContent},
		{"text/html; charset=utf-8", msg.HTMLContent},
	}
	for _, b := range bodies {
		if b.content == "" {
			continue
		}
		w, err := parts.CreatePart(textproto.MIMEHeader{"Content-Type": {b.contentType}})
		if err != nil {
			return "", errors.Wrapf(err, "creating %s part", b.contentType)
		}
		fmt.Fprintf(w, "%s\r\n", b.content)
	}
	if err := parts.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart writer")
	}
	return sb.String(), nil
}

func addressList(addrs []mail.Address) string {
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.String()
	}
	return strings.Join(out, ", ")
}
