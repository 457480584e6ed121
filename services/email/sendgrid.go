package emailsvc

import (
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

var sendgridAPI = sendgrid.API // mockable

type sendgridTransport struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

func newSendgridTransport(conf *core.Config) sendgridTransport {
	from := conf.DefaultFromEmail()
	return sendgridTransport{
		key:        conf.SendgridApiKey,
		from:       sgEmail(from),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

// NewSendgridService delivers through the Sendgrid v3 API, using core.Conf.SendgridApiKey.
func NewSendgridService(logger core.Logger) core.EmailService {
	return dispatcher{transport: newSendgridTransport(core.Conf), logger: logger}
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func (st sendgridTransport) name() string { return "sendgrid" }

// prepare builds the v3 payload; empty content blocks are left out since Sendgrid rejects them.
func (st sendgridTransport) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = st.subjPrefix + msg.Subject
	for _, a := range msg.To {
		p.AddTos(sgEmail(a))
	}
	for _, a := range msg.Cc {
		p.AddCCs(sgEmail(a))
	}
	for _, a := range msg.Bcc {
		p.AddBCCs(sgEmail(a))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(st.from)
	m.AddPersonalizations(p)
	for _, c := range []*sgmail.Content{
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	} {
		if c.Value != "" {
			m.AddContent(c)
		}
	}
	return m
}

func (st sendgridTransport) request(msg core.EmailMessage) rest.Request {
	req := sendgrid.GetRequest(st.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(st.prepare(msg))
	return req
}

func (st sendgridTransport) deliver(msg core.EmailMessage) error {
	res, err := sendgridAPI(st.request(msg))
	if err != nil {
		return errors.Wrap(err, "calling sendgrid")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
