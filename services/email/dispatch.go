package emailsvc

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

var (
	SentMessages = make([]core.EmailMessage, 0)
	sentMu       sync.Mutex
)

// Sent returns a copy of the messages delivered so far.
func Sent() []core.EmailMessage {
	sentMu.Lock()
	defer sentMu.Unlock()
	return append([]core.EmailMessage(nil), SentMessages...)
}

// ResetSent forgets the delivered messages.
func ResetSent() {
	sentMu.Lock()
	SentMessages = make([]core.EmailMessage, 0)
	sentMu.Unlock()
}

func recordSent(msg core.EmailMessage) {
	sentMu.Lock()
	SentMessages = append(SentMessages, msg)
	sentMu.Unlock()
}

// transport hands a rendered message over to its destination.
type transport interface {
	name() string
	deliver(msg core.EmailMessage) error
}

// dispatcher renders messages and delivers them through a transport,
// one goroutine per message unless inline is set.
type dispatcher struct {
	transport transport
	logger    core.Logger
	inline    bool
}

var _ core.EmailService = dispatcher{}

func (d dispatcher) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if d.inline {
			d.dispatch(msg)
			continue
		}
		go d.dispatch(msg)
	}
}

func (d dispatcher) dispatch(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		d.logger.Error("rendering email", errors.Wrap(err, "rendering email"), map[string]interface{}{"template": msg.TemplateName})
		return
	}
	if !msg.HasRecipients() || !msg.HasContent() {
		d.logger.Warn("dropping email without recipients or content", map[string]interface{}{"subject": msg.Subject})
		return
	}
	if err := d.transport.deliver(*msg); err != nil {
		d.logger.Error("delivering email", errors.Wrap(err, d.transport.name()), map[string]interface{}{"subject": msg.Subject})
	}
}
