package core

import (
	htmltmpl "html/template"
	"io"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"

	appfs "github.com/Brainhard-droid/sports-school-crm-sub001/fs"
)

// Email templates live in fs/templates/email as <name>.txt and <name>.gohtml pairs (either may be
// missing). Each defines "content" and is rendered through the "base" block of the layout with
// the same extension.
const (
	mailTmplDir    = "templates/email"
	mailTmplLayout = "layout"
	mailTmplRoot   = "base"
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // plain text, sent as is

		TemplateName string // file name without extension
		TemplateData interface{}

		// filled by Render
		TextContent string
		HTMLContent string
	}

	// ContextData is what email templates are executed with.
	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService delivers messages in the background.
	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}

	mailTemplates struct {
		text map[string]*texttmpl.Template
		html map[string]*htmltmpl.Template
	}

	executor interface {
		ExecuteTemplate(w io.Writer, name string, data interface{}) error
	}
)

var (
	loadedMailTmpl  mailTemplates
	mailTmplLoadErr error
	mailTmplOnce    sync.Once
)

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" || m.HTMLContent != "" }

// Render fills TextContent and HTMLContent. BodyStr wins over the text template.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	mailTmplOnce.Do(func() { loadedMailTmpl, mailTmplLoadErr = loadMailTemplates() })
	if mailTmplLoadErr != nil {
		return mailTmplLoadErr
	}

	data := ContextData{AppName: Conf.AppName, FrontendBaseURL: Conf.FrontendBaseURL, Data: m.TemplateData}
	if t, ok := loadedMailTmpl.text[m.TemplateName]; ok && m.BodyStr == "" {
		out, err := execute(t, data)
		if err != nil {
			return errors.Wrap(err, "rendering text content")
		}
		m.TextContent = out
	}
	if t, ok := loadedMailTmpl.html[m.TemplateName]; ok {
		out, err := execute(t, data)
		if err != nil {
			return errors.Wrap(err, "rendering html content")
		}
		m.HTMLContent = out
	}
	return nil
}

func execute(t executor, data ContextData) (string, error) {
	var sb strings.Builder
	if err := t.ExecuteTemplate(&sb, mailTmplRoot, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func loadMailTemplates() (mailTemplates, error) {
	set := mailTemplates{
		text: make(map[string]*texttmpl.Template),
		html: make(map[string]*htmltmpl.Template),
	}
	files, err := fs.Glob(appfs.FS, path.Join(mailTmplDir, "*"))
	if err != nil {
		return set, errors.Wrap(err, "listing email templates")
	}

	// missing keys fail loudly outside production
	option := "missingkey=default"
	if Conf.Debug || Conf.TestMode {
		option = "missingkey=error"
	}

	for _, file := range files {
		ext := path.Ext(file)
		name := strings.TrimSuffix(path.Base(file), ext)
		if name == mailTmplLayout {
			continue
		}
		layout := path.Join(mailTmplDir, mailTmplLayout+ext)

		switch ext {
		case ".txt":
			t, err := texttmpl.ParseFS(appfs.FS, layout, file)
			if err != nil {
				return set, errors.Wrapf(err, "parsing %s", file)
			}
			set.text[name] = t.Option(option)
		case ".gohtml":
			t, err := htmltmpl.ParseFS(appfs.FS, layout, file)
			if err != nil {
				return set, errors.Wrapf(err, "parsing %s", file)
			}
			set.html[name] = t.Option(option)
		}
	}
	return set, nil
}
