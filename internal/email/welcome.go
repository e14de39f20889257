package email

import (
	"bytes"
	"context"
	"html/template"
	"strings"
	texttpl "text/template"
)

// WelcomeVars son las variables de los templates de bienvenida.
type WelcomeVars struct {
	Name     string
	Email    string
	SiteName string
}

const (
	welcomeSubject = "Welcome to {{.SiteName}}"
	welcomeHTML    = `<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>Your {{.SiteName}} membership is now linked to {{.Email}} and you are subscribed to updates.</p>`
	welcomeTXT = `Hi {{if .Name}}{{.Name}}{{else}}there{{end}},

Your {{.SiteName}} membership is now linked to {{.Email}} and you are subscribed to updates.
`
)

var (
	welcomeSubjectT = texttpl.Must(texttpl.New("welcome_subject").Parse(welcomeSubject))
	welcomeHTMLT    = template.Must(template.New("welcome_html").Parse(welcomeHTML))
	welcomeTXTT     = texttpl.Must(texttpl.New("welcome_txt").Parse(welcomeTXT))
)

// WelcomeNotifier envía el aviso de bienvenida tras completar el perfil.
type WelcomeNotifier struct {
	sender   Sender
	siteName string
}

func NewWelcomeNotifier(sender Sender, siteName string) *WelcomeNotifier {
	if strings.TrimSpace(siteName) == "" {
		siteName = "our site"
	}
	return &WelcomeNotifier{sender: sender, siteName: siteName}
}

// RenderWelcome devuelve subject, html y texto del aviso.
func RenderWelcome(v WelcomeVars) (subject, html, text string, err error) {
	var sb, hb, tb bytes.Buffer
	if err = welcomeSubjectT.Execute(&sb, v); err != nil {
		return
	}
	if err = welcomeHTMLT.Execute(&hb, v); err != nil {
		return
	}
	if err = welcomeTXTT.Execute(&tb, v); err != nil {
		return
	}
	return sb.String(), hb.String(), tb.String(), nil
}

func (n *WelcomeNotifier) SendWelcome(ctx context.Context, to, name string) error {
	subject, html, text, err := RenderWelcome(WelcomeVars{Name: name, Email: to, SiteName: n.siteName})
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, to, subject, html, text)
}
