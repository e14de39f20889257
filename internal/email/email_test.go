package email

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type captureSender struct {
	to, subject, html, text string
}

func (c *captureSender) Send(_ context.Context, to, subject, html, text string) error {
	c.to, c.subject, c.html, c.text = to, subject, html, text
	return nil
}

func TestWelcomeNotifier(t *testing.T) {
	cs := &captureSender{}
	n := NewWelcomeNotifier(cs, "The Civic Times")

	require.NoError(t, n.SendWelcome(context.Background(), "alice@example.com", "<Alice>"))
	require.Equal(t, "alice@example.com", cs.to)
	require.Equal(t, "Welcome to The Civic Times", cs.subject)
	require.Contains(t, cs.text, "Hi <Alice>,")
	require.Contains(t, cs.html, "Hi &lt;Alice&gt;,")
	require.Contains(t, cs.text, "alice@example.com")
}

func TestRenderWelcome_NoName(t *testing.T) {
	_, html, text, err := RenderWelcome(WelcomeVars{Email: "a@example.com", SiteName: "X"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "Hi there,"))
	require.Contains(t, html, "Hi there,")
}

func TestSMTPSender_Message(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "news@example.com", "u", "p")
	m := s.message("a@example.com", "Hello", "<p>x</p>", "x")
	require.Equal(t, []string{"a@example.com"}, m.GetHeader("To"))
	require.Equal(t, []string{"Hello"}, m.GetHeader("Subject"))

	s.TLSMode = "ssl"
	require.True(t, s.dialer().SSL)
}

func TestSMTPSender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewSMTPSender("127.0.0.1", 1, "f@example.com", "", "").Send(ctx, "a@example.com", "s", "", "t")
	require.ErrorIs(t, err, context.Canceled)
}
