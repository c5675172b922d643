package events

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"net/smtp"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

//go:embed templates/*.django
var mailTemplates embed.FS

// SMTPConfig holds mail transport options
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// Enabled reports whether the transport is configured at all.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

// SMTPNotifier delivers one-time codes over SMTP with HTML bodies
// rendered from the embedded templates.
type SMTPNotifier struct {
	cfg    SMTPConfig
	engine *django.Engine
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger Logger
}

var _ Notifier = (*SMTPNotifier)(nil)

func NewSMTPNotifier(cfg SMTPConfig, logger Logger) (*SMTPNotifier, error) {
	if logger == nil {
		logger = defLogger{}
	}

	sub, err := fs.Sub(mailTemplates, "templates")
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open mail templates")
	}

	engine := django.NewFileSystem(http.FS(sub), ".django")
	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load mail templates")
	}

	return &SMTPNotifier{
		cfg:    cfg,
		engine: engine,
		send:   smtp.SendMail,
		logger: logger,
	}, nil
}

func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	return n.deliver(ctx, email, "Verify your email", "verification", code)
}

func (n *SMTPNotifier) SendPasswordResetCode(ctx context.Context, email, code string) error {
	return n.deliver(ctx, email, "Reset your password", "password_reset", code)
}

func (n *SMTPNotifier) deliver(ctx context.Context, email, subject, template, code string) error {
	if err := ctx.Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "context cancelled before mail delivery")
	}

	var body bytes.Buffer
	err := n.engine.Render(&body, template, map[string]any{
		"code":        code,
		"ttl_minutes": int(CodeTTL.Minutes()),
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render mail template").
			WithMetadata(map[string]any{
				"template": template,
			})
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	if err := n.send(addr, auth, n.cfg.From, []string{email}, msg.Bytes()); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "smtp delivery failed").
			WithMetadata(map[string]any{
				"host": n.cfg.Host,
			})
	}

	n.logger.Debug("delivered %s mail to %s", template, email)
	return nil
}
