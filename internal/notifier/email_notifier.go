package notifier

import (
	"context"

	"github.com/aleister1102/downtime/internal/common/errorwrapper"
	"github.com/aleister1102/downtime/internal/config"
	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"
)

// EmailNotifier delivers notifications over SMTP to the configured recipients.
type EmailNotifier struct {
	cfg    config.NotificationConfig
	logger zerolog.Logger
}

// NewEmailNotifier validates that cfg can send mail and returns a notifier for it.
func NewEmailNotifier(cfg config.NotificationConfig, logger zerolog.Logger) (*EmailNotifier, error) {
	if !cfg.IsConfigured() {
		return nil, errorwrapper.WrapError(errorwrapper.ErrInvalidConfiguration, "smtp host, sender and recipients are required")
	}
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger.With().Str("component", "EmailNotifier").Logger(),
	}, nil
}

// BuildMessage composes the email for n without sending it.
func (en *EmailNotifier) BuildMessage(n Notification) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(en.cfg.FromName, en.cfg.FromAddress); err != nil {
		return nil, errorwrapper.WrapError(err, "invalid sender address")
	}
	if err := m.To(en.cfg.Recipients...); err != nil {
		return nil, errorwrapper.WrapError(err, "invalid recipient address")
	}
	m.Subject(FormatSubject(n))
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, FormatBody(n))
	return m, nil
}

// Notify sends n and returns once the SMTP server has accepted or rejected it.
func (en *EmailNotifier) Notify(ctx context.Context, n Notification) error {
	m, err := en.BuildMessage(n)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(en.cfg.SMTPHost, en.clientOptions()...)
	if err != nil {
		return errorwrapper.WrapError(err, "failed to create smtp client")
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return errorwrapper.WrapErrorf(err, "failed to send %s notification for %s", n.Kind, n.Site.URL)
	}

	en.logger.Info().
		Str("url", n.Site.URL).
		Str("kind", string(n.Kind)).
		Strs("recipients", en.cfg.Recipients).
		Msg("Notification email sent")
	return nil
}

func (en *EmailNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(en.cfg.SMTPPort),
		mail.WithTimeout(en.cfg.SendTimeout()),
	}
	if en.cfg.UseImplicitTLS {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if en.cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(en.cfg.SMTPUsername),
			mail.WithPassword(en.cfg.SMTPPassword),
		)
	}
	return opts
}
