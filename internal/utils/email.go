package utils

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agriconnect_back_end/internal/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const alertSendTimeout = 15 * time.Second

// Alerter escalade un incident vers l'équipe. Alert ne bloque pas l'appelant
// et ne renvoie rien : un échec d'envoi est seulement loggé.
type Alerter interface {
	Alert(ctx context.Context, subject, body string)
}

// NewAlerter renvoie un alerter e-mail si SMTP est configuré, sinon un alerter
// qui se contente de logger.
func NewAlerter(cfg *config.SMTP, log *zap.Logger) Alerter {
	if cfg == nil || cfg.Host == "" || len(cfg.To) == 0 {
		log.Warn("⚠️ SMTP_HOST ou ALERT_TO absent : alertes seulement loggées")
		return &LogAlerter{log: log}
	}
	return &MailAlerter{cfg: cfg, log: log}
}

type LogAlerter struct {
	log *zap.Logger
}

func (a *LogAlerter) Alert(_ context.Context, subject, body string) {
	a.log.Error("🚨 "+subject, zap.String("details", body))
}

type MailAlerter struct {
	cfg *config.SMTP
	log *zap.Logger
}

func (a *MailAlerter) Alert(ctx context.Context, subject, body string) {
	a.log.Error("🚨 "+subject, zap.String("details", body))

	msg, err := buildAlert(a.cfg.From, a.cfg.To, subject, body)
	if err != nil {
		a.log.Error("construction de l'e-mail d'alerte", zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), alertSendTimeout)
		defer cancel()
		if err := a.send(ctx, msg); err != nil {
			a.log.Error("❌ envoi de l'alerte", zap.String("subject", subject), zap.Error(err))
			return
		}
		a.log.Info("📤 Alerte envoyée", zap.Strings("to", a.cfg.To), zap.String("subject", subject))
	}()
}

func (a *MailAlerter) send(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(a.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if a.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(a.cfg.Username),
			mail.WithPassword(a.cfg.Password),
		)
	}

	client, err := mail.NewClient(a.cfg.Host, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func buildAlert(from string, to []string, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("expéditeur %q: %w", from, err)
	}
	if err := msg.To(to...); err != nil {
		return nil, fmt.Errorf("destinataires %s: %w", strings.Join(to, ","), err)
	}
	msg.Subject("[AgriConnect] " + subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
