package service

import (
	"context"
	"fmt"
	"net/url"
	"satistrain_backend/internal/config"
	"satistrain_backend/pkg/logger"

	"go.uber.org/zap"
)

// Mailer 发送系统邮件
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer 只记录日志，开发环境使用
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logger.Log.Info("Mail (log provider)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

// NewMailer 按配置选择发送方式
func NewMailer(ctx context.Context, cfg *config.MailConfig) (Mailer, error) {
	if cfg.Provider == "ses" {
		return NewSESMailer(ctx, cfg)
	}
	return LogMailer{}, nil
}

func passwordResetMail(resetURL, token string) (string, string) {
	link := token
	if resetURL != "" {
		if u, err := url.Parse(resetURL); err == nil {
			q := u.Query()
			q.Set("token", token)
			u.RawQuery = q.Encode()
			link = u.String()
		}
	}

	subject := "Passwort zurücksetzen"
	body := fmt.Sprintf("Hallo,\n\nüber den folgenden Link können Sie Ihr Passwort innerhalb einer Stunde zurücksetzen:\n\n%s\n\nFalls Sie dies nicht angefordert haben, ignorieren Sie diese E-Mail.\n", link)
	return subject, body
}
