package service

import (
	"context"
	"errors"
	"satistrain_backend/internal/config"
	"satistrain_backend/pkg/apiutil"
	"satistrain_backend/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// SESMailer 通过 AWS SES 发送邮件，发送频率受 Throttler 限制
type SESMailer struct {
	client   *sesv2.Client
	from     string
	throttle *apiutil.Throttler
	retry    apiutil.RetryOptions
}

func NewSESMailer(ctx context.Context, cfg *config.MailConfig) (*SESMailer, error) {
	if cfg.From == "" {
		return nil, errors.New("mail.from is required for the ses provider")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	// 未配置静态密钥时使用默认凭证链（IAM 角色等）
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &SESMailer{
		client:   sesv2.NewFromConfig(awsCfg),
		from:     cfg.From,
		throttle: apiutil.NewThrottler(cfg.RatePerSecond, 1),
		retry:    apiutil.RetryOptions{MaxAttempts: 3},
	}, nil
}

func (m *SESMailer) Send(ctx context.Context, to, subject, body string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	return m.throttle.Do(ctx, func(ctx context.Context) error {
		return apiutil.Retry(ctx, m.retry, func(ctx context.Context) error {
			out, err := m.client.SendEmail(ctx, input)
			if err != nil {
				logger.Log.Warn("SES send failed", zap.String("to", to), zap.Error(err))
				return err
			}
			logger.Log.Info("SES mail sent", zap.String("to", to), zap.String("messageId", aws.ToString(out.MessageId)))
			return nil
		})
	})
}
