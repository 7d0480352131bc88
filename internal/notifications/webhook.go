package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kjannette/bullionaire-backend/internal/httputil"
	"github.com/kjannette/bullionaire-backend/internal/logger"
	"go.uber.org/zap"
)

const DefaultBotName = "BullionaireBot"

const sendTimeout = 30 * time.Second

var webhookRetry = httputil.RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    5 * time.Second,
}

// Sender posts operator alerts to a Slack or Discord webhook. Without a
// webhook it only logs.
type Sender struct {
	webhookURL string
	botName    string
	client     *resty.Client
	log        *zap.SugaredLogger
}

func NewSender(webhookURL, botName string) *Sender {
	return newSender(webhookURL, botName, webhookRetry)
}

func newSender(webhookURL, botName string, retry httputil.RetryConfig) *Sender {
	if botName == "" {
		botName = DefaultBotName
	}
	return &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		client:     httputil.NewClient("webhook", 10*time.Second, retry),
		log:        logger.Named("NOTIFY"),
	}
}

// Send logs msg and, when a webhook is configured, posts it. Delivery
// failures are logged, never returned.
func (s *Sender) Send(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.botName, msg)
	s.log.Info(formatted)

	if s.webhookURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(s.payload(formatted)).
		Post(s.webhookURL)
	if err := httputil.Check(resp, err); err != nil {
		s.log.Errorw("Webhook delivery failed", "error", err)
	}
}

// CycleFailed reports an aborted decision cycle. It is the server-side
// counterpart of the dashboard's transient error toast.
func (s *Sender) CycleFailed(accountID string, err error) {
	s.Send(fmt.Sprintf("Decision cycle failed for account %s: %v", accountID, err))
}

func (s *Sender) payload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{"content": msg, "username": s.botName}
	}
	return map[string]string{"text": fmt.Sprintf("`%s`", msg), "username": s.botName}
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}
