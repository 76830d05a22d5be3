// Package telegram delivers escalation alerts to a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/okian/wellcheck/internal/adapters/secrets"
	"github.com/okian/wellcheck/internal/domain/alert"
	"github.com/okian/wellcheck/internal/domain/decision"
	"github.com/okian/wellcheck/internal/domain/model"
	"github.com/okian/wellcheck/pkg/logger"
	"github.com/okian/wellcheck/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Notifier sends one HTML message per escalation. Credentials are looked up
// on every call.
type Notifier struct {
	secrets   secrets.Store
	endpoint  string
	timeout   time.Duration
	textLimit int
	client    *http.Client
	logger    logger.Logger
}

// Option applies a configuration option to the Notifier.
type Option func(*Notifier)

// WithSecrets sets the credential source.
func WithSecrets(s secrets.Store) Option {
	return func(n *Notifier) {
		n.secrets = s
	}
}

// WithEndpoint overrides the Bot API endpoint format (token, method).
func WithEndpoint(endpoint string) Option {
	return func(n *Notifier) {
		if endpoint != "" {
			n.endpoint = endpoint
		}
	}
}

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithTextLimit caps the free text copied into the message.
func WithTextLimit(limit int) Option {
	return func(n *Notifier) {
		if limit > 0 {
			n.textLimit = limit
		}
	}
}

// WithHTTPClient replaces the transport. Its timeout is overridden.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		if c != nil {
			n.client = c
		}
	}
}

// WithLogger sets a custom logger for the notifier.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// New constructs a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		endpoint:  tgbotapi.APIEndpoint,
		timeout:   defaultTimeout,
		textLimit: alert.DefaultTextLimit,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.secrets == nil {
		n.secrets = secrets.NewFileEnvStore()
	}
	return n
}

var _ alert.Notifier = (*Notifier)(nil)

// Notify sends the alert. It never retries; a failed send is reported once.
func (n *Notifier) Notify(ctx context.Context, v decision.Verdict, sub model.Submission) (bool, error) {
	start := time.Now()
	delivered, err := n.send(ctx, v, sub)
	metrics.RecordNotificationLatency(float64(time.Since(start).Microseconds()) / 1000)

	switch {
	case err == nil:
		metrics.RecordNotification("delivered")
	case errors.Is(err, alert.ErrNotConfigured):
		metrics.RecordNotification("not_configured")
		n.logger.Warn(ctx, "alert channel not configured", logger.Error(err))
	default:
		metrics.RecordNotification("failed")
		n.logger.Error(ctx, "alert delivery failed", logger.Error(err))
	}
	return delivered, err
}

func (n *Notifier) send(ctx context.Context, v decision.Verdict, sub model.Submission) (bool, error) {
	token, err := n.secrets.Lookup(ctx, secrets.KeyTelegramBotToken)
	if err != nil {
		return false, fmt.Errorf("%w: %v", alert.ErrNotConfigured, err)
	}
	chat, err := n.secrets.Lookup(ctx, secrets.KeyTelegramChatID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", alert.ErrNotConfigured, err)
	}

	text := alert.FormatHTML(alert.RefFrom(ctx), v, sub, n.textLimit)
	msg, err := newMessage(chat, text)
	if err != nil {
		return false, err
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	bot := &tgbotapi.BotAPI{
		Token:  token,
		Client: n.httpClient(ctx),
		Buffer: 100,
	}
	bot.SetAPIEndpoint(n.endpoint)

	if _, err := bot.Send(msg); err != nil {
		return false, fmt.Errorf("%w: %s", alert.ErrDelivery, redact(err.Error(), token))
	}
	n.logger.Info(ctx, "alert delivered", logger.String("severity", v.Severity.Slug()))
	return true, nil
}

func (n *Notifier) httpClient(ctx context.Context) *statusClient {
	c := &http.Client{Timeout: n.timeout}
	if n.client != nil {
		cp := *n.client
		cp.Timeout = n.timeout
		c = &cp
	}
	return &statusClient{ctx: ctx, client: c}
}

// newMessage accepts a numeric chat id or an @channel username.
func newMessage(chat, text string) (tgbotapi.MessageConfig, error) {
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text), nil
	}
	if strings.HasPrefix(chat, "@") && len(chat) > 1 {
		return tgbotapi.NewMessageToChannel(chat, text), nil
	}
	return tgbotapi.MessageConfig{}, fmt.Errorf("%w: chat id %q is neither numeric nor @channel", alert.ErrNotConfigured, chat)
}

// statusClient binds requests to the caller's context and turns non-2xx
// responses into errors so the bot library never decodes an error page.
type statusClient struct {
	ctx    context.Context
	client *http.Client
}

func (c *statusClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req.WithContext(c.ctx))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("telegram responded %d", resp.StatusCode)
	}
	return resp, nil
}

// redact keeps the bot token out of error strings, since request URLs embed it.
func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<redacted>")
}
