// Package notify delivers formatted alerts to the configured admins over
// the Bot API, with bounded retry.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls the dispatcher.
type Config struct {
	// BaseURL is the Bot API root, e.g. https://api.telegram.org.
	BaseURL  string
	Token    string
	AdminIDs []int64

	// Attempts per admin, RetryInterval between them.
	Attempts      int
	RetryInterval time.Duration
	// RatePerSec caps outbound sendMessage calls across all admins.
	RatePerSec int
}

// Dispatcher sends one message to every configured admin. Delivery is
// fire-and-forget from the caller's perspective: failures are logged and
// reported, never returned.
type Dispatcher struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger

	// onFailure is invoked after the final failed attempt for an admin.
	onFailure func(adminID int64, attempts int, err error)
}

func NewDispatcher(cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 30
	}
	return &Dispatcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
		logger:  logger,
	}
}

// SetOnFailure registers a callback for exhausted deliveries.
func (d *Dispatcher) SetOnFailure(fn func(adminID int64, attempts int, err error)) {
	d.onFailure = fn
}

// Notify delivers text to each admin independently. One admin failing does
// not affect the others. The retry delay suspends only the calling
// goroutine and honors ctx cancellation.
func (d *Dispatcher) Notify(ctx context.Context, text string) {
	for _, adminID := range d.cfg.AdminIDs {
		d.deliver(ctx, adminID, text)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, adminID int64, text string) {
	attempt := 0
	op := func() error {
		attempt++
		if err := d.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		return d.send(ctx, adminID, text)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.cfg.RetryInterval), uint64(d.cfg.Attempts-1)),
		ctx,
	)
	notifyRetry := func(err error, _ time.Duration) {
		d.logger.Warn("notification attempt failed",
			zap.Int64("admin_id", adminID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", d.cfg.Attempts),
			zap.Error(err))
	}

	if err := backoff.RetryNotify(op, policy, notifyRetry); err != nil {
		d.logger.Error("notification abandoned",
			zap.Int64("admin_id", adminID),
			zap.Int("attempts", attempt),
			zap.Error(err))
		if d.onFailure != nil {
			d.onFailure(adminID, attempt, err)
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, adminID int64, text string) error {
	form := url.Values{
		"chat_id":                  {strconv.FormatInt(adminID, 10)},
		"text":                     {text},
		"parse_mode":               {"HTML"},
		"disable_web_page_preview": {"true"},
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", d.cfg.BaseURL, d.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return fmt.Errorf("bot api status %d: %s", resp.StatusCode, apiDescription(resp.Body))
}

// apiDescription extracts the Bot API error description, if any.
func apiDescription(r io.Reader) string {
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&body); err != nil || body.Description == "" {
		return "unknown error"
	}
	return body.Description
}
