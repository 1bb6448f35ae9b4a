package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of a failed push response is kept as log detail.
const maxErrorBody = 1000

// Push is the payload accepted by the push-delivery function.
type Push struct {
	UserID string            `json:"user_id"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data"`
}

// Sender delivers a single push notification.
type Sender interface {
	Send(ctx context.Context, p Push) error
}

// DeliveryError is a non-2xx answer from the push function.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("push function returned %d: %s", e.StatusCode, e.Body)
}

// FailureDetail is the text stored in the log for a failed push: the response
// body for a delivery error, the error message otherwise.
func FailureDetail(err error) string {
	var de *DeliveryError
	if errors.As(err, &de) {
		if de.Body == "" {
			return http.StatusText(de.StatusCode)
		}
		return de.Body
	}
	return err.Error()
}

// PushClient posts notifications to the backend push function.
type PushClient struct {
	httpClient *http.Client
	endpoint   string
	serviceKey string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewPushClient creates a rate-limited push client. A ratePerSecond of zero
// or less disables the limiter.
func NewPushClient(endpoint, serviceKey string, timeout time.Duration, ratePerSecond float64, logger *slog.Logger) *PushClient {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &PushClient{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		serviceKey: serviceKey,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// Send performs one synchronous POST. Any 2xx status is success.
func (c *PushClient) Send(ctx context.Context, p Push) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{StatusCode: resp.StatusCode, Body: truncate(body, maxErrorBody)}
	}

	c.logger.Debug("push delivered", "user_id", p.UserID, "status", resp.StatusCode)
	return nil
}

// truncate returns a truncated string representation for error messages. The
// cut never splits a UTF-8 sequence.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	for maxLen > 0 && !utf8.RuneStart(b[maxLen]) {
		maxLen--
	}
	return string(b[:maxLen]) + "..."
}
