package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"LeadWatcher/internal/domain"
	"LeadWatcher/internal/ports"
)

const defaultEndpoint = "https://slack.com/api/chat.postMessage"

var (
	// ErrMisconfigured means the bot token or channel id is missing; a
	// configuration failure is never retried.
	ErrMisconfigured = errors.New("slack notifier misconfigured")

	// ErrRateLimited is the recognized retryable API condition.
	ErrRateLimited = errors.New("slack rate limited")
)

// Notifier posts lead notifications to a Slack channel via chat.postMessage.
type Notifier struct {
	botToken  string
	channelID string
	// docURL, when set, is attached as a link button.
	docURL   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	// attempts is the total retry budget; rateLimitWait and networkWait
	// are the fixed backoffs between attempts.
	attempts      int
	rateLimitWait time.Duration
	networkWait   time.Duration
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and channel identifier.
func NewNotifier(botToken, channelID, docURL string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		botToken:      botToken,
		channelID:     channelID,
		docURL:        docURL,
		endpoint:      defaultEndpoint,
		client:        &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
		attempts:      3,
		rateLimitWait: 2 * time.Second,
		networkWait:   time.Second,
	}
}

// Notify builds the structured message and posts it, retrying rate limits
// and transport errors up to the attempt budget. Exhausting the budget
// returns the last failure; the caller decides what to do with it.
func (n *Notifier) Notify(ctx context.Context, lead domain.Lead) error {
	if n.botToken == "" || n.channelID == "" {
		return ErrMisconfigured
	}

	payload, err := json.Marshal(n.buildMessage(lead))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= n.attempts; attempt++ {
		apiErr, err := n.post(ctx, payload)
		switch {
		case err != nil:
			lastErr = err
			n.logger.Warn("slack request failed", "attempt", attempt, "error", err)
			if attempt < n.attempts {
				if werr := sleep(ctx, n.networkWait); werr != nil {
					return werr
				}
			}
		case apiErr == "rate_limited":
			lastErr = ErrRateLimited
			n.logger.Warn("slack rate limited", "attempt", attempt)
			if attempt < n.attempts {
				if werr := sleep(ctx, n.rateLimitWait); werr != nil {
					return werr
				}
			}
		case apiErr != "":
			return fmt.Errorf("slack api error: %s", apiErr)
		default:
			return nil
		}
	}

	return fmt.Errorf("notify failed after %d attempts: %w", n.attempts, lastErr)
}

func (n *Notifier) post(ctx context.Context, payload []byte) (apiErr string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.botToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if !body.OK {
		return body.Error, nil
	}
	return "", nil
}

func (n *Notifier) buildMessage(lead domain.Lead) map[string]any {
	fields := []map[string]string{
		{"type": "mrkdwn", "text": "*Name:*\n" + lead.Name},
		{"type": "mrkdwn", "text": "*Email:*\n" + lead.Email},
		{"type": "mrkdwn", "text": "*Company:*\n" + lead.Company},
		{"type": "mrkdwn", "text": "*Phone:*\n" + lead.Phone},
		{"type": "mrkdwn", "text": "*Source:*\n" + lead.Source},
		{"type": "mrkdwn", "text": "*Time:*\n" + lead.ObservedAt.Format(time.RFC1123)},
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": "New Lead \U0001F389", "emoji": true},
		},
		{
			"type":   "section",
			"fields": fields,
		},
	}

	if n.docURL != "" {
		blocks = append(blocks, map[string]any{
			"type": "actions",
			"elements": []map[string]any{
				{
					"type": "button",
					"text": map[string]any{"type": "plain_text", "text": "Open Leads Sheet"},
					"url":  n.docURL,
				},
			},
		})
	}

	return map[string]any{
		"channel": n.channelID,
		"text":    fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.Company),
		"blocks":  blocks,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
