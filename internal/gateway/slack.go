package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrUnexpectedStatus is returned when a remote endpoint answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Notifier delivers a rendered digest.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// SlackNotifier posts messages to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	logger     *zap.SugaredLogger
}

type slackPayload struct {
	Text string `json:"text"`
}

// NewSlackNotifier returns a notifier posting to webhookURL with client.
func NewSlackNotifier(webhookURL string, client *http.Client, logger *zap.SugaredLogger) *SlackNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     client,
		logger:     logger,
	}
}

// Notify sends text as a single message. It does not retry.
func (s *SlackNotifier) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(slackPayload{Text: text})
	if err != nil {
		return errors.Wrap(err, "error encoding webhook payload")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "error building webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "error reaching webhook")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Wrapf(ErrUnexpectedStatus, "webhook answered %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}
	s.logger.Infow("digest delivered", "status", resp.StatusCode, "bytes", len(body))
	return nil
}
