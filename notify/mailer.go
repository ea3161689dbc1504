// Package notify delivers outbound email and broker events.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"cafe-pos-api/config"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Message struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendResult reports per-recipient delivery. Mock is set when nothing left the process.
type SendResult struct {
	Sent   []string          `json:"sent"`
	Failed map[string]string `json:"failed,omitempty"`
	Mock   bool              `json:"mock"`
}

// Mailer sends one message to every recipient in it.
type Mailer interface {
	Send(ctx context.Context, m Message) (SendResult, error)
}

// NewMailer picks Postmark when a server token is configured, otherwise a logging mock.
func NewMailer(cfg config.Email, log *logrus.Logger) Mailer {
	if cfg.PostmarkToken == "" {
		log.Warn("no postmark token configured, emails will only be logged")
		return &LogMailer{log: log.WithField("component", "mailer")}
	}
	return &PostmarkMailer{
		token:    cfg.PostmarkToken,
		from:     cfg.From,
		endpoint: postmarkURL,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log.WithField("component", "mailer"),
	}
}

type PostmarkMailer struct {
	token    string
	from     string
	endpoint string
	client   *http.Client
	log      *logrus.Entry
}

type postmarkPayload struct {
	From          string
	To            string
	Subject       string
	HtmlBody      string
	TextBody      string
	MessageStream string
}

// Send posts one request per recipient. It fails only when every recipient failed.
func (m *PostmarkMailer) Send(ctx context.Context, msg Message) (SendResult, error) {
	res := SendResult{Sent: []string{}, Failed: map[string]string{}}
	if len(msg.To) == 0 {
		return res, errors.New("no recipients")
	}
	for _, to := range msg.To {
		if err := m.sendOne(ctx, to, msg); err != nil {
			m.log.WithError(err).WithField("to", to).Error("email delivery failed")
			res.Failed[to] = err.Error()
			continue
		}
		res.Sent = append(res.Sent, to)
	}
	if len(res.Sent) == 0 {
		return res, fmt.Errorf("email delivery failed for all %d recipients", len(msg.To))
	}
	return res, nil
}

func (m *PostmarkMailer) sendOne(ctx context.Context, to string, msg Message) error {
	body, err := json.Marshal(postmarkPayload{
		From:          m.from,
		To:            to,
		Subject:       msg.Subject,
		HtmlBody:      msg.HTMLBody,
		TextBody:      msg.TextBody,
		MessageStream: "outbound",
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("postmark responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	m.log.WithField("to", to).Info("email sent")
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	log *logrus.Entry
}

func (m *LogMailer) Send(_ context.Context, msg Message) (SendResult, error) {
	if len(msg.To) == 0 {
		return SendResult{Sent: []string{}, Mock: true}, errors.New("no recipients")
	}
	m.log.WithFields(logrus.Fields{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}).Info("mock email")
	return SendResult{Sent: append([]string(nil), msg.To...), Mock: true}, nil
}
