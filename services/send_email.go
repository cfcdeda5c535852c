package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyeyeon57/portfolio-backoffice/config"
	"github.com/hyeyeon57/portfolio-backoffice/errs"
	"github.com/hyeyeon57/portfolio-backoffice/models"
)

const defaultResendEndpoint = "https://api.resend.com/emails"

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

// ResendNotifier emails new contact messages to the site owner.
type ResendNotifier struct {
	APIKey     string
	From       string
	Recipients []string
	Endpoint   string
	Client     *http.Client
}

// NewResendNotifierFromConfig returns nil unless RESEND_API_KEY,
// RESEND_FROM_EMAIL and CONTACT_NOTIFY_EMAILS are all set.
func NewResendNotifierFromConfig(cfg map[string]string) *ResendNotifier {
	n := &ResendNotifier{
		APIKey:     config.GetString(cfg, "RESEND_API_KEY", ""),
		From:       config.GetString(cfg, "RESEND_FROM_EMAIL", ""),
		Recipients: config.GetList(cfg, "CONTACT_NOTIFY_EMAILS", nil),
		Endpoint:   config.GetString(cfg, "RESEND_ENDPOINT", defaultResendEndpoint),
		Client:     &http.Client{Timeout: 15 * time.Second},
	}
	if n.APIKey == "" || n.From == "" || len(n.Recipients) == 0 {
		log.Info().Msg("contact email notifications disabled")
		return nil
	}
	return n
}

func (n *ResendNotifier) NotifyContact(ctx context.Context, c models.Contact) error {
	subject := fmt.Sprintf("New contact message from %s", c.Name)
	body := fmt.Sprintf("<p><strong>%s</strong> &lt;%s&gt; wrote:</p><p>%s</p>",
		html.EscapeString(c.Name),
		html.EscapeString(c.Email),
		strings.ReplaceAll(html.EscapeString(c.Message), "\n", "<br>"),
	)
	return n.SendEmail(ctx, ResendEmailRequest{
		From:    n.From,
		To:      n.Recipients,
		Subject: subject,
		Html:    body,
		ReplyTo: c.Email,
	})
}

// SendEmail posts payload to the Resend API.
func (n *ResendNotifier) SendEmail(ctx context.Context, payload ResendEmailRequest) error {
	if len(payload.To) == 0 {
		return errs.NewMissingRequiredFieldError("to")
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errs.NewServiceUnreachableError("resend", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		log.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	}
	return nil
}
