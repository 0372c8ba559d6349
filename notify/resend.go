package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	clubAuth "github.com/MrEthical07/clubAuth"
)

// Delivery failure reasons.
const (
	ReasonMissingConfig = "missing_config"
	ReasonProviderError = "provider_error"
	ReasonNetworkError  = "network_error"
	ReasonThrottled     = "throttled"
)

// DefaultResendEndpoint is the Resend send-email API.
const DefaultResendEndpoint = "https://api.resend.com/emails"

// ResendConfig configures ResendSender. Endpoint and HTTPClient default to
// the public API and a client with a 10s timeout.
type ResendConfig struct {
	APIKey     string
	From       string
	Endpoint   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// ResendSender emails codes through Resend.
type ResendSender struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewResendSender(cfg ResendConfig) *ResendSender {
	s := &ResendSender{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		from:     strings.TrimSpace(cfg.From),
		endpoint: cfg.Endpoint,
		client:   cfg.HTTPClient,
		logger:   cfg.Logger,
	}
	if s.endpoint == "" {
		s.endpoint = DefaultResendEndpoint
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 10 * time.Second}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Configured reports whether both the API key and sender address are set.
func (s *ResendSender) Configured() bool {
	return s != nil && s.apiKey != "" && s.from != ""
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (s *ResendSender) SendCode(ctx context.Context, d clubAuth.CodeDelivery) clubAuth.DeliveryResult {
	if !s.Configured() {
		return clubAuth.DeliveryResult{Reason: ReasonMissingConfig}
	}

	body, err := json.Marshal(resendRequest{
		From:    s.from,
		To:      []string{d.Email},
		Subject: Subject(d.Purpose),
		Text:    fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", d.Code),
	})
	if err != nil {
		return clubAuth.DeliveryResult{Reason: ReasonProviderError}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return clubAuth.DeliveryResult{Reason: ReasonNetworkError}
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("code delivery request failed",
			slog.String("recipient", clubAuth.MaskEmail(d.Email)),
			slog.String("error", err.Error()),
		)
		return clubAuth.DeliveryResult{Reason: ReasonNetworkError}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("code delivery rejected",
			slog.String("recipient", clubAuth.MaskEmail(d.Email)),
			slog.Int("status", resp.StatusCode),
		)
		return clubAuth.DeliveryResult{Reason: ReasonProviderError}
	}
	return clubAuth.DeliveryResult{Sent: true}
}

// Subject returns the email subject for purpose.
func Subject(purpose clubAuth.CodePurpose) string {
	switch purpose {
	case clubAuth.PurposeRegister:
		return "Your club registration code"
	case clubAuth.PurposeAdminLogin:
		return "Your admin sign-in code"
	default:
		return "Your club sign-in code"
	}
}
