package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bhalariaworks/authd/pkg/slogx"
)

// DefaultCaptchaThreshold is the minimum human-probability score admitted
// through the bot-filter gate.
const DefaultCaptchaThreshold = 0.5

// CaptchaResult is the raw outcome from the scoring service.
type CaptchaResult struct {
	Success bool
	Score   float64
}

// CaptchaVerifier forwards a client challenge token to a third-party
// scoring service.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) (CaptchaResult, error)
}

// RecaptchaVerifier calls the reCAPTCHA siteverify API with a server-held
// secret.
type RecaptchaVerifier struct {
	Endpoint   string // defaults to the Google siteverify URL
	Secret     string
	HTTPClient *http.Client
}

const recaptchaSiteverifyURL = "https://www.google.com/recaptcha/api/siteverify"

func (v *RecaptchaVerifier) Verify(ctx context.Context, token string) (CaptchaResult, error) {
	endpoint := v.Endpoint
	if endpoint == "" {
		endpoint = recaptchaSiteverifyURL
	}

	client := v.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return CaptchaResult{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return CaptchaResult{}, fmt.Errorf("siteverify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CaptchaResult{}, fmt.Errorf("siteverify returned status %d", resp.StatusCode)
	}

	var body struct {
		Success bool    `json:"success"`
		Score   float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return CaptchaResult{}, fmt.Errorf("siteverify response malformed: %w", err)
	}

	return CaptchaResult{Success: body.Success, Score: body.Score}, nil
}

// CaptchaService applies the admission policy on top of a verifier.
type CaptchaService struct {
	Verifier  CaptchaVerifier
	Threshold float64
}

// CaptchaDecision is the policy outcome surfaced to callers and to the
// verification endpoint.
type CaptchaDecision struct {
	Verified bool
	Score    float64
}

// Check forwards the token and applies the score policy. Any transport or
// decoding failure fails the gate; callers never see a partial result.
func (s *CaptchaService) Check(ctx context.Context, token string) CaptchaDecision {
	log := slogx.FromContext(ctx)

	if strings.TrimSpace(token) == "" {
		return CaptchaDecision{}
	}

	threshold := s.Threshold
	if threshold <= 0 {
		threshold = DefaultCaptchaThreshold
	}

	result, err := s.Verifier.Verify(ctx, token)
	if err != nil {
		log.Warn("captcha verification failed", "err", err)
		return CaptchaDecision{}
	}

	return CaptchaDecision{
		Verified: result.Success && result.Score >= threshold,
		Score:    result.Score,
	}
}
