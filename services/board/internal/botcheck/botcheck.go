// Package botcheck verifies human-verification tokens (Cloudflare Turnstile,
// reCAPTCHA and hCaptcha share the siteverify protocol).
package botcheck

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/platform/apperr"
)

const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Verifier checks a client-supplied bot-check token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// Noop accepts every request. Development only.
type Noop struct{}

func (Noop) Verify(context.Context, string, string) error { return nil }

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
}

// SiteVerify posts tokens to a siteverify endpoint.
type SiteVerify struct {
	client *resty.Client
	url    string
	secret string
	log    *zap.Logger
}

func NewSiteVerify(url, secret string, hc *http.Client, log *zap.Logger) *SiteVerify {
	if url == "" {
		url = DefaultVerifyURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SiteVerify{client: resty.NewWithClient(hc), url: url, secret: secret, log: log}
}

func (v *SiteVerify) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.Validation("BOT_TOKEN_REQUIRED", "bot verification token is required")
	}

	form := map[string]string{"secret": v.secret, "response": token}
	if remoteIP != "" {
		form["remoteip"] = remoteIP
	}

	var out verifyResponse
	resp, err := v.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&out).
		Post(v.url)
	if err != nil {
		return apperr.Wrap(err, apperr.KindUpstream, "BOT_CHECK_UNAVAILABLE", "bot verification unavailable")
	}
	if resp.IsError() {
		return apperr.Wrap(fmt.Errorf("siteverify status %d", resp.StatusCode()),
			apperr.KindUpstream, "BOT_CHECK_UNAVAILABLE", "bot verification unavailable")
	}
	if !out.Success {
		v.log.Info("bot check rejected", zap.Strings("error_codes", out.ErrorCodes))
		return apperr.Forbidden("bot verification failed")
	}
	return nil
}
