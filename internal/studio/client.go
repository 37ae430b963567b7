// Package studio talks to the remote studio gateway: a single Apps Script
// style endpoint that multiplexes operations through a ?path= query
// parameter. It also hosts the entitlement gate and the deployment
// submitter built on top of that gateway.
package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/punnathat/richmenu-studio-go/internal/errors"
	"github.com/punnathat/richmenu-studio-go/internal/logger"
	"github.com/punnathat/richmenu-studio-go/internal/wizard"
)

// Gateway operation paths.
const (
	PathVerifyLineLogin = "verifyLineLogin"
	PathVerifyToken     = "verifyToken"
	PathVerifyToken2    = "verifyToken2"
	PathBankAccounts    = "bankAccounts"
	PathVerifySlip      = "verifySlip"
	PathSetupRichMenu   = "setupRichMenu"
)

// MetricsRecorder records gateway call metrics.
type MetricsRecorder interface {
	RecordGatewayRequest(path, status string, duration float64)
}

// Client is the gateway HTTP client. JSON bodies are posted with a
// text/plain content type; the gateway does not accept application/json
// without a CORS preflight, so the original wire contract is preserved.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
	metrics MetricsRecorder
}

// NewClient creates a gateway client. baseURL is the bare endpoint without
// the ?path= parameter.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "?"),
		http:    &http.Client{Timeout: timeout},
		log:     log.WithModule("studio"),
	}
}

// SetMetrics attaches a metrics recorder.
func (c *Client) SetMetrics(m MetricsRecorder) {
	c.metrics = m
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "?path=" + url.QueryEscape(path)
}

// post sends payload as a JSON document with text/plain content type and
// decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewGatewayError(path, 0, fmt.Errorf("encode payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(body))
	if err != nil {
		return apperrors.NewGatewayError(path, 0, err)
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	return c.do(req, path, out)
}

// get sends a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path), http.NoBody)
	if err != nil {
		return apperrors.NewGatewayError(path, 0, err)
	}

	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		c.record(path, "error", duration)
		c.log.WithError(err).WithField("path", path).Warn("Gateway request failed")
		return apperrors.NewGatewayError(path, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.record(path, "error", duration)
		c.log.WithField("path", path).
			WithField("status", resp.StatusCode).
			Warn("Gateway returned non-OK status")
		return apperrors.NewGatewayError(path, resp.StatusCode,
			fmt.Errorf("cloud verification service error (status: %d)", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		c.record(path, "error", duration)
		return apperrors.NewGatewayError(path, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.record(path, "error", duration)
			return apperrors.NewGatewayError(path, resp.StatusCode, fmt.Errorf("decode response: %w", err))
		}
	}

	c.record(path, "success", duration)
	return nil
}

func (c *Client) record(path, status string, duration float64) {
	if c.metrics != nil {
		c.metrics.RecordGatewayRequest(path, status, duration)
	}
}

// LoginVerdict is the gateway's answer to a LIFF login verification.
type LoginVerdict struct {
	Allow     bool   `json:"allow"`
	AllowCode bool   `json:"allowCode"`
	Message   string `json:"message"`
}

// VerifyLineLogin checks whether the logged-in LIFF user may use the system.
// code is the optional one-time access code from the entry URL.
func (c *Client) VerifyLineLogin(ctx context.Context, profile wizard.Profile, code string) (LoginVerdict, error) {
	payload := struct {
		UserID      string `json:"userId"`
		PictureURL  string `json:"pictureUrl"`
		DisplayName string `json:"displayName"`
		Code        string `json:"code,omitempty"`
	}{
		UserID:      profile.UserID,
		PictureURL:  profile.PictureURL,
		DisplayName: profile.DisplayName,
		Code:        code,
	}

	var verdict LoginVerdict
	if err := c.post(ctx, PathVerifyLineLogin, payload, &verdict); err != nil {
		return LoginVerdict{}, err
	}
	return verdict, nil
}

// TokenVerification is the gateway's answer to a channel credential check.
type TokenVerification struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// VerifyToken verifies a long-lived channel access token.
func (c *Client) VerifyToken(ctx context.Context, token string) (TokenVerification, error) {
	payload := struct {
		Token string `json:"token"`
	}{Token: token}

	var result TokenVerification
	if err := c.post(ctx, PathVerifyToken, payload, &result); err != nil {
		return TokenVerification{}, err
	}
	return result, nil
}

// VerifyChannelCredentials exchanges a channel ID and secret for a token and
// verifies it.
func (c *Client) VerifyChannelCredentials(ctx context.Context, clientID, clientSecret string) (TokenVerification, error) {
	payload := struct {
		ClientID     string `json:"clientId"`
		ClientSecret string `json:"clientSecret"`
	}{ClientID: clientID, ClientSecret: clientSecret}

	var result TokenVerification
	if err := c.post(ctx, PathVerifyToken2, payload, &result); err != nil {
		return TokenVerification{}, err
	}
	return result, nil
}

// fallbackAvatarURL is used when the gateway has no picture for the OA.
const fallbackAvatarURL = "https://ui-avatars.com/api/?name=OA&background=06C755&color=fff"

// AccountFromVerification maps a successful verification onto the OA
// identity shown in the wizard, filling gaps with stable placeholders.
func AccountFromVerification(v TokenVerification) *wizard.AccountInfo {
	info := &wizard.AccountInfo{
		UserID:      v.ID,
		BasicID:     v.ID,
		DisplayName: v.Name,
		PictureURL:  v.Picture,
	}
	if info.UserID == "" {
		info.UserID = "N/A"
	}
	if info.BasicID == "" {
		info.BasicID = "@unknown"
	}
	if info.DisplayName == "" {
		info.DisplayName = "Unknown OA"
	}
	if info.PictureURL == "" {
		info.PictureURL = fallbackAvatarURL
	}
	return info
}

// BankAccounts returns the payment bank account list. The entries are passed
// through untouched; the gateway owns their shape.
func (c *Client) BankAccounts(ctx context.Context) ([]json.RawMessage, error) {
	var result struct {
		Lists []json.RawMessage `json:"lists"`
	}
	if err := c.get(ctx, PathBankAccounts, &result); err != nil {
		return nil, err
	}
	return result.Lists, nil
}

// SlipResult is the gateway's answer to a payment slip verification.
// Code is the one-time access code for re-entering via /?gcode=.
type SlipResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// VerifySlip submits a payment slip image for verification.
func (c *Client) VerifySlip(ctx context.Context, filename, mimetype, fileBase64, userID string) (SlipResult, error) {
	if userID == "" {
		userID = "unknown_user"
	}
	payload := struct {
		Filename string `json:"filename"`
		Mimetype string `json:"mimetype"`
		File     string `json:"file"`
		UserID   string `json:"userId"`
	}{
		Filename: filename,
		Mimetype: mimetype,
		File:     fileBase64,
		UserID:   userID,
	}

	var result SlipResult
	if err := c.post(ctx, PathVerifySlip, payload, &result); err != nil {
		return SlipResult{}, err
	}
	return result, nil
}
