package studio

import (
	"context"
	"encoding/json"

	apperrors "github.com/punnathat/richmenu-studio-go/internal/errors"
)

// DeployRequest is the deployment envelope. RichMenu carries the layout
// exactly as the user wrote it; the image travels inline as base64.
type DeployRequest struct {
	Token       string          `json:"token"`
	RichMenu    json.RawMessage `json:"richmenu"`
	ImageBase64 string          `json:"imageBase64"`
	Code        string          `json:"code,omitempty"`
	UserID      string          `json:"userId,omitempty"`

	// ImageMimeType is used by the direct deployment backend only; the
	// gateway contract does not carry it.
	ImageMimeType string `json:"-"`
}

// Deployer performs the actual rich menu deployment and returns the created
// rich menu ID. Implemented by the gateway client and by the direct LINE
// API backend.
type Deployer interface {
	Deploy(ctx context.Context, req DeployRequest) (string, error)
}

// Submitter guards the deployment path: it enforces the token-and-image
// precondition before any network traffic happens. Duplicate-submission
// protection is the per-session in-flight flag, owned by the session.
type Submitter struct {
	backend Deployer
}

// NewSubmitter creates a submitter over the given backend.
func NewSubmitter(backend Deployer) *Submitter {
	return &Submitter{backend: backend}
}

// Submit deploys a rich menu. Without both a channel token and an image it
// fails immediately with ErrMissingDeployInputs and no request is sent.
func (s *Submitter) Submit(ctx context.Context, req DeployRequest) (string, error) {
	if req.Token == "" || req.ImageBase64 == "" {
		return "", apperrors.ErrMissingDeployInputs
	}
	return s.backend.Deploy(ctx, req)
}

// deployResponse is the gateway's setupRichMenu answer. Success is a
// pointer: an absent success field with no error still counts as success.
type deployResponse struct {
	Success    *bool  `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	RichMenuID string `json:"richMenuId"`
}

func (r deployResponse) failed() bool {
	return (r.Success != nil && !*r.Success) || r.Error != ""
}

// resolveErrorMessage picks the most specific error text from a failed
// response: message wins over error, and a message that is itself a JSON
// document with a nested "message" field is unwrapped one level. The LINE
// API surfaces errors to the gateway that way.
func resolveErrorMessage(r deployResponse) string {
	display := r.Error
	if display == "" {
		display = "Deployment failed"
	}

	if r.Message != "" {
		display = r.Message
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal([]byte(r.Message), &nested); err == nil && nested.Message != "" {
			display = nested.Message
		}
	}

	return display
}

// Deploy sends the deployment through the gateway. The returned error for a
// rejected deployment is a DeployError carrying the resolved message.
func (c *Client) Deploy(ctx context.Context, req DeployRequest) (string, error) {
	var resp deployResponse
	if err := c.post(ctx, PathSetupRichMenu, req, &resp); err != nil {
		return "", err
	}

	if resp.failed() {
		return "", apperrors.NewDeployError("gateway", resolveErrorMessage(resp), nil)
	}

	// The rich menu ID is opaque; an empty one still counts as success.
	return resp.RichMenuID, nil
}
