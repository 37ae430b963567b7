package studio

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/punnathat/richmenu-studio-go/internal/errors"
)

type countingDeployer struct {
	calls int
	id    string
	err   error
}

func (d *countingDeployer) Deploy(_ context.Context, _ DeployRequest) (string, error) {
	d.calls++
	return d.id, d.err
}

func TestSubmitterPrecondition(t *testing.T) {
	tests := []struct {
		name string
		req  DeployRequest
	}{
		{name: "missing token", req: DeployRequest{ImageBase64: "aW1n"}},
		{name: "missing image", req: DeployRequest{Token: "tok"}},
		{name: "missing both", req: DeployRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &countingDeployer{}
			s := NewSubmitter(backend)

			_, err := s.Submit(context.Background(), tt.req)

			assert.ErrorIs(t, err, apperrors.ErrMissingDeployInputs)
			assert.Zero(t, backend.calls, "precondition failures must not reach the backend")
		})
	}
}

func TestSubmitterPassesThrough(t *testing.T) {
	backend := &countingDeployer{id: "richmenu-xyz"}
	s := NewSubmitter(backend)

	id, err := s.Submit(context.Background(), DeployRequest{Token: "tok", ImageBase64: "aW1n"})
	require.NoError(t, err)

	assert.Equal(t, "richmenu-xyz", id)
	assert.Equal(t, 1, backend.calls)
}

func TestGatewayDeploySuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Query().Get("path")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"success":true,"richMenuId":"richmenu-123"}`))
	})

	id, err := client.Deploy(context.Background(), DeployRequest{
		Token:       "tok",
		RichMenu:    json.RawMessage(`{"name":"menu"}`),
		ImageBase64: "aW1n",
		Code:        "GC-1",
		UserID:      "U1",
	})
	require.NoError(t, err)

	assert.Equal(t, "setupRichMenu", gotPath)
	assert.Equal(t, "richmenu-123", id)
	assert.Equal(t, "tok", gotBody["token"])
	assert.Equal(t, "aW1n", gotBody["imageBase64"])
	assert.Equal(t, "GC-1", gotBody["code"])
	assert.Equal(t, "U1", gotBody["userId"])
	assert.Equal(t, map[string]any{"name": "menu"}, gotBody["richmenu"])
}

func TestGatewayDeploySuccessWithoutExplicitFlag(t *testing.T) {
	// No success field and no error field still counts as success.
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"richMenuId":""}`))
	})

	id, err := client.Deploy(context.Background(), DeployRequest{Token: "tok", ImageBase64: "aW1n"})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestGatewayDeployFailureClassification(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantMsg  string
	}{
		{
			name:     "nested json message is unwrapped",
			response: `{"success":false,"message":"{\"message\":\"insufficient scope\"}"}`,
			wantMsg:  "insufficient scope",
		},
		{
			name:     "plain message",
			response: `{"success":false,"message":"The request body has 1 error(s)"}`,
			wantMsg:  "The request body has 1 error(s)",
		},
		{
			name:     "error field only",
			response: `{"error":"invalid token"}`,
			wantMsg:  "invalid token",
		},
		{
			name:     "bare failure",
			response: `{"success":false}`,
			wantMsg:  "Deployment failed",
		},
		{
			name:     "message wins over error",
			response: `{"success":false,"error":"E500","message":"quota exceeded"}`,
			wantMsg:  "quota exceeded",
		},
		{
			name:     "nested json without message keeps raw string",
			response: `{"success":false,"message":"{\"detail\":\"x\"}"}`,
			wantMsg:  `{"detail":"x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.response))
			})

			_, err := client.Deploy(context.Background(), DeployRequest{Token: "tok", ImageBase64: "aW1n"})
			require.Error(t, err)

			var depErr *apperrors.DeployError
			require.ErrorAs(t, err, &depErr)
			assert.Equal(t, tt.wantMsg, depErr.Message)
			assert.Equal(t, "gateway", depErr.Stage)
		})
	}
}
