package studio

import (
	"context"

	"github.com/punnathat/richmenu-studio-go/internal/wizard"
)

// Fixed fallback messages for the entitlement gate.
const (
	// DeniedFallbackMessage is shown when the gateway denies access without
	// its own message.
	DeniedFallbackMessage = "You do not have permission to use this system."

	// UnreachableFallbackMessage is shown when the gateway cannot be reached
	// or returns garbage. The gate fails closed.
	UnreachableFallbackMessage = "Unable to verify system access. Please try again later."
)

// Gate is the entitlement gate in front of the wizard. Access is granted iff
// the gateway answers allow or allowCode; every transport or parse failure
// is a denial.
type Gate struct {
	client *Client
}

// NewGate creates a gate backed by the gateway client.
func NewGate(client *Client) *Gate {
	return &Gate{client: client}
}

// Check verifies the LIFF user and returns the authorization verdict.
// The returned status is never AuthUnknown: by the time Check returns, the
// question has been answered one way or the other.
func (g *Gate) Check(ctx context.Context, profile wizard.Profile, code string) wizard.Authorization {
	verdict, err := g.client.VerifyLineLogin(ctx, profile, code)
	if err != nil {
		return wizard.Authorization{
			Status:  wizard.AuthDenied,
			Message: UnreachableFallbackMessage,
		}
	}

	granted := verdict.Allow || verdict.AllowCode

	message := verdict.Message
	if message == "" && !verdict.Allow {
		message = DeniedFallbackMessage
	}

	status := wizard.AuthDenied
	if granted {
		status = wizard.AuthGranted
	}

	return wizard.Authorization{Status: status, Message: message}
}
