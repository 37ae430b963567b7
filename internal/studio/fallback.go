package studio

import (
	"strings"

	"github.com/punnathat/richmenu-studio-go/internal/wizard"
)

// Fixed identity presented when token verification fails but the token at
// least looks like a real channel token. The wizard stays explorable in a
// degraded preview mode instead of dead-ending on a gateway outage.
const (
	PreviewModeUserID      = "U-FALLBACK"
	PreviewModeBasicID     = "@preview_mode"
	PreviewModeDisplayName = "Preview Mode Account"
	previewModePictureURL  = "https://sprofile.line-scdn.net/0h-jG1_K7pCUt7PzY5_O9SFEF_CnR_C3A_Kn18C3A_Knl_P3A_"
)

// TokenShaped reports whether a string plausibly is a channel access token:
// the "ey" prefix of a base64-encoded JSON header plus a minimum length.
// Deliberately loose; it only gates the preview-mode fallback.
func TokenShaped(token string) bool {
	return strings.HasPrefix(token, "ey") && len(token) > 50
}

// PreviewModeAccount returns the degraded fallback identity.
func PreviewModeAccount() *wizard.AccountInfo {
	return &wizard.AccountInfo{
		UserID:      PreviewModeUserID,
		BasicID:     PreviewModeBasicID,
		DisplayName: PreviewModeDisplayName,
		PictureURL:  previewModePictureURL,
	}
}
