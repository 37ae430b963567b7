// Package deploy pushes a rich menu straight to the LINE Messaging API with
// the session's verified channel token: create the menu, upload its image
// through the blob endpoint, then make it the default for all users.
// It is the direct-mode alternative to routing deployment through the
// studio gateway.
package deploy

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	apperrors "github.com/punnathat/richmenu-studio-go/internal/errors"
	"github.com/punnathat/richmenu-studio-go/internal/logger"
	"github.com/punnathat/richmenu-studio-go/internal/richmenu"
	"github.com/punnathat/richmenu-studio-go/internal/studio"
)

// Client deploys rich menus directly against the LINE Messaging API.
type Client struct {
	log *logger.Logger
}

// New creates a direct deployment client.
func New(log *logger.Logger) *Client {
	return &Client{log: log.WithModule("deploy")}
}

// Deploy implements studio.Deployer. Each request builds fresh API clients
// because the channel token is per-session, not per-process. The SDK does
// not thread contexts through its generated calls, so ctx only covers the
// decode stage.
func (c *Client) Deploy(_ context.Context, req studio.DeployRequest) (string, error) {
	cfg, err := richmenu.Decode(string(req.RichMenu))
	if err != nil {
		return "", apperrors.NewDeployError("create", "rich menu config is not valid JSON", err)
	}

	image, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		return "", apperrors.NewDeployError("upload", "image is not valid base64", err)
	}

	request, err := toRichMenuRequest(cfg)
	if err != nil {
		return "", apperrors.NewDeployError("create", err.Error(), err)
	}

	api, err := messaging_api.NewMessagingApiAPI(req.Token)
	if err != nil {
		return "", apperrors.NewDeployError("create", "invalid channel token", err)
	}
	blob, err := messaging_api.NewMessagingApiBlobAPI(req.Token)
	if err != nil {
		return "", apperrors.NewDeployError("upload", "invalid channel token", err)
	}

	created, err := api.CreateRichMenu(request)
	if err != nil {
		c.log.WithError(err).Warn("Rich menu creation rejected")
		return "", apperrors.NewDeployError("create", "LINE rejected the rich menu config", err)
	}
	richMenuID := created.RichMenuId

	contentType := req.ImageMimeType
	if contentType == "" {
		contentType = "image/png"
	}
	if _, err := blob.SetRichMenuImage(richMenuID, contentType, bytes.NewReader(image)); err != nil {
		c.log.WithError(err).WithField("rich_menu_id", richMenuID).Warn("Rich menu image upload failed")
		return "", apperrors.NewDeployError("upload", "LINE rejected the rich menu image", err)
	}

	if _, err := api.SetDefaultRichMenu(richMenuID); err != nil {
		c.log.WithError(err).WithField("rich_menu_id", richMenuID).Warn("Setting default rich menu failed")
		return "", apperrors.NewDeployError("activate", "could not set the menu as default", err)
	}

	c.log.WithField("rich_menu_id", richMenuID).Info("Rich menu deployed")
	return richMenuID, nil
}

// toRichMenuRequest converts the wire-format configuration into the SDK
// request model.
func toRichMenuRequest(cfg richmenu.Config) (*messaging_api.RichMenuRequest, error) {
	areas := make([]messaging_api.RichMenuArea, 0, len(cfg.Areas))
	for i, area := range cfg.Areas {
		action, err := toAction(area.Action)
		if err != nil {
			return nil, fmt.Errorf("area %d: %w", i, err)
		}
		areas = append(areas, messaging_api.RichMenuArea{
			Bounds: &messaging_api.RichMenuBounds{
				X:      int64(area.Bounds.X),
				Y:      int64(area.Bounds.Y),
				Width:  int64(area.Bounds.Width),
				Height: int64(area.Bounds.Height),
			},
			Action: action,
		})
	}

	return &messaging_api.RichMenuRequest{
		Size: &messaging_api.RichMenuSize{
			Width:  int64(cfg.Size.Width),
			Height: int64(cfg.Size.Height),
		},
		Selected:    cfg.Selected,
		Name:        cfg.Name,
		ChatBarText: cfg.ChatBarText,
		Areas:       areas,
	}, nil
}

func toAction(a richmenu.Action) (messaging_api.ActionInterface, error) {
	switch a.Type {
	case "message":
		return &messaging_api.MessageAction{Label: a.Label, Text: a.Text}, nil
	case "uri":
		return &messaging_api.UriAction{Label: a.Label, Uri: a.URI}, nil
	case "postback":
		return &messaging_api.PostbackAction{Label: a.Label, Data: a.Data}, nil
	default:
		return nil, fmt.Errorf("unsupported action type %q", a.Type)
	}
}
