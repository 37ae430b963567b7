package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/punnathat/richmenu-studio-go/internal/archive"
	"github.com/punnathat/richmenu-studio-go/internal/ctxutil"
	apperrors "github.com/punnathat/richmenu-studio-go/internal/errors"
	"github.com/punnathat/richmenu-studio-go/internal/preview"
	"github.com/punnathat/richmenu-studio-go/internal/richmenu"
	"github.com/punnathat/richmenu-studio-go/internal/sentry"
	"github.com/punnathat/richmenu-studio-go/internal/storage"
	"github.com/punnathat/richmenu-studio-go/internal/studio"
	"github.com/punnathat/richmenu-studio-go/internal/wizard"
)

// User-facing messages for the deployment path.
const (
	msgMissingDeployInputs = "Missing Channel Access Token or Image."
	msgDeployInFlight      = "A deployment is already in progress."
	msgGatewayUnreachable  = "Unable to reach the deployment service. Please try again later."
)

// session resolves the :id path parameter and annotates the request context
// with session and user IDs for log correlation. Writes the 404 itself.
func (a *Application) session(c *gin.Context) (*wizard.Session, bool) {
	s, err := a.sessions.Get(c.Param("id"))
	if err != nil {
		a.metrics.RecordHTTPError("not_found", "sessions")
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}

	ctx := ctxutil.WithSessionID(c.Request.Context(), s.ID())
	if p := s.Profile(); p != nil {
		ctx = ctxutil.WithUserID(ctx, p.UserID)
	}
	c.Request = c.Request.WithContext(ctx)
	return s, true
}

// limitKey identifies a caller for rate limiting: the LIFF user when known,
// the session otherwise.
func limitKey(s *wizard.Session) string {
	if p := s.Profile(); p != nil && p.UserID != "" {
		return p.UserID
	}
	return s.ID()
}

type createSessionRequest struct {
	Profile *wizard.Profile `json:"profile"`
	Code    string          `json:"code"`
}

func (a *Application) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		a.metrics.RecordHTTPError("bad_request", "sessions")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s := a.sessions.Create()
	a.metrics.RecordSessionCreated()

	if req.Code != "" {
		s.SetCode(req.Code)
	}
	if req.Profile != nil {
		s.SetProfile(req.Profile)
		auth := a.gate.Check(c.Request.Context(), *req.Profile, req.Code)
		s.SetAuthorization(auth)
	}

	c.JSON(http.StatusCreated, s.Snapshot())
}

func (a *Application) getSession(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Application) deleteSession(c *gin.Context) {
	a.sessions.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// stepBlockedMessage explains which precondition holds the wizard back.
func stepBlockedMessage(step wizard.Step) string {
	switch step {
	case wizard.StepAuth:
		return "Sign in and verify your account before continuing."
	case wizard.StepLayout:
		return "Fix the rich menu JSON before continuing."
	case wizard.StepAsset:
		return "Upload a menu image before continuing."
	default:
		return "Cannot advance from this step."
	}
}

func (a *Application) advanceSession(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}

	if !s.CanAdvance() {
		a.metrics.RecordHTTPError("step_blocked", "sessions")
		c.JSON(http.StatusConflict, gin.H{
			"error": stepBlockedMessage(s.Step()),
			"state": s.Snapshot(),
		})
		return
	}

	s.Advance()
	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Application) retreatSession(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	s.Retreat()
	c.JSON(http.StatusOK, s.Snapshot())
}

type tokenRequest struct {
	Token        string `json:"token"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

func (a *Application) verifyToken(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Token == "" && (req.ClientID == "" || req.ClientSecret == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token or clientId and clientSecret required"})
		return
	}

	if !a.userLimiter.Allow(limitKey(s)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	ctx := c.Request.Context()
	var v studio.TokenVerification
	var err error
	if req.Token != "" {
		v, err = a.studio.VerifyToken(ctx, req.Token)
	} else {
		v, err = a.studio.VerifyChannelCredentials(ctx, req.ClientID, req.ClientSecret)
	}

	if (err != nil || !v.Success) && studio.TokenShaped(req.Token) {
		// Verification did not come through but the token at least looks
		// real: the wizard stays explorable with a degraded identity.
		account := studio.PreviewModeAccount()
		s.SetAccount(account, req.Token)
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"previewMode": true,
			"account":     account,
			"state":       s.Snapshot(),
		})
		return
	}

	if err != nil {
		a.log.WithModule("app").WithError(err).WarnContext(ctx, "Token verification failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "Unable to verify token. Please try again later.",
		})
		return
	}

	if !v.Success {
		message := v.Message
		if message == "" {
			message = "Invalid channel credentials."
		}
		c.JSON(http.StatusOK, gin.H{"success": false, "message": message})
		return
	}

	token := v.Token
	if token == "" {
		token = req.Token
	}
	account := studio.AccountFromVerification(v)
	s.SetAccount(account, token)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"account": account,
		"state":   s.Snapshot(),
	})
}

type layoutRequest struct {
	Text string `json:"text"`
}

func (a *Application) updateLayout(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}

	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result := s.SetLayout(req.Text)
	a.metrics.RecordValidation(result.Valid)

	c.JSON(http.StatusOK, gin.H{"layout": result, "state": s.Snapshot()})
}

func (a *Application) autofixLayout(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}

	if a.fixer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "layout repair is not configured"})
		return
	}

	if !a.llmLimiter.Allow(limitKey(s)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many repair requests, try again later"})
		return
	}

	fixed, provider, err := a.fixer.Fix(c.Request.Context(), s.LayoutText())
	if err != nil {
		a.metrics.RecordAutofix("none", "error")
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not repair the layout"})
		return
	}
	a.metrics.RecordAutofix(provider, "success")

	result := s.SetLayout(fixed)
	a.metrics.RecordValidation(result.Valid)

	c.JSON(http.StatusOK, gin.H{
		"text":     fixed,
		"provider": provider,
		"layout":   result,
		"state":    s.Snapshot(),
	})
}

type assetRequest struct {
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
	Data     string `json:"data"`
}

func (a *Application) updateAsset(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}

	var req assetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Data == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image data is required"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image data must be base64 encoded"})
		return
	}
	if int64(len(data)) > a.cfg.MaxImageBytes {
		a.metrics.RecordHTTPError("image_too_large", "sessions")
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("image exceeds the %d byte limit", a.cfg.MaxImageBytes),
		})
		return
	}

	s.ReplaceAsset(&wizard.Asset{
		Filename: req.Filename,
		MimeType: req.Mimetype,
		Data:     data,
	})

	c.JSON(http.StatusOK, s.Snapshot())
}

func (a *Application) previewSession(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}

	cfg, err := richmenu.Decode(s.LayoutText())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "layout is not valid JSON"})
		return
	}

	c.JSON(http.StatusOK, preview.Render(cfg))
}

func (a *Application) deploySession(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}

	if !a.userLimiter.Allow(limitKey(s)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	if !s.LayoutValid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Rich menu layout is not valid JSON.",
		})
		return
	}

	if err := s.BeginDeploy(); err != nil {
		a.metrics.RecordHTTPError("deploy_in_flight", "sessions")
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": msgDeployInFlight})
		return
	}

	asset := s.Asset()
	req := studio.DeployRequest{
		Token:    s.Token(),
		RichMenu: json.RawMessage(s.LayoutText()),
		Code:     s.Code(),
	}
	if p := s.Profile(); p != nil {
		req.UserID = p.UserID
	}
	if asset != nil {
		req.ImageBase64 = base64.StdEncoding.EncodeToString(asset.Data)
		req.ImageMimeType = asset.MimeType
	}

	ctx := c.Request.Context()
	start := time.Now()
	richMenuID, err := a.submitter.Submit(ctx, req)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordDeployment(a.cfg.DeployMode, status, elapsed.Seconds())

	s.EndDeploy(richMenuID)

	// The precondition failure never reached the backend; everything else
	// is an attempt worth auditing.
	if !errors.Is(err, apperrors.ErrMissingDeployInputs) {
		a.recordDeployment(ctx, s, richMenuID, err, asset)
	}

	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrMissingDeployInputs):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgMissingDeployInputs})
		default:
			var depErr *apperrors.DeployError
			if errors.As(err, &depErr) {
				c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": depErr.Message})
				return
			}
			sentry.CaptureExceptionWithContext(ctx, err)
			a.log.WithModule("app").WithError(err).ErrorContext(ctx, "Deployment failed")
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": msgGatewayUnreachable})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"richMenuId": richMenuID,
		"state":      s.Snapshot(),
	})
}

// recordDeployment writes the audit row and, on success, archives the
// deployed layout and image. Both writes run concurrently on a detached
// context so client cancellation cannot lose the audit trail.
func (a *Application) recordDeployment(ctx context.Context, s *wizard.Session, richMenuID string, deployErr error, asset *wizard.Asset) {
	detached := ctxutil.PreserveTracing(ctx)

	id := uuid.NewString()
	status := "success"
	errText := ""
	if deployErr != nil {
		status = "error"
		errText = deployErr.Error()
	}

	var userID string
	if p := s.Profile(); p != nil {
		userID = p.UserID
	}

	var menuName string
	if cfg, err := richmenu.Decode(s.LayoutText()); err == nil {
		menuName = cfg.Name
	}

	row := storage.Deployment{
		ID:         id,
		SessionID:  s.ID(),
		UserID:     userID,
		RichMenuID: richMenuID,
		Mode:       a.cfg.DeployMode,
		Status:     status,
		Error:      errText,
		MenuName:   menuName,
	}
	if asset != nil {
		row.ImageBytes = int64(len(asset.Data))
	}

	g, gctx := errgroup.WithContext(detached)
	g.Go(func() error {
		dbCtx, cancel := context.WithTimeout(gctx, 5*time.Second)
		defer cancel()
		return a.db.RecordDeployment(dbCtx, row)
	})

	if a.archiver != nil && deployErr == nil {
		rec := archive.Record{
			DeploymentID: id,
			SessionID:    s.ID(),
			UserID:       userID,
			RichMenuID:   richMenuID,
			Mode:         a.cfg.DeployMode,
			MenuName:     menuName,
			CreatedAt:    time.Now(),
		}
		layout := []byte(s.LayoutText())
		var image []byte
		if asset != nil {
			rec.ImageMime = asset.MimeType
			image = asset.Data
		}
		g.Go(func() error {
			arcCtx, cancel := context.WithTimeout(gctx, 30*time.Second)
			defer cancel()
			return a.archiver.StoreDeployment(arcCtx, rec, layout, image)
		})
	}

	if err := g.Wait(); err != nil {
		a.log.WithModule("app").WithError(err).WarnContext(ctx, "Recording deployment failed")
	}
}

// listDeployments exposes the audit log: newest first, optionally filtered
// by user, capped by limit.
func (a *Application) listDeployments(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	ctx := c.Request.Context()
	rows, err := a.db.ListDeployments(ctx, c.Query("userId"), limit)
	if err != nil {
		a.log.WithModule("app").WithError(err).Error("Audit log query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load deployments"})
		return
	}

	total, err := a.db.CountDeployments(ctx)
	if err != nil {
		a.log.WithModule("app").WithError(err).Error("Audit log count failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load deployments"})
		return
	}

	if rows == nil {
		rows = []storage.Deployment{}
	}
	c.JSON(http.StatusOK, gin.H{"deployments": rows, "total": total})
}

func (a *Application) listBanks(c *gin.Context) {
	lists, err := a.studio.BankAccounts(c.Request.Context())
	if err != nil {
		a.log.WithModule("app").WithError(err).Warn("Bank account lookup failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load bank accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists})
}

type slipRequest struct {
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
	File     string `json:"file"`
	UserID   string `json:"userId"`
}

func (a *Application) verifySlip(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}

	var req slipRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.File == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slip file is required"})
		return
	}

	if !a.userLimiter.Allow(limitKey(s)) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	userID := req.UserID
	if p := s.Profile(); p != nil && p.UserID != "" {
		userID = p.UserID
	}

	ctx := c.Request.Context()
	result, err := a.studio.VerifySlip(ctx, req.Filename, req.Mimetype, req.File, userID)
	if err != nil {
		a.log.WithModule("app").WithError(err).WarnContext(ctx, "Slip verification failed")
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "Unable to verify slip. Please try again later.",
		})
		return
	}

	// A verified slip carries the one-time code that unlocks the gate.
	if result.Success && result.Code != "" {
		s.SetCode(result.Code)
		if p := s.Profile(); p != nil {
			s.SetAuthorization(a.gate.Check(ctx, *p, result.Code))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": result.Success,
		"message": result.Message,
		"code":    result.Code,
		"state":   s.Snapshot(),
	})
}
