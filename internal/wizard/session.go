package wizard

import (
	"sync"
	"time"

	apperrors "github.com/punnathat/richmenu-studio-go/internal/errors"
	"github.com/punnathat/richmenu-studio-go/internal/richmenu"
)

// AuthStatus is the tri-state outcome of the entitlement gate.
type AuthStatus int

const (
	// AuthUnknown means the gate has not answered yet.
	AuthUnknown AuthStatus = iota
	// AuthGranted means the gate allowed access.
	AuthGranted
	// AuthDenied means the gate denied access or could not be reached.
	AuthDenied
)

func (s AuthStatus) String() string {
	switch s {
	case AuthGranted:
		return "granted"
	case AuthDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Authorization is the gate verdict plus its user-facing message.
type Authorization struct {
	Status  AuthStatus
	Message string
}

// Profile is the LIFF login identity of the wizard user.
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
}

// AccountInfo is the verified LINE Official Account the menu deploys to.
type AccountInfo struct {
	UserID      string `json:"userId"`
	BasicID     string `json:"basicId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
}

// Asset is an uploaded menu image. Assets are session scoped; replacing the
// image releases the previous asset.
type Asset struct {
	Filename string
	MimeType string
	Data     []byte

	released bool
}

// Release marks the asset as no longer referenced and drops its bytes.
func (a *Asset) Release() {
	a.released = true
	a.Data = nil
}

// Released reports whether the asset has been released.
func (a *Asset) Released() bool {
	return a.released
}

// Session holds the full wizard state for one browser page session.
// All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	lastSeen  time.Time

	step    Step
	profile *Profile
	auth    Authorization
	account *AccountInfo
	token   string
	code    string

	layoutText string
	layout     richmenu.ValidationResult

	asset *Asset

	deploying  bool
	richMenuID string
}

func newSession(id string, now time.Time) *Session {
	text, err := richmenu.Encode(richmenu.Default())
	if err != nil {
		// Default() always marshals; reaching here is a programming error.
		panic(err)
	}

	return &Session{
		id:         id,
		createdAt:  now,
		lastSeen:   now,
		step:       StepAuth,
		layoutText: text,
		layout:     richmenu.Validate(text),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// guard forces the wizard back to the auth step whenever the identity is
// gone or the gate has denied access. It must be called with the lock held,
// after every mutation of profile or authorization.
func (s *Session) guard() {
	if s.step == StepAuth {
		return
	}
	if s.profile == nil || s.auth.Status == AuthDenied {
		s.step = StepAuth
	}
}

// Step returns the current wizard step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Advance moves one step forward, clamped at launch. The machine itself does
// not check step preconditions; callers gate before advancing.
func (s *Session) Advance() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = s.step.Next()
	return s.step
}

// Retreat moves one step back, clamped at auth. Retreating is always allowed.
func (s *Session) Retreat() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = s.step.Prev()
	return s.step
}

// SetProfile stores or clears the LIFF identity.
func (s *Session) SetProfile(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
	s.guard()
}

// SetAuthorization stores the gate verdict.
func (s *Session) SetAuthorization(a Authorization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = a
	s.guard()
}

// SetAccount stores the verified OA identity and the channel token that
// verified it.
func (s *Session) SetAccount(info *AccountInfo, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = info
	s.token = token
}

// SetCode stores the one-time access code carried in from the entry URL.
func (s *Session) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

// SetLayout stores new layout text and returns its validation result.
// The text is kept even when invalid so the user can keep editing.
func (s *Session) SetLayout(text string) richmenu.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layoutText = text
	s.layout = richmenu.Validate(text)
	return s.layout
}

// ReplaceAsset stores a new image and releases the previous one.
func (s *Session) ReplaceAsset(a *Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.asset != nil {
		s.asset.Release()
	}
	s.asset = a
}

// Asset returns the current image, or nil.
func (s *Session) Asset() *Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asset
}

// BeginDeploy marks a deployment as in flight. A second call before
// EndDeploy fails with ErrDeployInFlight; there is no automatic retry, so
// the flag is the only duplicate-submission protection needed.
func (s *Session) BeginDeploy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deploying {
		return apperrors.ErrDeployInFlight
	}
	s.deploying = true
	return nil
}

// EndDeploy clears the in-flight flag and records the created menu ID on
// success.
func (s *Session) EndDeploy(richMenuID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deploying = false
	if richMenuID != "" {
		s.richMenuID = richMenuID
	}
}

// CanAdvance reports whether the current step's precondition is satisfied.
func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepAuth:
		return s.profile != nil && s.auth.Status == AuthGranted && s.account != nil
	case StepLayout:
		return s.layout.Valid
	case StepAsset:
		return s.asset != nil
	default:
		return true
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen) > ttl
}

// State is an immutable snapshot of a session for API responses.
type State struct {
	ID            string                    `json:"id"`
	Step          string                    `json:"step"`
	StepIndex     int                       `json:"stepIndex"`
	Profile       *Profile                  `json:"profile,omitempty"`
	Authorization string                    `json:"authorization"`
	AuthMessage   string                    `json:"authMessage,omitempty"`
	Account       *AccountInfo              `json:"account,omitempty"`
	LayoutText    string                    `json:"layoutText"`
	Layout        richmenu.ValidationResult `json:"layout"`
	HasImage      bool                      `json:"hasImage"`
	ImageName     string                    `json:"imageName,omitempty"`
	Code          string                    `json:"code,omitempty"`
	Deploying     bool                      `json:"deploying"`
	RichMenuID    string                    `json:"richMenuId,omitempty"`
}

// Snapshot returns the session state for rendering. The channel token and
// image bytes never leave the server.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ID:            s.id,
		Step:          s.step.String(),
		StepIndex:     int(s.step),
		Profile:       s.profile,
		Authorization: s.auth.Status.String(),
		AuthMessage:   s.auth.Message,
		Account:       s.account,
		LayoutText:    s.layoutText,
		Layout:        s.layout,
		Code:          s.code,
		Deploying:     s.deploying,
		RichMenuID:    s.richMenuID,
	}
	if s.asset != nil {
		st.HasImage = true
		st.ImageName = s.asset.Filename
	}
	return st
}

// Token returns the verified channel token, empty until verification.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Code returns the one-time access code.
func (s *Session) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Profile returns the LIFF identity, or nil.
func (s *Session) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// LayoutText returns the current layout text.
func (s *Session) LayoutText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layoutText
}

// LayoutValid reports whether the current layout text parses.
func (s *Session) LayoutValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout.Valid
}
