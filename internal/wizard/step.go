// Package wizard implements the four-step rich menu wizard: session state,
// the step machine and the in-memory session store.
package wizard

// Step is the wizard position. Steps are strictly ordered; Advance and
// Retreat clamp at the ends instead of wrapping.
type Step int

const (
	// StepAuth verifies the LIFF login and the entitlement gate.
	StepAuth Step = iota
	// StepLayout edits and validates the rich menu JSON.
	StepLayout
	// StepAsset uploads the menu image.
	StepAsset
	// StepLaunch reviews the preview and deploys.
	StepLaunch
)

func (s Step) String() string {
	switch s {
	case StepAuth:
		return "auth"
	case StepLayout:
		return "layout"
	case StepAsset:
		return "asset"
	case StepLaunch:
		return "launch"
	default:
		return "unknown"
	}
}

// Next returns the following step, clamped at StepLaunch.
func (s Step) Next() Step {
	if s >= StepLaunch {
		return StepLaunch
	}
	return s + 1
}

// Prev returns the preceding step, clamped at StepAuth.
func (s Step) Prev() Step {
	if s <= StepAuth {
		return StepAuth
	}
	return s - 1
}
