// Package richmenu defines the LINE rich menu configuration model and the
// JSON layout validator used by the wizard's layout step.
package richmenu

import "encoding/json"

// Size is the rich menu canvas size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Bounds is a tappable rectangle inside the canvas.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Action is the action fired when an area is tapped.
// Type is one of "message", "uri" or "postback"; the remaining fields
// are populated depending on the type.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	Text  string `json:"text,omitempty"`
	URI   string `json:"uri,omitempty"`
	Data  string `json:"data,omitempty"`
}

// Area pairs a bounds rectangle with its action.
type Area struct {
	Bounds Bounds `json:"bounds"`
	Action Action `json:"action"`
}

// Config is the full rich menu configuration in LINE wire format.
type Config struct {
	Size        Size   `json:"size"`
	Selected    bool   `json:"selected"`
	Name        string `json:"name"`
	ChatBarText string `json:"chatBarText"`
	Areas       []Area `json:"areas"`
}

// Default returns the starter configuration every new wizard session begins
// with: a large 2500x1686 menu split into two columns.
func Default() Config {
	return Config{
		Size:        Size{Width: 2500, Height: 1686},
		Selected:    true,
		Name:        "My New Rich Menu",
		ChatBarText: "Open Menu",
		Areas: []Area{
			{
				Bounds: Bounds{X: 0, Y: 0, Width: 1250, Height: 1686},
				Action: Action{Type: "message", Label: "Button 1", Text: "Hello from Button 1"},
			},
			{
				Bounds: Bounds{X: 1250, Y: 0, Width: 1250, Height: 1686},
				Action: Action{Type: "uri", Label: "Button 2", URI: "https://line.me"},
			},
		},
	}
}

// Encode renders a configuration as two-space indented JSON, the format the
// layout editor presents to the user.
func Encode(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses layout text into a configuration.
func Decode(text string) (Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(text), &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
