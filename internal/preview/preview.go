// Package preview computes the phone-mockup geometry for a rich menu
// configuration. The mockup is a fixed 300-unit wide canvas; every area is
// scaled into it so the client can overlay tap regions on the uploaded image.
package preview

import "github.com/punnathat/richmenu-studio-go/internal/richmenu"

// MockupWidth is the fixed width of the rendered mockup in layout units.
const MockupWidth = 300

// Fallback canvas dimensions used when the configuration omits a size,
// matching the large rich menu template.
const (
	FallbackWidth  = 2500
	FallbackHeight = 1686
)

// Rect is a scaled area rectangle positioned inside the mockup.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Mockup is the scaled preview of a rich menu.
type Mockup struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
	Areas  []Rect  `json:"areas"`
}

// Render scales the configuration into a mockup. Areas are emitted in
// configuration order and are not clipped to the canvas; out-of-bounds
// rectangles render out of bounds, which is itself useful feedback.
func Render(cfg richmenu.Config) Mockup {
	width := cfg.Size.Width
	if width <= 0 {
		width = FallbackWidth
	}
	height := cfg.Size.Height
	if height <= 0 {
		height = FallbackHeight
	}

	scale := float64(MockupWidth) / float64(width)

	areas := make([]Rect, 0, len(cfg.Areas))
	for _, area := range cfg.Areas {
		areas = append(areas, Rect{
			Left:   float64(area.Bounds.X) * scale,
			Top:    float64(area.Bounds.Y) * scale,
			Width:  float64(area.Bounds.Width) * scale,
			Height: float64(area.Bounds.Height) * scale,
		})
	}

	return Mockup{
		Width:  MockupWidth,
		Height: float64(height) * scale,
		Scale:  scale,
		Areas:  areas,
	}
}
