package capture

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/1broseidon/shotty/internal/logger"
	"github.com/1broseidon/shotty/internal/sessionbus"
)

// Rect is a window rectangle in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Valid reports whether the rectangle has a positive area.
func (r Rect) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// Geometry renders the rectangle the way grim -g expects: "x,y wxh".
func (r Rect) Geometry() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// ImageMagick renders the rectangle as a crop geometry: "wxh+x+y".
func (r Rect) ImageMagick() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Image returns the rectangle as an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// WindowLister lists windows from the shell extension.
type WindowLister interface {
	List(ctx context.Context) ([]sessionbus.Window, error)
}

// GeometryResolver maps a window id to its rectangle.
type GeometryResolver struct {
	shell WindowLister
}

// NewGeometryResolver returns a resolver backed by shell.
func NewGeometryResolver(shell WindowLister) *GeometryResolver {
	return &GeometryResolver{shell: shell}
}

// Resolve looks up windowID in the current window list. It never fails: any
// lookup problem is logged and reported as ok=false.
func (g *GeometryResolver) Resolve(ctx context.Context, windowID string) (Rect, bool) {
	log := logger.WithComponent("geometry")
	id := strings.TrimSpace(windowID)

	windows, err := g.shell.List(ctx)
	if err != nil {
		log.Debug().Err(err).Str("window_id", id).Msg("Window list unavailable")
		return Rect{}, false
	}

	for _, w := range windows {
		if w.IDString() != id {
			continue
		}
		b := w.Bounds()
		r := Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
		if !r.Valid() {
			log.Debug().Str("window_id", id).Msg("Window has no geometry")
			return Rect{}, false
		}
		return r, true
	}

	log.Debug().Str("window_id", id).Int("windows", len(windows)).Msg("Window not found")
	return Rect{}, false
}
