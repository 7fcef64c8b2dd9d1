package x11

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xgraphics"
)

// ErrEmptyRegion is returned when a requested region does not overlap the
// root window.
var ErrEmptyRegion = errors.New("region outside the screen")

// Grab copies the whole root window.
func (c *Connection) Grab() (image.Image, error) {
	img, err := xgraphics.NewDrawable(c.XUtil, xproto.Drawable(c.Root))
	if err != nil {
		return nil, fmt.Errorf("grab root window: %w", err)
	}
	return img, nil
}

// GrabRegion copies the part of the root window inside r. r is clipped to
// the screen.
func (c *Connection) GrabRegion(r image.Rectangle) (image.Image, error) {
	img, err := c.Grab()
	if err != nil {
		return nil, err
	}
	return crop(img, r)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func crop(img image.Image, r image.Rectangle) (image.Image, error) {
	clipped := r.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("%w: %v not in %v", ErrEmptyRegion, r, img.Bounds())
	}
	if si, ok := img.(subImager); ok {
		return si.SubImage(clipped), nil
	}
	out := image.NewRGBA(image.Rect(0, 0, clipped.Dx(), clipped.Dy()))
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			out.Set(x-clipped.Min.X, y-clipped.Min.Y, img.At(x, y))
		}
	}
	return out, nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// WritePNG writes img to path as PNG.
func WritePNG(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	return f.Close()
}
