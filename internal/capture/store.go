package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Decoders for artifacts written by tools that ignore the extension.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FormatPNG is the only format handed to callers.
const FormatPNG = "png"

// Image is a captured artifact.
type Image struct {
	Data   []byte
	Format string
	Path   string
}

// Store names, reads and normalizes capture artifacts. Files are kept after
// they are returned.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a store writing into dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir is the capture directory.
func (s *Store) Dir() string { return s.dir }

// FullPath returns a fresh path for a full-screen capture.
func (s *Store) FullPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("screenshot_full_%d.png", s.now().Unix()))
}

// WindowPath returns a fresh path for a capture of window id.
func (s *Store) WindowPath(id string) string {
	return filepath.Join(s.dir, fmt.Sprintf("screenshot_window_%s_%d.png", SanitizeID(id), s.now().Unix()))
}

// SanitizeID keeps [A-Za-z0-9_-] and replaces everything else with '_'.
func SanitizeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Load reads the artifact at path. Anything that is not PNG is re-encoded
// and written back so the file on disk matches what is returned.
func (s *Store) Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("artifact is empty")
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unrecognized artifact format: %w", err)
	}
	if format != FormatPNG {
		data, err = toPNG(data)
		if err != nil {
			return nil, fmt.Errorf("convert %s artifact: %w", format, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("rewrite artifact: %w", err)
		}
	}
	return &Image{Data: data, Format: FormatPNG, Path: path}, nil
}

func toPNG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
