package video

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/valerio/jeebie-shelf/shelf/fileio"
)

// SavePNG encodes img as PNG at path. The file appears atomically, so a
// concurrent reader sees either the previous image or the new one.
func SavePNG(img image.Image, path string) error {
	if img == nil {
		return fmt.Errorf("no frame data available for %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	err := fileio.WriteAtomic(path, func(w io.Writer) error {
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode PNG: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	b := img.Bounds()
	slog.Debug("PNG saved", "path", path, "size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))
	return nil
}
