package bmp

import (
	"fmt"
	"log/slog"
	"os"

	"bmp24/raster"
)

// Save encodes img into the file at path, creating or truncating it.
func Save(path string, img Source) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create bitmap %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close bitmap %q: %w", path, &WriteError{Section: "file", Err: closeErr})
		}
	}()

	if err = Encode(f, img); err != nil {
		return fmt.Errorf("could not encode bitmap %q: %w", path, err)
	}
	return nil
}

// Load decodes the bitmap stored at path.
func Load(path string) (*raster.Image, error) {
	return Decoder{}.Load(path)
}

func (d Decoder) Load(path string) (*raster.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open bitmap %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close bitmap", "file", path, "error", closeErr)
		}
	}()

	img, err := d.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode bitmap %q: %w", path, err)
	}
	return img, nil
}

// SaveBMP is Save reporting only success. Failures are logged.
func SaveBMP(path string, img Source) bool {
	if err := Save(path, img); err != nil {
		slog.Error("could not save bitmap", "file", path, "error", err)
		return false
	}
	return true
}

// LoadBMP is Load returning an empty image on failure. Failures are logged.
func LoadBMP(path string) *raster.Image {
	img, err := Load(path)
	if err != nil {
		slog.Error("could not load bitmap", "file", path, "error", err)
		return &raster.Image{}
	}
	return img
}
