package convert

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/alecthomas/kong"

	"bmp24/bmp"
	"bmp24/parallel"
)

type BatchParams struct {
	Scan      string  `help:"Source folder to scan" default:"."`
	Filter    string  `help:"Only convert images matching this expression, e.g. 'width >= 64 && pixels < 4e6'"`
	Overwrite bool    `help:"Replace existing destination files" default:"false"`
	Matcher   *Filter `kong:"-"`
}

func (p *BatchParams) validate(dest *string) error {
	scanDir, err := filepath.Abs(p.Scan)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid scan path %q: %w", p.Scan, err)
	}
	p.Scan = scanDir

	if !filepath.IsAbs(*dest) {
		*dest = filepath.Join(scanDir, *dest)
	}

	p.Matcher, err = NewFilter(p.Filter)
	return err
}

// convertFunc converts the file src into dest, reporting false when the
// filter skipped it.
type convertFunc func(logger *slog.Logger, src, dest string) (bool, error)

func (p *BatchParams) run(pool *parallel.Pool, destDir, ext string, convert convertFunc) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", destDir, err)
	}

	files, err := os.ReadDir(p.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", p.Scan, err)
	}

	var skipped atomic.Uint64
	for _, file := range files {
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
			continue
		}

		src := filepath.Join(p.Scan, file.Name())
		name := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		dest := filepath.Join(destDir, name+"."+ext)

		pool.Do(func() error {
			logger := slog.Default().With("file", src)
			converted, err := convert(logger, src, dest)
			if err != nil {
				logger.Error("could not convert image", "to", dest, "error", err)
				return err
			}
			if !converted {
				skipped.Add(1)
				logger.Debug("skipped by filter", "filter", p.Matcher.String())
			}
			return nil
		})
	}

	done, failed := pool.Wait()
	slog.Info("stats", "processed", done-skipped.Load(), "skipped", skipped.Load(), "errors", failed,
		"total", done+failed)

	if failed > 0 {
		return fmt.Errorf("error processing %d files", failed)
	}
	return nil
}

// EncodeCmd converts every image in a folder into a 24-bit bitmap.
type EncodeCmd struct {
	BatchParams
	Dest   string `help:"Destination folder for bitmaps. Relative to scan dir if not absolute." default:"bmp"`
	Width  int    `help:"Max width, keeping aspect ratio" group:"resize"`
	Height int    `help:"Max height, keeping aspect ratio" group:"resize"`
}

func (c *EncodeCmd) Validate(kctx *kong.Context) error {
	switch {
	case c.Width < 0:
		return fmt.Errorf("invalid resize width: %d", c.Width)
	case c.Height < 0:
		return fmt.Errorf("invalid resize height: %d", c.Height)
	}
	return c.BatchParams.validate(&c.Dest)
}

func (c *EncodeCmd) Run(pool *parallel.Pool) error {
	return c.run(pool, c.Dest, "bmp", c.encode)
}

func (c *EncodeCmd) encode(logger *slog.Logger, src, dest string) (bool, error) {
	f, err := os.Open(src)
	if err != nil {
		return false, fmt.Errorf("could not open image: %w", err)
	}
	defer closeLogged(logger, f)

	imgConf, imgType, err := image.DecodeConfig(f)
	if err != nil {
		return false, fmt.Errorf("could not read image: %w", err)
	}
	if ok, err := c.Matcher.Match(imgConf.Width, imgConf.Height); !ok || err != nil {
		return false, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("could not rewind image: %w", err)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return false, fmt.Errorf("could not decode %s image: %w", imgType, err)
	}
	img = fit(logger, img, c.Width, c.Height)

	err = save(dest, c.Overwrite, func(w io.Writer) error {
		return bmp.EncodeImage(w, img)
	})
	return err == nil, err
}

// DecodeCmd converts every 24-bit bitmap in a folder into another format.
type DecodeCmd struct {
	BatchParams
	Dest      string `help:"Destination folder for decoded images. Relative to scan dir if not absolute." default:"decoded"`
	Format    string `help:"Output format. bmp rewrites bitmaps with standard 54-byte headers." enum:"png,jpeg,gif,tiff,bmp" default:"png"`
	MaxPixels int    `help:"Refuse bitmaps with more pixels than this; 0 for no limit" default:"0"`
}

func (c *DecodeCmd) Validate(kctx *kong.Context) error {
	if c.MaxPixels < 0 {
		return fmt.Errorf("invalid pixel limit: %d", c.MaxPixels)
	}
	if _, ok := encoders[c.Format]; !ok {
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}
	return c.BatchParams.validate(&c.Dest)
}

func (c *DecodeCmd) Run(pool *parallel.Pool) error {
	return c.run(pool, c.Dest, c.Format, c.decode)
}

func (c *DecodeCmd) decode(logger *slog.Logger, src, dest string) (bool, error) {
	f, err := os.Open(src)
	if err != nil {
		return false, fmt.Errorf("could not open bitmap: %w", err)
	}
	defer closeLogged(logger, f)

	dec := bmp.Decoder{MaxPixels: c.MaxPixels}
	hdr, err := dec.DecodeConfig(f)
	if err != nil {
		return false, err
	}
	if ok, err := c.Matcher.Match(hdr.Width(), hdr.Height()); !ok || err != nil {
		return false, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("could not rewind bitmap: %w", err)
	}

	img, err := dec.Decode(f)
	if err != nil {
		return false, err
	}

	err = save(dest, c.Overwrite, func(w io.Writer) error {
		return encoders[c.Format](w, img)
	})
	return err == nil, err
}

func closeLogged(logger *slog.Logger, f *os.File) {
	if err := f.Close(); err != nil {
		logger.Error("could not close source file", "error", err)
	}
}
