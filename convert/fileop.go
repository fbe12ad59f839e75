package convert

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// checkDest fails when dest exists, unless overwrite is set and dest is a
// regular file.
func checkDest(dest string, overwrite bool) error {
	info, err := os.Stat(dest)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cannot stat destination file %q: %w", dest, err)
		}
		return nil
	}
	if !overwrite {
		return fmt.Errorf("destination file already exists: %q", info.Name())
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("cannot replace non-regular file %q: %s", info.Name(), info.Mode().String())
	}
	return nil
}

// save writes dest through a temporary file in the same folder, renamed into
// place only once write succeeded and the data is synced.
func save(dest string, overwrite bool, write func(io.Writer) error) (err error) {
	if err := checkDest(dest, overwrite); err != nil {
		return err
	}

	dir, name := filepath.Split(dest)
	outFile, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", name, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", name, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", name, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), dest); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", name, defErr)
			}
		}
		if err != nil {
			if rmErr := os.Remove(outFile.Name()); rmErr != nil {
				slog.Error("could not remove temporary destination", "name", outFile.Name(), "error", rmErr)
			}
		}
	}()

	if err = write(outFile); err != nil {
		return err
	}

	canRename = true
	return nil
}
