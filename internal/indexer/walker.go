package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dicom-viewer/internal/logging"
)

// ErrRootNotDirectory is returned when a scan root exists but is not a
// directory.
var ErrRootNotDirectory = errors.New("scan root is not a directory")

// checkRoot reports whether root exists. A missing root is not an error;
// a root that is not a directory is.
func checkRoot(root string) (bool, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat scan root: %w", err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%w: %s", ErrRootNotDirectory, root)
	}
	return true, nil
}

// WalkFiles calls fn for every regular file under root. Symbolic links are
// not followed. Unreadable entries are logged and skipped. A missing root
// yields no files and no error. Traversal order is unspecified.
func WalkFiles(ctx context.Context, root string, skipHidden bool, fn func(path string) error) error {
	exists, err := checkRoot(root)
	if err != nil || !exists {
		return err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if skipHidden && path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		return fn(path)
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", root, err)
	}
	return nil
}
