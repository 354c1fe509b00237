package harness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// CircuitNotFoundError is returned when a circuit directory doesn't exist.
type CircuitNotFoundError struct {
	Dir string
}

// Error implements the error interface.
func (e *CircuitNotFoundError) Error() string {
	return fmt.Sprintf("circuit directory %q does not exist", e.Dir)
}

// Discover returns the paths of all circuit descriptions (*.yaml, *.yml)
// under dir, sorted. A file path is returned as is.
func Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &CircuitNotFoundError{Dir: dir}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{dir}, nil
	}

	paths := []string{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover circuits in %s: %w", dir, err)
	}

	slices.Sort(paths)
	return paths, nil
}
