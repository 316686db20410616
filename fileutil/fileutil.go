package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/duke-git/lancet/v2/fileutil"
)

// ResolveTarget checks that fp names an existing regular file and returns its absolute path.
func ResolveTarget(fp string) (string, error) {
	if !fileutil.IsExist(fp) {
		return "", fmt.Errorf("file does not exist: %s: %w", fp, os.ErrNotExist)
	}
	if fileutil.IsDir(fp) {
		return "", fmt.Errorf("%s is a directory, not a file", fp)
	}
	absFp, err := filepath.Abs(fp)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return absFp, nil
}

// Overwrite replaces the whole content of fp, creating it when missing.
func Overwrite(fp string, content string) error {
	return fileutil.WriteStringToFile(fp, content, false)
}
