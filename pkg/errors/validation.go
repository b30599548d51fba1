package errors

import (
	"os"
	"path/filepath"
	"unicode"
)

// ValidateOutputPath checks that path can be created or overwritten.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - The parent directory must already exist
//
// Missing directories are never created; writers only create or truncate the
// file itself.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return New(ErrCodeFileNotFound, "output directory %s does not exist", dir)
		}
		return Wrap(ErrCodeInvalidPath, err, "stat %s", dir)
	}
	if !info.IsDir() {
		return New(ErrCodeInvalidPath, "%s is not a directory", dir)
	}
	return nil
}
