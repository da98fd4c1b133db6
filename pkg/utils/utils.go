package utils

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the directory used for the local store when the
// config does not name one.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to a relative directory in the working tree.
		return ".quizclip"
	}
	return filepath.Join(home, ".quizclip")
}
