package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

var ErrEmpty = errors.New("nothing to copy")

// Available reports whether a system clipboard backend was found.
func Available() bool {
	return !clipboard.Unsupported
}

// WriteAll copies text to the system clipboard.
func WriteAll(text string) error {
	if text == "" {
		return ErrEmpty
	}
	return clipboard.WriteAll(text)
}

// Equals reports whether the clipboard currently holds exactly text.
// Read failures count as a mismatch.
func Equals(text string) bool {
	current, err := clipboard.ReadAll()
	if err != nil {
		return false
	}
	return current == text
}
