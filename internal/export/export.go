// Package export turns extracted text into side effects: the system
// clipboard and plain-text files on disk.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
)

// DefaultFilename is the name used for saved transcripts when the caller
// does not pick one.
const DefaultFilename = "extracted_text.txt"

// CopyToClipboard writes text to the system clipboard. Failure is surfaced
// to the caller but is never fatal to the workflow.
func CopyToClipboard(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}

// SaveTranscript materializes text as a plain-text file under dir and
// returns the path written. An existing file with the same name is not
// overwritten; a numeric suffix is added instead.
func SaveTranscript(text, dir, filename string) (string, error) {
	if filename == "" {
		filename = DefaultFilename
	}
	if dir == "" {
		dir = "."
	}

	path, err := uniquePath(dir, filename)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}

	return path, nil
}

// uniquePath returns dir/filename, or dir/name (n).ext for the first free n.
func uniquePath(dir, filename string) (string, error) {
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for i := 1; i < 1000; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no free filename for %s in %s", filename, dir)
}
