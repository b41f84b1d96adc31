package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoInput is returned when neither a file nor piped stdin supplies text.
var ErrNoInput = errors.New("no input text; pass --file or pipe text on stdin")

// ReadInput returns the contents of path, or of stdin when path is empty or
// "-". A terminal stdin is not read.
func ReadInput(path string, stdin io.Reader) (string, error) {
	if path != "" && path != "-" {
		resolved, err := ResolvePath(path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s; %w", path, err)
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return "", fmt.Errorf("failed to read %s; %w", resolved, err)
		}
		return string(data), nil
	}

	if f, ok := stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "", ErrNoInput
		}
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin; %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", ErrNoInput
	}
	return string(data), nil
}
