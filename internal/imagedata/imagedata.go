// Package imagedata turns local image files into data URLs that fit in a
// stored item document.
package imagedata

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/watchlist/internal/domain"
)

// MaxBytes caps the raw image size. Base64 grows it by a third and the
// result has to stay under the 1 MiB Firestore document limit.
const MaxBytes = 700 << 10

// Resolve returns the value to store as an item's imageUrl. Web and data
// URLs pass through; anything else is read as a local file path.
func Resolve(input string) (string, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return "", nil
	case strings.HasPrefix(input, "http://"), strings.HasPrefix(input, "https://"):
		return input, nil
	case strings.HasPrefix(input, "data:"):
		return FromDataURL(input)
	default:
		return FromFile(input)
	}
}

// FromDataURL checks a pasted data URL against the same type and size
// limits as a file and returns it unchanged.
func FromDataURL(input string) (string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(input, "data:"), ",")
	if !ok {
		return "", fmt.Errorf("malformed data URL")
	}
	mime, params, _ := strings.Cut(header, ";")
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: data URL holds %q", domain.ErrNotAnImage, mime)
	}

	size := len(payload)
	if strings.Contains(params, "base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", fmt.Errorf("malformed data URL payload: %w", err)
		}
		size = len(data)
	}
	if size > MaxBytes {
		return "", domain.ErrImageTooLarge
	}
	return input, nil
}

// FromFile reads an image file and encodes it as a data URL
func FromFile(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	// one byte past the cap tells us the file is too large
	data, err := io.ReadAll(io.LimitReader(f, MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return Encode(data)
}

// Encode sniffs the image type and returns data:<mime>;base64,...
func Encode(data []byte) (string, error) {
	if len(data) > MaxBytes {
		return "", domain.ErrImageTooLarge
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%w: detected %s", domain.ErrNotAnImage, mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
