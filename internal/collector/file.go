package collector

import (
	"context"
	"fmt"
	"os"
	"strings"

	"bankcap/internal/apperrors"
)

// FileFetcher reads markup from a local file, for offline runs.
type FileFetcher struct{}

// Name returns "file".
func (f *FileFetcher) Name() string { return "file" }

// Fetch reads the file named by a file:// URL or a plain path.
func (f *FileFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := strings.TrimPrefix(url, "file://")
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", apperrors.ErrIO, path, err)
	}
	return string(b), nil
}
