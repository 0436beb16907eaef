// Package images enumerates and reads the image files of a matching run.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// List returns the paths of all image files directly inside dir, sorted.
// It is an error for dir to contain no images: a run over nothing is
// almost certainly a misconfigured path.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if imageExtensions[ext] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	sort.Strings(paths)

	log.Info().Str("dir", dir).Int("images", len(paths)).Msg("images found")
	return paths, nil
}

// Read returns the raw bytes of the image at path. It satisfies
// labeling.ReadFunc.
func Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MIMEType returns the MIME type for an image path based on its extension.
func MIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
