// Package rename copies accepted images into an output folder under
// templated, product-derived filenames.
package rename

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mantra-bazaar/imagematch/internal/report"
	"github.com/rs/zerolog/log"
)

// DefaultTemplate is the default output filename pattern.
const DefaultTemplate = "{product_id}_{index}{ext}"

var nonWordChars = regexp.MustCompile(`[^\w]`)

// Options configure CopyMatched.
type Options struct {
	// Template is the output filename pattern. Recognized placeholders:
	// {product_id}, {product_name} (non-word characters replaced with _),
	// {confidence} (score x 10, truncated), {index} (per-product running
	// index starting at 0, in matched-row order), {ext} (original file
	// extension). Defaults to DefaultTemplate.
	Template  string
	OutputDir string
}

// CopyMatched copies every matched image into opts.OutputDir under its
// templated name and returns the number of files copied. A missing or
// unreadable source file is logged and skipped; it still consumes its
// per-product index so re-runs stay stable.
func CopyMatched(rows []report.MatchedRow, opts Options) (int, error) {
	tmpl := opts.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output folder: %w", err)
	}

	copied := 0
	indexByProduct := make(map[string]int)
	for _, row := range rows {
		index := indexByProduct[row.ProductID]
		indexByProduct[row.ProductID] = index + 1

		name := Filename(tmpl, row, index)
		dest := filepath.Join(opts.OutputDir, name)

		if err := copyFile(row.ImageID, dest); err != nil {
			log.Warn().Err(err).Str("image", row.ImageID).Msg("failed to copy matched image")
			continue
		}
		log.Debug().Str("image", row.ImageID).Str("dest", dest).Msg("copied matched image")
		copied++
	}

	log.Info().Int("copied", copied).Str("dir", opts.OutputDir).Msg("matched images copied")
	return copied, nil
}

// Filename expands the template for one matched row and its per-product
// index.
func Filename(tmpl string, row report.MatchedRow, index int) string {
	r := strings.NewReplacer(
		"{product_id}", row.ProductID,
		"{product_name}", nonWordChars.ReplaceAllString(row.ProductName, "_"),
		"{confidence}", strconv.Itoa(int(row.Score*10)),
		"{index}", strconv.Itoa(index),
		"{ext}", filepath.Ext(row.ImageID),
	)
	return r.Replace(tmpl)
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
