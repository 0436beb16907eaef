package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Artifact file names written by WriteCSV.
const (
	MatchedFileName   = "matched.csv"
	UnmatchedFileName = "unmatched.csv"
	SummaryFileName   = "summary.csv"
)

// WriteCSV writes the three artifact tables to dir, creating it if needed.
// A failed write of one artifact does not prevent attempting the others;
// the returned error joins all failures.
func (r Report) WriteCSV(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	errs := []error{
		writeCSVFile(filepath.Join(dir, MatchedFileName), matchedHeader, r.matchedRecords()),
		writeCSVFile(filepath.Join(dir, UnmatchedFileName), unmatchedHeader, r.unmatchedRecords()),
		writeCSVFile(filepath.Join(dir, SummaryFileName), summaryHeader, r.summaryRecords()),
	}
	return errors.Join(errs...)
}

var (
	matchedHeader   = []string{"image_id", "product_id", "product_name", "score", "matched_labels"}
	unmatchedHeader = []string{"image_id", "best_match_id", "best_match_name", "score", "matched_labels", "reason"}
	summaryHeader   = []string{"product_id", "name", "image_count"}
)

func (r Report) matchedRecords() [][]string {
	out := make([][]string, 0, len(r.Matched))
	for _, row := range r.Matched {
		out = append(out, []string{
			row.ImageID, row.ProductID, row.ProductName,
			formatScore(row.Score), row.MatchedLabels,
		})
	}
	return out
}

func (r Report) unmatchedRecords() [][]string {
	out := make([][]string, 0, len(r.Unmatched))
	for _, row := range r.Unmatched {
		out = append(out, []string{
			row.ImageID, row.BestMatchID, row.BestMatchName,
			formatScore(row.Score), row.MatchedLabels, row.Reason,
		})
	}
	return out
}

func (r Report) summaryRecords() [][]string {
	out := make([][]string, 0, len(r.Summary))
	for _, row := range r.Summary {
		out = append(out, []string{
			row.ProductID, row.Name, strconv.Itoa(row.ImageCount),
		})
	}
	return out
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSVFile(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("rows", len(records)).Msg("artifact written")
	return nil
}
