package tuning

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/ranking-lab/internal/ranking"
)

// Summary is the one-line human report of a sweep.
func Summary(r Result) string {
	return fmt.Sprintf("Max MAP = %.6g achieved by c = %.6g, lambda = %.6g", r.BestMAP, r.Best.C, r.Best.Lambda)
}

// WriteSubmission writes the best pair as "c lambda" with five significant
// digits.
func WriteSubmission(w io.Writer, r Result) error {
	_, err := fmt.Fprintf(w, "%.5g %.5g\n", r.Best.C, r.Best.Lambda)
	return err
}

// SaveSubmission writes the submission line to path, creating parent
// directories.
func SaveSubmission(path string, r Result) error {
	return writeFile(path, func(w io.Writer) error { return WriteSubmission(w, r) })
}

// SaveBestRanker persists the winning PL2 scorer with the ranking codec.
func SaveBestRanker(path string, r Result) error {
	return writeFile(path, func(w io.Writer) error { return ranking.Save(w, r.Best) })
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
