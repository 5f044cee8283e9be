package sched

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

// Entry is one exported slice in the boundary format: unit ids are
// 1-based, entries ordered by unit then cutoff.
type Entry struct {
	Unit   int
	Config string
	Cutoff float64
}

// Summary is the achieved score exported next to the slices: distinct
// solved instances, quadratic cost and whether the search proved the
// schedule optimal.
type Summary struct {
	Solved   int
	QuadCost float64
	Complete bool
}

// Export flattens a schedule into boundary entries. The schedule is
// canonicalized first, so interchangeable units export identically
// regardless of how the search happened to label them.
func Export(s Schedule) []Entry {
	canon := s.Canonical()
	var out []Entry
	for u := range canon {
		for _, sl := range canon[u] {
			out = append(out, Entry{Unit: u + 1, Config: sl.Config, Cutoff: sl.Cutoff})
		}
	}
	return out
}

// WriteCSV writes exported entries to path, creating parent directories.
// A trailing summary record carries the achieved (solved, quadratic
// cost, complete) triple, so the file alone describes the run outcome.
func WriteCSV(path string, entries []Entry, sum Summary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"unit", "config", "cutoff"}); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			strconv.Itoa(e.Unit),
			e.Config,
			strconv.FormatFloat(e.Cutoff, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	summary := []string{
		"summary",
		strconv.Itoa(sum.Solved),
		strconv.FormatFloat(sum.QuadCost, 'f', 6, 64),
		strconv.FormatBool(sum.Complete),
	}
	if err := w.Write(summary); err != nil {
		return err
	}
	return w.Error()
}
