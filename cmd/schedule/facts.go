package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"portSched/internal/portfolio"
)

// readFacts parses a runtime matrix CSV with rows of
// instance,config,runtime. A runtime of "", "-", "inf" or "unsolved"
// registers the instance without a fact: that configuration never
// solves it. A header row is skipped when detected.
func readFacts(path string) (facts []portfolio.Fact, extraInstances []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, row := range rows {
		if i == 0 && strings.EqualFold(row[0], "instance") {
			continue
		}
		raw := strings.TrimSpace(row[2])
		if isUnsolved(raw) {
			extraInstances = append(extraInstances, row[0])
			continue
		}
		runtime, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: bad runtime %q: %w", path, i+1, raw, err)
		}
		facts = append(facts, portfolio.Fact{
			Instance: row[0],
			Config:   row[1],
			Runtime:  runtime,
		})
	}
	return facts, extraInstances, nil
}

func isUnsolved(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "-", "inf", "unsolved":
		return true
	}
	return false
}
