package collector

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadStockList reads the symbols of a universe file. A CSV with a "Symbol"
// header column uses that column; anything else uses the first column of
// every row. Blank cells are skipped and repeated symbols kept once.
func ReadStockList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stock list: %w", err)
	}
	defer f.Close()
	symbols, err := ParseStockList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return symbols, nil
}

// ParseStockList is ReadStockList over an open reader.
func ParseStockList(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var (
		symbols []string
		seen    = make(map[string]bool)
		col     = 0
		first   = true
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse stock list: %w", err)
		}
		if first {
			first = false
			if idx := headerIndex(rec, "symbol"); idx >= 0 {
				col = idx
				continue
			}
		}
		if col >= len(rec) {
			continue
		}
		s := cleanSymbol(rec[col])
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		symbols = append(symbols, s)
	}
	return symbols, nil
}

func headerIndex(rec []string, name string) int {
	for i, h := range rec {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cleanSymbol(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ",")
}
