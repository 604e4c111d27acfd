package collector

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// MissingSymbol marks a new-list entry with no mapping in the old list.
const MissingSymbol = "nan"

// UniverseDiff maps a revised universe list onto the symbols of the old one.
type UniverseDiff struct {
	NewSymbols []string // one per new_list row, MissingSymbol when unmapped
	Dropped    []string // old_list entries absent from new_list
}

// DiffUniverse reads a CSV with old_list, old and new_list columns. old maps
// each old_list name to its ticker.
func DiffUniverse(r io.Reader) (*UniverseDiff, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	oldListCol := headerIndex(header, "old_list")
	oldCol := headerIndex(header, "old")
	newListCol := headerIndex(header, "new_list")
	if oldListCol < 0 || oldCol < 0 || newListCol < 0 {
		return nil, fmt.Errorf("header must contain old_list, old and new_list, got %v", header)
	}

	cell := func(rec []string, i int) string {
		if i >= len(rec) {
			return ""
		}
		return cleanSymbol(rec[i])
	}

	var oldList, newList []string
	mapping := make(map[string]string)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse row: %w", err)
		}
		if name := cell(rec, oldListCol); name != "" {
			oldList = append(oldList, name)
			if _, ok := mapping[name]; !ok {
				ticker := cell(rec, oldCol)
				if ticker == "" {
					ticker = MissingSymbol
				}
				mapping[name] = ticker
			}
		}
		if name := cell(rec, newListCol); name != "" {
			newList = append(newList, name)
		}
	}

	d := &UniverseDiff{}
	inNew := make(map[string]bool, len(newList))
	for _, name := range newList {
		inNew[name] = true
		if ticker, ok := mapping[name]; ok {
			d.NewSymbols = append(d.NewSymbols, ticker)
		} else {
			d.NewSymbols = append(d.NewSymbols, MissingSymbol)
		}
	}
	for _, name := range oldList {
		if !inNew[name] {
			d.Dropped = append(d.Dropped, name)
		}
	}
	return d, nil
}

// Write renders the diff in the plain-text report format.
func (d *UniverseDiff) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Symbols for new list:")
	for _, s := range d.NewSymbols {
		fmt.Fprintln(bw, s)
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "Items in old list but not in new list:")
	for _, s := range d.Dropped {
		fmt.Fprintln(bw, s)
	}
	return bw.Flush()
}
