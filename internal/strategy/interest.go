package strategy

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadInterest reads one symbol per line. Blank lines and lines starting
// with '#' are ignored.
func LoadInterest(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interest list: %w", err)
	}
	defer f.Close()

	interest := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		interest[line] = true
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read interest list: %w", err)
	}
	return interest, nil
}
