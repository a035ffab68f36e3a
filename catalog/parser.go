package catalog

import (
	"bufio"
	"io"
	"strings"
)

// ParseResult holds parsed items plus diagnostics about dropped input.
type ParseResult struct {
	Items   []Item
	Skipped int
}

// Parse reads tab-delimited provider output and returns the parsed items in
// input order. One malformed line never aborts the batch; it is counted in
// Skipped instead. Blank lines are ignored without counting.
func Parse(r io.Reader) (ParseResult, error) {
	var res ParseResult

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		item, ok := ParseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, item)
	}
	if err := scanner.Err(); err != nil {
		// Keep whatever parsed before the read failure.
		return res, err
	}

	return res, nil
}

// ParseLines parses an in-memory slice of lines. Used by tests and by callers
// that already split the provider output.
func ParseLines(lines []string) ParseResult {
	var res ParseResult
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		item, ok := ParseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, item)
	}
	return res
}
