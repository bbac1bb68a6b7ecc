package creators

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// StaticIndex matches against an in-memory list of creator names using the
// same rule as the database query: the stored name contains the query,
// ignoring case.
type StaticIndex struct {
	names []string
}

// NewStaticIndex builds an index from names. Blank entries are dropped.
func NewStaticIndex(names []string) *StaticIndex {
	idx := &StaticIndex{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		idx.names = append(idx.names, strings.ToLower(n))
	}
	return idx
}

// LoadStaticIndex reads one creator name per line; lines starting with # are skipped.
func LoadStaticIndex(path string) (*StaticIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open creators file: %w", err)
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read creators file: %w", err)
	}
	return NewStaticIndex(names), nil
}

// Len returns the number of names held.
func (s *StaticIndex) Len() int {
	return len(s.names)
}

// Contains reports whether any stored name contains name, case-insensitively.
func (s *StaticIndex) Contains(_ context.Context, name string) (bool, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return false, nil
	}
	for _, n := range s.names {
		if strings.Contains(n, needle) {
			return true, nil
		}
	}
	return false, nil
}
