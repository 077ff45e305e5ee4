package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Summary aggregates classification outcomes across an audit log.
type Summary struct {
	Total          int            `json:"total"`
	AllGranted     int            `json:"all_granted"`
	SomeDenied     int            `json:"some_denied"`
	DeniedCounts   map[string]int `json:"denied_counts"`
	FirstTimestamp string         `json:"first_timestamp,omitempty"`
	LastTimestamp  string         `json:"last_timestamp,omitempty"`
}

// ReadAll parses every entry of the log in order.
func ReadAll(path string) ([]AuditEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var entries []AuditEntry
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		var e AuditEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return entries, nil
}

// Tail returns the last n entries of the log.
func Tail(path string, n int) ([]AuditEntry, error) {
	entries, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	if n >= 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Summarize counts classifications and per-permission denials.
func Summarize(entries []AuditEntry) Summary {
	s := Summary{DeniedCounts: make(map[string]int)}
	for _, e := range entries {
		s.Total++
		switch e.Classification {
		case "all_granted":
			s.AllGranted++
		case "some_denied":
			s.SomeDenied++
		}
		for _, id := range e.Denied {
			s.DeniedCounts[id]++
		}
		if s.FirstTimestamp == "" {
			s.FirstTimestamp = e.Timestamp
		}
		s.LastTimestamp = e.Timestamp
	}
	return s
}

// FormatSummary renders a Summary as text, most-denied permission first.
func FormatSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d requests: %d all granted, %d some denied\n", s.Total, s.AllGranted, s.SomeDenied)
	if s.Total > 0 {
		fmt.Fprintf(&b, "window: %s .. %s\n", s.FirstTimestamp, s.LastTimestamp)
	}

	ids := make([]string, 0, len(s.DeniedCounts))
	for id := range s.DeniedCounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.DeniedCounts[ids[i]] != s.DeniedCounts[ids[j]] {
			return s.DeniedCounts[ids[i]] > s.DeniedCounts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		fmt.Fprintf(&b, "  %-45s denied %d\n", id, s.DeniedCounts[id])
	}
	return b.String()
}
