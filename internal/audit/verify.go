package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyResult holds the outcome of a hash chain verification.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

func broken(line int, format string, args ...any) VerifyResult {
	return VerifyResult{Error: fmt.Sprintf(format, args...), ErrorLine: line}
}

// Verify walks a JSONL audit log and reports the first broken link, if any.
func Verify(path string) VerifyResult {
	f, err := os.Open(path)
	if err != nil {
		return VerifyResult{Error: fmt.Sprintf("open: %v", err)}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	expected := GenesisHash

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		var entry AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return broken(lineNum, "parse error: %v", err)
		}
		if entry.PrevHash != expected {
			if lineNum == 1 {
				return broken(1, "first entry prev_hash is %q, expected genesis hash", entry.PrevHash)
			}
			return broken(lineNum, "hash mismatch: expected %s, got %s", expected, entry.PrevHash)
		}
		expected = HashLine(line)
	}

	if err := scanner.Err(); err != nil {
		return VerifyResult{Error: fmt.Sprintf("scan: %v", err)}
	}

	return VerifyResult{Valid: true, Lines: lineNum}
}
