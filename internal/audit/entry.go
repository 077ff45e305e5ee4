package audit

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// AuditEntry is one classified permission request in the hash-chained JSONL
// audit log. Field types are fixed (no map[string]any) so json.Marshal output
// is deterministic and the chain hashes reproduce.
type AuditEntry struct {
	Timestamp        string   `json:"ts"`
	Token            string   `json:"token"`
	Profile          string   `json:"profile"`
	Classification   string   `json:"classification"`
	Requested        []string `json:"requested"`
	Denied           []string `json:"denied"`
	RequirementsHash string   `json:"requirements_hash"`
	PrevHash         string   `json:"prev_hash"`
}
