package models

import "time"

// Audit statuses.
const (
	AuditPass = "PASS"
	AuditFail = "FAIL"
)

// Email-vs-spreadsheet comparison statuses.
const (
	MatchPass    = "PASS"
	MatchWarning = "WARNING"
	MatchFail    = "FAIL"
	MatchNoEmail = "NO_EMAIL_DATA"
)

// Finding is one failed audit rule: the rule number, the field(s) implicated
// and a human-readable reason.
type Finding struct {
	Rule   int      `json:"rule"`
	Fields []string `json:"fields"`
	Reason string   `json:"reason"`
}

// AuditResult is the outcome of auditing one ReconciledReservation. Created
// once per reservation per run; immutable; successive runs form a history.
type AuditResult struct {
	ResvID    string     `json:"resv_id"`
	RunID     string     `json:"run_id"`
	Status    string     `json:"status"`
	Findings  []Finding  `json:"findings"`
	Match     MatchStats `json:"match"`
	AuditedAt time.Time  `json:"audited_at"`
}

// IssueSummary joins the findings into the semicolon-separated form used by
// persistence and export.
func (a AuditResult) IssueSummary() string {
	if len(a.Findings) == 0 {
		return ""
	}
	out := ""
	for i, f := range a.Findings {
		if i > 0 {
			out += "; "
		}
		out += f.Reason
	}
	return out
}

// RunStats is the user-visible summary of one audit run: total records and
// how many came out complete, partial (some fields missing but audit passed),
// or failed.
type RunStats struct {
	RunID            string  `json:"run_id"`
	Total            int     `json:"total"`
	Complete         int     `json:"complete"`
	Partial          int     `json:"partial"`
	Failed           int     `json:"failed"`
	EmailsMatched    int     `json:"emails_matched"`
	ExecutionSeconds float64 `json:"execution_seconds"`
}

// RunInfo is one row of the run history.
type RunInfo struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	WorkbookName string    `json:"workbook_name,omitempty"`
	Reservations int       `json:"reservations"`
	EmailsFound  int       `json:"emails_found"`
	PassCount    int       `json:"pass_count"`
	FailCount    int       `json:"fail_count"`
	Status       string    `json:"status"`
}
