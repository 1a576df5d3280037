package consistency

import "time"

// Result is the outcome of validating one record. Errors make it invalid;
// warnings are advisory.
type Result struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newResult() Result {
	return Result{Errors: []string{}, Warnings: []string{}}
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, sprintf(format, args...))
}

func (r Result) done() Result {
	r.IsValid = len(r.Errors) == 0
	return r
}

// Issue lists the messages raised against one record.
type Issue struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Messages []string `json:"messages"`
}

// EntityReport buckets validation results for one entity type.
type EntityReport struct {
	Valid    int     `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Summary totals a report.
type Summary struct {
	TotalErrors   int  `json:"totalErrors"`
	TotalWarnings int  `json:"totalWarnings"`
	IsValid       bool `json:"isValid"`
}

// Report is the outcome of validating every record of every entity type.
type Report struct {
	Clients   EntityReport `json:"clients"`
	Projects  EntityReport `json:"projects"`
	Invoices  EntityReport `json:"invoices"`
	Summary   Summary      `json:"summary"`
	CheckedAt time.Time    `json:"checkedAt"`
}

// FixResult is returned by the auto-fix entry point. FixedCount is a coarse
// tally of repair actions, not a diff.
type FixResult struct {
	Success         bool   `json:"success"`
	FixedCount      int    `json:"fixedCount"`
	InvoicesCreated int    `json:"invoicesCreated"`
	Message         string `json:"message"`
}

// SyncResult is returned by the synchronization entry point.
type SyncResult struct {
	Success  bool     `json:"success"`
	Fixed    int      `json:"fixed"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Message  string   `json:"message"`
}

// FullFixResult is the outcome of validate → fix → sync → re-validate.
type FullFixResult struct {
	Success bool        `json:"success"`
	Before  Report      `json:"before"`
	After   Report      `json:"after"`
	Fix     *FixResult  `json:"fix,omitempty"`
	Sync    *SyncResult `json:"sync,omitempty"`
	Message string      `json:"message"`
}
