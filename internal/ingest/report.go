package ingest

import (
	"fmt"
	"time"
)

// Report summarizes one refresh run. Every processed unit lands in exactly
// one of Fresh, Fetched, Empty or Failed.
type Report struct {
	Class    string        `json:"class"`
	Forced   bool          `json:"forced"`
	Units    int           `json:"units"`
	Fresh    int           `json:"fresh"`
	Fetched  int           `json:"fetched"`
	Empty    int           `json:"empty"`
	Failed   int           `json:"failed"`
	Inserted int           `json:"inserted"`
	Updated  int           `json:"updated"`
	Duration time.Duration `json:"durationNs"`
}

// Written returns the number of records persisted by the run
func (r Report) Written() int {
	return r.Inserted + r.Updated
}

// Summary renders the report for logs and the CLI
func (r Report) Summary() string {
	return fmt.Sprintf("%s: %d units (%d fresh, %d fetched, %d empty, %d failed), %d inserted, %d updated in %s",
		r.Class, r.Units, r.Fresh, r.Fetched, r.Empty, r.Failed, r.Inserted, r.Updated,
		r.Duration.Round(time.Millisecond))
}
