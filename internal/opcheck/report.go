package opcheck

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Check names a kind of verification.
type Check string

// Kinds of verification.
const (
	CheckOutput Check = "output"
	CheckGrad   Check = "grad"
	CheckParity Check = "parity"
)

// Result is the outcome of one check in one mode.
type Result struct {
	Check    Check
	Mode     Mode
	Err      error
	Duration time.Duration
}

func (r Result) String() string {
	status := "ok"
	if r.Err != nil {
		status = "FAIL: " + r.Err.Error()
	}
	return fmt.Sprintf("%s/%s %s", r.Check, r.Mode, status)
}

// Report collects the results of one case.
type Report struct {
	Case    string
	Op      string
	Results []Result
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	return r.Err() != nil
}

// Err returns the first failure, or nil.
func (r *Report) Err() error {
	for _, res := range r.Results {
		if res.Err != nil {
			return errors.WithMessagef(res.Err, "%s %s/%s", r.Case, res.Check, res.Mode)
		}
	}
	return nil
}

func (r *Report) add(check Check, mode Mode, start time.Time, err error) {
	r.Results = append(r.Results, Result{Check: check, Mode: mode, Err: err, Duration: time.Since(start)})
}
