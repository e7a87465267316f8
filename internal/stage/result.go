package stage

import "time"

// Status classifies the outcome of one stage run.
type Status string

const (
	// StatusSuccess means the stage processed at least one item.
	StatusSuccess Status = "success"
	// StatusNoInput means the upstream bucket was empty or absent.
	StatusNoInput Status = "no_input"
	// StatusFailed means a systemic failure stopped the stage.
	StatusFailed Status = "failed"
)

// Result summarizes one stage run for the orchestrator and the CLI.
type Result struct {
	Stage     string
	Status    Status
	Processed int
	Errored   int
	Detail    string
	Elapsed   time.Duration
}

// Failed reports whether the run ended in systemic failure.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Fail builds a failed Result for the named stage from a systemic error.
func Fail(name string, elapsed time.Duration, err error) Result {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return Result{
		Stage:   name,
		Status:  StatusFailed,
		Detail:  detail,
		Elapsed: elapsed,
	}
}

// Outcome picks success or no_input from the processed count. Stages use it
// after a run that completed without systemic failure.
func Outcome(processed int) Status {
	if processed > 0 {
		return StatusSuccess
	}
	return StatusNoInput
}
