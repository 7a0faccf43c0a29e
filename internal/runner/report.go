package runner

import "time"

// Outcome is how far a pipeline run got.
type Outcome string

const (
	OutcomeCompared    Outcome = "compared"     // compare stage ran; its verdict is in the stage result
	OutcomeBuildFailed Outcome = "build_failed" // stopped after the build stage
	OutcomeExecFailed  Outcome = "exec_failed"  // driver failed, viewer ran, compare skipped
)

// StageResult records one delegated process invocation.
type StageResult struct {
	Stage    Stage         `json:"stage"`
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report is the inspectable trace of one pipeline run.
type Report struct {
	RunID        string        `json:"run_id"`
	Identifier   string        `json:"identifier"`
	Reference    string        `json:"reference"`
	StaleRemoved bool          `json:"stale_removed"`
	Stages       []StageResult `json:"stages"`
	Outcome      Outcome       `json:"outcome,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
}

// Commands returns the rendered commands in the order they ran.
func (r *Report) Commands() []string {
	out := make([]string, 0, len(r.Stages))
	for _, s := range r.Stages {
		out = append(out, s.Command)
	}
	return out
}

// Stage returns the result for stage s, or nil if it never ran.
func (r *Report) Stage(s Stage) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Stage == s {
			return &r.Stages[i]
		}
	}
	return nil
}

func (r *Report) record(c Command, res Result) {
	sr := StageResult{
		Stage:    c.Stage,
		Command:  c.String(),
		ExitCode: res.ExitCode,
		OK:       res.OK(),
		Duration: res.Duration,
	}
	if res.Err != nil {
		sr.Error = res.Err.Error()
	}
	r.Stages = append(r.Stages, sr)
}
