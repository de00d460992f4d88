package domain

// CheckResult is the outcome of one environment health probe.
type CheckResult struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Message    string `json:"message"`
	DurationMs int64  `json:"duration_ms"`
	Critical   bool   `json:"critical"` // non-critical checks don't fail doctor
}

// Report aggregates doctor check results.
type Report struct {
	Checks []CheckResult `json:"checks"`
}

// Add appends a check result to the report.
func (r *Report) Add(c CheckResult) {
	r.Checks = append(r.Checks, c)
}

// CriticalPassed reports whether every critical check passed.
func (r *Report) CriticalPassed() bool {
	for _, c := range r.Checks {
		if c.Critical && !c.Passed {
			return false
		}
	}
	return true
}

// AllPassed reports whether every check passed, critical or not.
func (r *Report) AllPassed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failed returns the names of checks that did not pass. Critical-only when
// criticalOnly is set.
func (r *Report) Failed(criticalOnly bool) []string {
	var names []string
	for _, c := range r.Checks {
		if c.Passed {
			continue
		}
		if criticalOnly && !c.Critical {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}
