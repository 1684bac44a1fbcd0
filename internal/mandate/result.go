package mandate

// FillResult accumulates the outcome of a filling pass. SuccessCount counts
// individual field writes; FailedLabels names each logical datum that could not be
// placed, with the reason.
type FillResult struct {
	SuccessCount int      `json:"successCount"`
	FailedLabels []string `json:"failedLabels"`
	// Written lists the field names that received a value, in write order
	Written []string `json:"written,omitempty"`
}

// Merge returns r followed by o
func (r FillResult) Merge(o FillResult) FillResult {
	return FillResult{
		SuccessCount: r.SuccessCount + o.SuccessCount,
		FailedLabels: concat(r.FailedLabels, o.FailedLabels),
		Written:      concat(r.Written, o.Written),
	}
}

func concat(a, b []string) []string {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// OK reports whether nothing failed
func (r FillResult) OK() bool {
	return len(r.FailedLabels) == 0
}

func succeeded(names ...string) FillResult {
	return FillResult{SuccessCount: len(names), Written: names}
}

func failed(label string) FillResult {
	return FillResult{FailedLabels: []string{label}}
}
