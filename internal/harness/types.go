package harness

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Seq   int64   `json:"seq"`
	Op    string  `json:"op"`
	Type  string  `json:"type,omitempty"`
	Ref   string  `json:"ref,omitempty"`
	OK    *bool   `json:"ok,omitempty"`
	Found *bool   `json:"found,omitempty"`
	ID    int64   `json:"id,omitempty"`
	IDs   []int64 `json:"ids,omitempty"`
	Count *int64  `json:"count,omitempty"`
	Error string  `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds the failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

func ptr[T any](v T) *T { return &v }
