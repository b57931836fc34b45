package harness

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	Op     string `json:"op"`
	Metric string `json:"metric"`

	// Total is the stored cost, one text count per name.
	Total map[string]string `json:"total"`

	// Leaves maps leaf names to how often they are reached from the op.
	Leaves map[string]string `json:"leaves"`

	// Nodes lists every distinct op in the call graph, root first.
	Nodes []string `json:"nodes"`

	// Qubits is the peak qubit count.
	Qubits string `json:"qubits"`

	// Violations lists release requirements verification could not prove.
	Violations []string `json:"violations,omitempty"`

	// CallGraph is the key-free outline compared against golden files.
	CallGraph string `json:"call_graph"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(op, metric string) *Result {
	return &Result{
		Pass:   true,
		Op:     op,
		Metric: metric,
		Total:  map[string]string{},
		Leaves: map[string]string{},
		Nodes:  []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
