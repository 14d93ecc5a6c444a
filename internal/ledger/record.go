package ledger

import "time"

// Params holds a step's invocation parameters. Values are string lists so a
// parameter can carry either a scalar or a multi-valued setting (for example
// several climate station names) without a union type.
type Params map[string][]string

// Set stores a scalar parameter.
func (p Params) Set(key, value string) {
	p[key] = []string{value}
}

// SetList stores a multi-valued parameter.
func (p Params) SetList(key string, values ...string) {
	p[key] = append([]string(nil), values...)
}

// Get returns the first value for key, or "" when unset.
func (p Params) Get(key string) string {
	if vs := p[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, vs := range p {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

// StepRecord is the ledger entry for one executed pipeline step. Re-running
// a step replaces its record wholesale; records of other steps that consumed
// the previous outputs are left untouched (staleness is caught lazily by the
// validator at their next run).
type StepRecord struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Params    Params    `json:"params,omitempty"`
	Consumed  []string  `json:"consumed,omitempty"`
	Produced  []string  `json:"produced,omitempty"`
}
