package persist

import (
	"errors"
)

// Report is the outcome of a batch import. Succeeded holds game ids and
// Failed holds one entry per rejected item, both in input order.
type Report struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

type Failure struct {
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	Reason   string         `json:"reason"`
	Conflict *ConflictError `json:"conflict,omitempty"`
}

const reasonBlankName = "name is required"

func newFailure(index int, name string, err error) Failure {
	f := Failure{Index: index, Name: name, Reason: err.Error()}
	if errors.Is(err, ErrBlankName) {
		f.Reason = reasonBlankName
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		f.Conflict = ce
		f.Reason = ce.Error()
	}
	return f
}

func emptyReport() Report {
	return Report{Succeeded: []string{}, Failed: []Failure{}}
}
