package aggregator

import "errors"

var (
	// ErrFormNotFound is returned when a form's description file cannot be opened.
	ErrFormNotFound = errors.New("form file not found")

	// ErrDuplicatePopulation is returned when a form is aggregated into a
	// record that already holds it.
	ErrDuplicatePopulation = errors.New("form already present in record")
)

// Record holds the per-form script facts of one configuration.
type Record struct {
	Configuration string

	// Forms lists the aggregated forms in aggregation order.
	Forms []string

	EqnOutputs      map[string][]string
	CallbackModules map[string][]string
}

// NewRecord returns an empty record for the named configuration.
func NewRecord(configuration string) *Record {
	return &Record{
		Configuration:   configuration,
		EqnOutputs:      make(map[string][]string),
		CallbackModules: make(map[string][]string),
	}
}

// Has reports whether form was already aggregated, even with empty results.
func (r *Record) Has(form string) bool {
	_, eqn := r.EqnOutputs[form]
	_, cb := r.CallbackModules[form]
	return eqn || cb
}

func (r *Record) put(form string, eqn, cmods []string) {
	if eqn == nil {
		eqn = []string{}
	}
	if cmods == nil {
		cmods = []string{}
	}
	r.Forms = append(r.Forms, form)
	r.EqnOutputs[form] = append([]string{}, eqn...)
	r.CallbackModules[form] = append([]string{}, cmods...)
}
