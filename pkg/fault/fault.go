package fault

import "github.com/reliabilitypro/reliabilitypro/pkg/types"

// Fault is one occurrence of a Kind.
type Fault struct {
	Kind        Kind         `json:"-"`
	Name        string       `json:"name"`
	Location    string       `json:"location,omitempty"`
	Value       float64      `json:"value"`
	Description string       `json:"description"`
	Action      string       `json:"action"`
	Standard    string       `json:"standard"`
	Trigger     string       `json:"trigger"`
	Severity    types.Status `json:"severity"`
}

// New builds a Fault of kind k from the knowledge table.
func New(k Kind, value float64, trigger string) Fault {
	info := table[k]
	if info.Name == "" {
		info.Name = k.String()
	}
	return Fault{
		Kind:        k,
		Name:        info.Name,
		Value:       value,
		Description: info.Description,
		Action:      info.Action,
		Standard:    info.Standard,
		Trigger:     trigger,
		Severity:    info.Severity,
	}
}

// WithSeverity returns a copy of f with the given severity.
func (f Fault) WithSeverity(s types.Status) Fault {
	f.Severity = s
	return f
}

// At returns a copy of f located at loc (e.g. "Driver", "Driven").
func (f Fault) At(loc string) Fault {
	f.Location = loc
	return f
}

// Label is the name qualified by location when one is set.
func (f Fault) Label() string {
	if f.Location == "" {
		return f.Name
	}
	return f.Name + " (" + f.Location + ")"
}

// Has reports whether faults contains an occurrence of k.
func Has(faults []Fault, k Kind) bool {
	for _, f := range faults {
		if f.Kind == k {
			return true
		}
	}
	return false
}

// MaxSeverity returns the highest severity in faults, NORMAL when empty.
func MaxSeverity(faults []Fault) types.Status {
	s := types.StatusNormal
	for _, f := range faults {
		s = s.Escalate(f.Severity)
	}
	return s
}

// Names returns the labels of faults in order.
func Names(faults []Fault) []string {
	out := make([]string, 0, len(faults))
	for _, f := range faults {
		out = append(out, f.Label())
	}
	return out
}
