package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the per-domain severity scale. The zero value is StatusNormal.
// Values are ordered so the higher severity compares greater.
type Status int

const (
	StatusNormal Status = iota
	StatusWarning
	StatusCritical
)

// String returns the upper-case label used in reports ("NORMAL", "WARNING",
// "CRITICAL").
func (s Status) String() string {
	switch s {
	case StatusWarning:
		return "WARNING"
	case StatusCritical:
		return "CRITICAL"
	default:
		return "NORMAL"
	}
}

// Escalate returns the more severe of s and other. A status is never
// downgraded by Escalate.
func (s Status) Escalate(other Status) Status {
	if other > s {
		return other
	}
	return s
}

// ParseStatus converts a label back into a Status. "TRIP" is accepted as an
// alias for CRITICAL and "OK" for NORMAL.
func ParseStatus(v string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "", "NORMAL", "OK":
		return StatusNormal, nil
	case "WARNING", "WARN":
		return StatusWarning, nil
	case "CRITICAL", "TRIP":
		return StatusCritical, nil
	default:
		return StatusNormal, fmt.Errorf("types: unknown status %q", v)
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
