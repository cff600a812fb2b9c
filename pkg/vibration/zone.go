package vibration

import "encoding/json"

// Zone is an ISO 10816 severity zone. ZoneNone marks rows that are not
// velocity readings (temperature).
type Zone int

const (
	ZoneNone Zone = iota
	ZoneA
	ZoneB
	ZoneC
	ZoneD
)

// DefaultZoneARatio places the Zone A/B boundary relative to the warning limit.
const DefaultZoneARatio = 0.51

func (z Zone) String() string {
	switch z {
	case ZoneA:
		return "A"
	case ZoneB:
		return "B"
	case ZoneC:
		return "C"
	case ZoneD:
		return "D"
	}
	return ""
}

// Remark is the display text for a zone.
func (z Zone) Remark() string {
	switch z {
	case ZoneA:
		return "Zone A (New Condition)"
	case ZoneB:
		return "Zone B (Unlimited Operation)"
	case ZoneC:
		return "Zone C (Restricted Operation)"
	case ZoneD:
		return "Zone D (Damage Risk)"
	}
	return ""
}

func (z Zone) MarshalJSON() ([]byte, error) {
	return json.Marshal(z.String())
}

func (z *Zone) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "A":
		*z = ZoneA
	case "B":
		*z = ZoneB
	case "C":
		*z = ZoneC
	case "D":
		*z = ZoneD
	default:
		*z = ZoneNone
	}
	return nil
}

// Classify returns the zone of avg for the given limits using the default
// Zone A ratio.
func Classify(avg, warn, trip float64) Zone {
	return classify(avg, warn, trip, DefaultZoneARatio)
}

func classify(avg, warn, trip, ratio float64) Zone {
	switch {
	case avg < ratio*warn:
		return ZoneA
	case avg < warn:
		return ZoneB
	case avg < trip:
		return ZoneC
	default:
		return ZoneD
	}
}
