package fault

import (
	"fmt"

	"github.com/reliabilitypro/reliabilitypro/pkg/types"
)

// Kind enumerates the faults known to the analyzers.
type Kind int

const (
	KindUnknown Kind = iota

	// Mechanical (vibration pattern rules and noise character).
	KindMisalignment
	KindUnbalance
	KindLooseness
	KindBentShaft
	KindCavitation
	KindHighVibration
	KindOverheat
	KindBearingDefect
	KindRubbing

	// Electrical.
	KindVoltageUnbalance
	KindCurrentUnbalance
	KindOverload
	KindUnderVoltage
	KindOverVoltage
	KindSinglePhasing
	KindGroundFault
	KindMotorOverheat

	// Hydraulic.
	KindHighSystemResistance
	KindPerformanceLoss
	KindRecirculation
	KindOffBEP
	KindRunOut
	KindSuctionCavitation
)

// Info is the static knowledge attached to a Kind.
type Info struct {
	Name        string
	Description string
	Action      string
	Standard    string
	Severity    types.Status
}

var table = map[Kind]Info{
	KindMisalignment: {
		Name:        "MISALIGNMENT",
		Description: "Axial vibration dominates the radial directions, typical of angular or parallel coupling offset.",
		Action:      "Perform laser alignment of the coupling and check for pipe strain.",
		Standard:    "ISO 10816-3",
		Severity:    types.StatusWarning,
	},
	KindUnbalance: {
		Name:        "UNBALANCE",
		Description: "Horizontal vibration is the largest component, typical of mass unbalance at 1X.",
		Action:      "Clean the impeller or fan and balance the rotor in place.",
		Standard:    "ISO 1940-1",
		Severity:    types.StatusWarning,
	},
	KindLooseness: {
		Name:        "MECHANICAL LOOSENESS / SOFT FOOT",
		Description: "Vertical vibration close to horizontal indicates structural slack at the base or bearing housing.",
		Action:      "Check foundation bolt torque and perform a soft foot check.",
		Standard:    "ISO 10816-3",
		Severity:    types.StatusWarning,
	},
	KindBentShaft: {
		Name:        "BENT SHAFT",
		Description: "Axial vibration above the trip limit on both driver and driven ends.",
		Action:      "Measure shaft run-out with a dial indicator and straighten or replace the shaft.",
		Standard:    "ISO 10816-3",
		Severity:    types.StatusCritical,
	},
	KindCavitation: {
		Name:        "CAVITATION",
		Description: "Broadband vibration isolated to the pump end while the driver stays within limits.",
		Action:      "Clean the suction strainer and confirm NPSHa exceeds NPSHr.",
		Standard:    "API 610",
		Severity:    types.StatusWarning,
	},
	KindHighVibration: {
		Name:        "GENERAL HIGH VIBRATION",
		Description: "Vibration above the warning limit without a recognisable pattern.",
		Action:      "Collect spectrum data to isolate the source before the next run.",
		Standard:    "ISO 10816-3",
		Severity:    types.StatusWarning,
	},
	KindOverheat: {
		Name:        "OVERHEAT",
		Description: "Bearing housing temperature above the operating limit.",
		Action:      "Check lubricant level and grade, cooling and bearing preload.",
		Standard:    "ISO 10816-3",
		Severity:    types.StatusWarning,
	},
	KindBearingDefect: {
		Name:        "BEARING DEFECT",
		Description: "Non-synchronous components or noise typical of rolling element damage.",
		Action:      "Replace the bearing and verify lubricant quality.",
		Standard:    "ISO 15243",
		Severity:    types.StatusWarning,
	},
	KindRubbing: {
		Name:        "RUBBING",
		Description: "Contact between rotating and stationary parts.",
		Action:      "Inspect seal and wear-ring clearances.",
		Standard:    "API 610",
		Severity:    types.StatusWarning,
	},
	KindVoltageUnbalance: {
		Name:        "VOLTAGE IMBALANCE",
		Description: "Phase voltages deviate from their average, causing negative-sequence heating.",
		Action:      "Check terminal box connections and the supply transformer taps.",
		Standard:    "NEMA MG-1",
		Severity:    types.StatusWarning,
	},
	KindCurrentUnbalance: {
		Name:        "CURRENT IMBALANCE",
		Description: "Phase currents deviate from their average under load.",
		Action:      "Check winding resistance and terminal connections.",
		Standard:    "IEC 60034",
		Severity:    types.StatusWarning,
	},
	KindOverload: {
		Name:        "MOTOR OVERLOAD",
		Description: "Phase current above the service limit of the full-load rating.",
		Action:      "Reduce pump load by throttling or check for a blockage.",
		Standard:    "IEC 60034",
		Severity:    types.StatusCritical,
	},
	KindUnderVoltage: {
		Name:        "UNDER VOLTAGE",
		Description: "Average supply voltage below the rated band.",
		Action:      "Check the supply voltage and cable voltage drop.",
		Standard:    "IEC 60034",
		Severity:    types.StatusWarning,
	},
	KindOverVoltage: {
		Name:        "OVER VOLTAGE",
		Description: "Average supply voltage above the rated band.",
		Action:      "Check transformer tap settings.",
		Standard:    "IEC 60034",
		Severity:    types.StatusWarning,
	},
	KindSinglePhasing: {
		Name:        "SINGLE PHASING",
		Description: "One phase is effectively open while the others carry load.",
		Action:      "Stop the motor and check fuses, contactor and terminals.",
		Standard:    "IEC 60034",
		Severity:    types.StatusCritical,
	},
	KindGroundFault: {
		Name:        "GROUND FAULT",
		Description: "Leakage current to earth above the safe limit.",
		Action:      "Isolate the motor and run an insulation resistance test.",
		Standard:    "IEC 60364",
		Severity:    types.StatusCritical,
	},
	KindMotorOverheat: {
		Name:        "MOTOR BODY OVERHEAT",
		Description: "Motor frame temperature above the insulation class allowance.",
		Action:      "Check cooling fan, fins and load.",
		Standard:    "IEC 60034",
		Severity:    types.StatusWarning,
	},
	KindHighSystemResistance: {
		Name:        "HIGH SYSTEM RESISTANCE",
		Description: "Head above design, the pump runs near shut-off with a risk of shaft deflection.",
		Action:      "Check discharge valve position and line restrictions.",
		Standard:    "API 610",
		Severity:    types.StatusWarning,
	},
	KindPerformanceLoss: {
		Name:        "HEAD LOSS / INTERNAL WEAR",
		Description: "Head more than 10% below design, impeller or wear-ring wear indicated.",
		Action:      "Schedule overhaul and measure wear-ring clearance.",
		Standard:    "API 610",
		Severity:    types.StatusWarning,
	},
	KindRecirculation: {
		Name:        "LOW FLOW RECIRCULATION",
		Description: "Flow far below BEP with a high risk of suction recirculation.",
		Action:      "Increase flow or install a minimum-flow bypass.",
		Standard:    "API 610",
		Severity:    types.StatusWarning,
	},
	KindOffBEP: {
		Name:        "BELOW PREFERRED OPERATING REGION",
		Description: "Flow below the preferred operating region around BEP.",
		Action:      "Move the duty point back toward BEP.",
		Standard:    "API 610",
		Severity:    types.StatusWarning,
	},
	KindRunOut: {
		Name:        "RUN-OUT / CAVITATION RISK",
		Description: "Flow well beyond BEP, the pump runs out on its curve.",
		Action:      "Throttle the discharge and confirm NPSH margin.",
		Standard:    "API 610",
		Severity:    types.StatusWarning,
	},
	KindSuctionCavitation: {
		Name:        "SUCTION CAVITATION RISK",
		Description: "Negative suction pressure leaves little NPSH margin.",
		Action:      "Check suction strainer, valve and tank level.",
		Standard:    "API 610",
		Severity:    types.StatusWarning,
	},
}

// Lookup returns the static knowledge for k.
func Lookup(k Kind) (Info, bool) {
	info, ok := table[k]
	return info, ok
}

// String returns the display name of k.
func (k Kind) String() string {
	if info, ok := table[k]; ok {
		return info.Name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}
