package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reliabilitypro/reliabilitypro/pkg/report"
)

// fieldCondition compares the verdict condition instead of a number.
const fieldCondition = "condition"

// evalCondition evaluates a rule condition string against a report.
//
// Supported expressions (field operator value):
//
//	vib_max > 4.5
//	max_temp >= 85
//	voltage_unbalance_pct > 2
//	current_unbalance_pct > 10
//	load_pct > 105
//	head_deviation_pct < -10
//	fault_count > 0
//	uptime_pct < 80
//	condition == critical
//	condition != good
//
// known is false when the report does not carry the field (its domain was
// not measured) or the expression cannot be parsed; the caller leaves the
// alert state untouched in that case.
func evalCondition(cond string, r *report.Report) (fires bool, value float64, known bool) {
	field, op, rhs, err := parseCondition(cond)
	if err != nil {
		return false, 0, false
	}

	if field == fieldCondition {
		c := r.Condition()
		if c == "" {
			return false, 0, false
		}
		eq := strings.EqualFold(string(c), rhs)
		if op == "!=" {
			return !eq, 0, true
		}
		return eq, 0, true
	}

	v, ok := r.Metric(field)
	if !ok {
		return false, 0, false
	}
	threshold, _ := strconv.ParseFloat(rhs, 64)
	return compareFloat(v, op, threshold), v, true
}

// parseCondition splits and checks an expression.
func parseCondition(cond string) (field, op, rhs string, err error) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("condition %q: want \"field op value\"", cond)
	}
	field, op, rhs = parts[0], parts[1], parts[2]

	if field == fieldCondition {
		if op != "==" && op != "!=" {
			return "", "", "", fmt.Errorf("condition %q: condition supports == and != only", cond)
		}
		return field, op, rhs, nil
	}
	switch field {
	case report.MetricVibMax, report.MetricVoltageUnbalance, report.MetricCurrentUnbalance,
		report.MetricLoad, report.MetricHeadDeviation, report.MetricMaxTemp,
		report.MetricFaultCount, report.MetricUptime:
	default:
		return "", "", "", fmt.Errorf("condition %q: unknown field %q", cond, field)
	}
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
	default:
		return "", "", "", fmt.Errorf("condition %q: unknown operator %q", cond, op)
	}
	if _, perr := strconv.ParseFloat(rhs, 64); perr != nil {
		return "", "", "", fmt.Errorf("condition %q: value %q is not a number", cond, rhs)
	}
	return field, op, rhs, nil
}

// ValidateCondition reports whether cond is a supported expression.
func ValidateCondition(cond string) error {
	_, _, _, err := parseCondition(cond)
	return err
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
