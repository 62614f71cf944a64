// Package calibration models a hardware calibration snapshot for a quantum
// backend: per-qubit physical parameters, per-gate parameters keyed by the
// qubits the gate acts on, and backend-wide metadata. Snapshots are immutable
// once built and carry unit-resolved lookup indices over their raw records.
package calibration

import (
	"fmt"
	"time"
)

// Nduv is a single name-date-unit-value calibration measurement, e.g.
// {T1, "µs", 113.4, measured-at}.
type Nduv struct {
	Date  time.Time `json:"date"`
	Name  string    `json:"name"`
	Unit  string    `json:"unit"`
	Value float64   `json:"value"`
}

// ToPlain returns the flat map form of the measurement.
func (n Nduv) ToPlain() map[string]any {
	return map[string]any{
		"date":  n.Date,
		"name":  n.Name,
		"unit":  n.Unit,
		"value": n.Value,
	}
}

// NduvFromPlain rebuilds an Nduv from its flat map form. All four fields are
// required; a missing field is a construction error.
func NduvFromPlain(data map[string]any) (Nduv, error) {
	var n Nduv
	for _, field := range []string{"date", "name", "unit", "value"} {
		if _, ok := data[field]; !ok {
			return n, fmt.Errorf("nduv: missing required field %q", field)
		}
	}

	var err error
	if n.Date, err = asTime(data["date"]); err != nil {
		return n, fmt.Errorf("nduv: %w", err)
	}
	if n.Name, err = asString(data["name"]); err != nil {
		return n, fmt.Errorf("nduv: name: %w", err)
	}
	if n.Unit, err = asString(data["unit"]); err != nil {
		return n, fmt.Errorf("nduv: unit: %w", err)
	}
	if n.Value, err = asFloat(data["value"]); err != nil {
		return n, fmt.Errorf("nduv: value: %w", err)
	}
	return n, nil
}

// Equal reports structural equality over all four fields.
func (n Nduv) Equal(other Nduv) bool {
	return n.Name == other.Name &&
		n.Unit == other.Unit &&
		n.Value == other.Value &&
		n.Date.Equal(other.Date)
}

func (n Nduv) String() string {
	return fmt.Sprintf("Nduv(%s, %s, %s, %g)", n.Date.Format(time.RFC3339), n.Name, n.Unit, n.Value)
}
