package calibration

import (
	"strconv"
	"strings"
	"time"
)

// InstructionProperties carries the optional annotations a capability map
// reports for one instruction on one qubit tuple. Nil fields mean the
// hardware did not report a value.
type InstructionProperties struct {
	// Duration is the instruction duration in seconds.
	Duration *float64
	// Error is the dimensionless error rate.
	Error *float64
}

// TargetEntry binds one qubit tuple to its reported properties. A nil Qargs
// marks a global instruction not tied to specific qubits.
type TargetEntry struct {
	Qargs      []int
	Properties *InstructionProperties
}

// TargetInstruction groups every qubit tuple a named instruction supports.
type TargetInstruction struct {
	Name    string
	Entries []TargetEntry
}

// Target is a hardware-capability description: the operations a backend
// supports, the qubit tuples they run on, and optional timing/error
// annotations, together with the declared qubit count.
type Target struct {
	NumQubits    int
	Instructions []TargetInstruction
}

// FromTarget derives a calibration snapshot from a capability map. The
// conversion is lossy and best-effort: gate records are emitted per
// operation and qubit tuple whenever a duration or error was reported, and
// per-qubit readout records are emitted only when every declared qubit
// reported one ("measure" data is all-or-nothing). Synthesized measurements
// are stamped with the conversion time. A target with neither gate nor
// qubit data yields ErrNotConvertible.
func FromTarget(target *Target) (*BackendProperties, error) {
	now := time.Now().UTC()

	var gates []GateProperties
	var qubits [][]Nduv

	for _, inst := range target.Instructions {
		if inst.Name == "measure" {
			if converted, ok := readoutProperties(inst, target.NumQubits, now); ok {
				qubits = converted
			}
			continue
		}

		for _, entry := range inst.Entries {
			var params []Nduv
			if props := entry.Properties; props != nil {
				if props.Duration != nil {
					params = append(params, Nduv{Date: now, Name: "gate_length", Unit: "s", Value: *props.Duration})
				}
				if props.Error != nil {
					params = append(params, Nduv{Date: now, Name: "gate_error", Unit: "", Value: *props.Error})
				}
			}
			if len(params) == 0 {
				continue
			}
			gates = append(gates, GateProperties{
				Qubits:     append([]int(nil), entry.Qargs...),
				Gate:       inst.Name,
				Parameters: params,
				Extra:      map[string]any{"name": instructionName(inst.Name, entry.Qargs)},
			})
		}
	}

	if len(gates) == 0 && len(qubits) == 0 {
		return nil, ErrNotConvertible
	}
	return New("", "", time.Time{}, qubits, gates, []Nduv{}, nil)
}

// readoutProperties derives the per-qubit measurement lists from a measure
// instruction. Every declared qubit must end up with readout data or the
// whole qubit-derivation path is abandoned.
func readoutProperties(inst TargetInstruction, numQubits int, now time.Time) ([][]Nduv, bool) {
	slots := make(map[int][]Nduv, numQubits)

	for _, entry := range inst.Entries {
		if entry.Qargs == nil {
			continue
		}
		qubit := entry.Qargs[0]

		var params []Nduv
		if props := entry.Properties; props != nil {
			if props.Error != nil {
				params = append(params, Nduv{Date: now, Name: "readout_error", Unit: "", Value: *props.Error})
			}
			if props.Duration != nil {
				params = append(params, Nduv{Date: now, Name: "readout_length", Unit: "s", Value: *props.Duration})
			}
		}
		if len(params) == 0 {
			// Readout data is all-or-nothing across qubits.
			return nil, false
		}
		slots[qubit] = params
	}

	if numQubits == 0 || len(slots) == 0 {
		return nil, false
	}
	qubits := make([][]Nduv, numQubits)
	for q := 0; q < numQubits; q++ {
		params, ok := slots[q]
		if !ok {
			return nil, false
		}
		qubits[q] = params
	}
	return qubits, true
}

// instructionName builds the traceability name attached to converted gate
// records, e.g. "cx" on (0, 1) becomes "cx0_1".
func instructionName(gate string, qargs []int) string {
	parts := make([]string, len(qargs))
	for i, q := range qargs {
		parts[i] = strconv.Itoa(q)
	}
	return gate + strings.Join(parts, "_")
}
