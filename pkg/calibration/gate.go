package calibration

import (
	"fmt"
	"reflect"
)

// GateProperties is one gate's calibration record for a specific ordered set
// of qubits. The same gate name may appear in a snapshot once per distinct
// qubit tuple.
type GateProperties struct {
	// Qubits holds the qubit indices the gate acts on. Order is significant:
	// the tuple is a lookup key.
	Qubits     []int
	Gate       string
	Parameters []Nduv

	// Extra carries additional named fields that are not part of the core
	// record. They survive the plain-form round trip untouched.
	Extra map[string]any
}

// Attribute returns a named extension field, or ErrAttributeNotFound when it
// was never recorded.
func (g GateProperties) Attribute(name string) (any, error) {
	if v, ok := g.Extra[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("attribute %q: %w", name, ErrAttributeNotFound)
}

// ToPlain returns the nested map form of the record. Extension fields are
// merged in last, so a colliding extension key wins over a core key.
func (g GateProperties) ToPlain() map[string]any {
	params := make([]any, len(g.Parameters))
	for i, p := range g.Parameters {
		params[i] = p.ToPlain()
	}
	out := map[string]any{
		"qubits":     append([]int(nil), g.Qubits...),
		"gate":       g.Gate,
		"parameters": params,
	}
	for k, v := range g.Extra {
		out[k] = v
	}
	return out
}

// GatePropertiesFromPlain rebuilds a gate record from its map form. The
// qubits, gate and parameters keys are required; every other key passes
// through verbatim into the extension bag.
func GatePropertiesFromPlain(data map[string]any) (GateProperties, error) {
	var g GateProperties

	rawQubits, ok := data["qubits"]
	if !ok {
		return g, fmt.Errorf("gate record: missing required field %q", "qubits")
	}
	rawGate, ok := data["gate"]
	if !ok {
		return g, fmt.Errorf("gate record: missing required field %q", "gate")
	}
	rawParams, ok := data["parameters"]
	if !ok {
		return g, fmt.Errorf("gate record: missing required field %q", "parameters")
	}

	var err error
	if g.Qubits, err = asInts(rawQubits); err != nil {
		return g, fmt.Errorf("gate record: qubits: %w", err)
	}
	if g.Gate, err = asString(rawGate); err != nil {
		return g, fmt.Errorf("gate record: gate: %w", err)
	}

	params, err := asList(rawParams)
	if err != nil {
		return g, fmt.Errorf("gate record: parameters: %w", err)
	}
	g.Parameters = make([]Nduv, len(params))
	for i, raw := range params {
		m, err := asMap(raw)
		if err != nil {
			return g, fmt.Errorf("gate record: parameter %d: %w", i, err)
		}
		if g.Parameters[i], err = NduvFromPlain(m); err != nil {
			return g, err
		}
	}

	for k, v := range data {
		switch k {
		case "qubits", "gate", "parameters":
		default:
			if g.Extra == nil {
				g.Extra = make(map[string]any)
			}
			g.Extra[k] = v
		}
	}
	return g, nil
}

// Equal reports structural equality over the full record including the
// extension bag.
func (g GateProperties) Equal(other GateProperties) bool {
	if g.Gate != other.Gate || len(g.Qubits) != len(other.Qubits) || len(g.Parameters) != len(other.Parameters) {
		return false
	}
	for i, q := range g.Qubits {
		if other.Qubits[i] != q {
			return false
		}
	}
	for i, p := range g.Parameters {
		if !p.Equal(other.Parameters[i]) {
			return false
		}
	}
	if len(g.Extra) != len(other.Extra) {
		return false
	}
	return len(g.Extra) == 0 || reflect.DeepEqual(g.Extra, other.Extra)
}
