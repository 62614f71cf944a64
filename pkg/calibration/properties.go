package calibration

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Property is a unit-resolved value together with the time it was measured.
// Values in the snapshot indices are always expressed in the SI base unit
// with no prefix.
type Property struct {
	Value float64   `json:"value"`
	Date  time.Time `json:"date"`
}

// BackendProperties is the full calibration record for a backend at a point
// in time. It owns the raw Nduv and gate records and two derived lookup
// indices built once at construction; the object is read-only afterwards.
// A new snapshot replaces an old one wholesale.
type BackendProperties struct {
	BackendName    string
	BackendVersion string
	LastUpdateDate time.Time

	// Qubits holds qubit i's measurements at Qubits[i]. The slice has no
	// gaps, though individual qubits may have zero measurements.
	Qubits  [][]Nduv
	Gates   []GateProperties
	General []Nduv

	// Extra carries additional named top-level fields.
	Extra map[string]any

	qubitIndex map[int]map[string]Property
	gateIndex  map[string]map[string]map[string]Property
}

// New builds a snapshot from fully formed records and eagerly resolves every
// measurement into the lookup indices. lastUpdate may be a time.Time or an
// ISO-8601 string. A unit that cannot be resolved aborts construction; no
// partial snapshot is returned.
func New(backendName, backendVersion string, lastUpdate any, qubits [][]Nduv, gates []GateProperties, general []Nduv, extra map[string]any) (*BackendProperties, error) {
	updated, err := asTime(lastUpdate)
	if err != nil {
		return nil, fmt.Errorf("last_update_date: %w", err)
	}

	p := &BackendProperties{
		BackendName:    backendName,
		BackendVersion: backendVersion,
		LastUpdateDate: updated,
		Qubits:         qubits,
		Gates:          gates,
		General:        general,
		qubitIndex:     make(map[int]map[string]Property),
		gateIndex:      make(map[string]map[string]map[string]Property),
	}

	for qubit, props := range qubits {
		if len(props) == 0 {
			// Qubits with no recorded measurements never enter the index.
			continue
		}
		formatted := make(map[string]Property, len(props))
		for _, prop := range props {
			value, err := ApplyPrefix(prop.Value, prop.Unit)
			if err != nil {
				return nil, err
			}
			formatted[prop.Name] = Property{Value: value, Date: prop.Date}
		}
		p.qubitIndex[qubit] = formatted
	}

	for _, gate := range gates {
		tuples, ok := p.gateIndex[gate.Gate]
		if !ok {
			tuples = make(map[string]map[string]Property)
			p.gateIndex[gate.Gate] = tuples
		}
		formatted := make(map[string]Property, len(gate.Parameters))
		for _, param := range gate.Parameters {
			value, err := ApplyPrefix(param.Value, param.Unit)
			if err != nil {
				return nil, err
			}
			formatted[param.Name] = Property{Value: value, Date: param.Date}
		}
		tuples[qubitKey(gate.Qubits)] = formatted
	}

	if len(extra) > 0 {
		p.Extra = make(map[string]any, len(extra))
		for k, v := range extra {
			p.Extra[k] = v
		}
	}
	return p, nil
}

// qubitKey renders an ordered qubit tuple as a canonical index key. Go
// slices are not comparable, so tuples are keyed by their string form.
func qubitKey(qubits []int) string {
	parts := make([]string, len(qubits))
	for i, q := range qubits {
		parts[i] = strconv.Itoa(q)
	}
	return strings.Join(parts, ",")
}

// Attribute returns a named extension field, or ErrAttributeNotFound when it
// was never recorded.
func (p *BackendProperties) Attribute(name string) (any, error) {
	if v, ok := p.Extra[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("attribute %q: %w", name, ErrAttributeNotFound)
}

// GatePropertyMap returns every property recorded for a gate on one qubit
// tuple, keyed by property name.
func (p *BackendProperties) GatePropertyMap(gate string, qubits []int) (map[string]Property, error) {
	tuples, ok := p.gateIndex[gate]
	if !ok {
		return nil, fmt.Errorf("could not find the desired property for %s: %w", gate, ErrPropertyNotFound)
	}
	props, ok := tuples[qubitKey(qubits)]
	if !ok {
		return nil, fmt.Errorf("could not find the desired property for %s on qubits %v: %w", gate, qubits, ErrPropertyNotFound)
	}
	return props, nil
}

// GateProperty returns the named property recorded for a gate on a specific
// qubit tuple. A name with no qubits is an error: the gate index is keyed by
// tuple before property name.
func (p *BackendProperties) GateProperty(gate string, qubits []int, name string) (Property, error) {
	if len(qubits) == 0 {
		return Property{}, fmt.Errorf("provide qubits to get %s of %s", name, gate)
	}
	props, err := p.GatePropertyMap(gate, qubits)
	if err != nil {
		return Property{}, err
	}
	prop, ok := props[name]
	if !ok {
		return Property{}, fmt.Errorf("could not find the desired property %s for %s on qubits %v: %w", name, gate, qubits, ErrPropertyNotFound)
	}
	return prop, nil
}

// IsGateOperational returns the gate's resolved "operational" flag, or true
// when the flag was never recorded. Called without qubits it only checks
// that the gate is known; per-tuple flags live one level deeper.
func (p *BackendProperties) IsGateOperational(gate string, qubits ...int) (bool, error) {
	if len(qubits) == 0 {
		if _, ok := p.gateIndex[gate]; !ok {
			return false, fmt.Errorf("could not find the desired property for %s: %w", gate, ErrPropertyNotFound)
		}
		return true, nil
	}
	props, err := p.GatePropertyMap(gate, qubits)
	if err != nil {
		return false, err
	}
	if op, ok := props["operational"]; ok {
		return op.Value != 0, nil
	}
	return true, nil
}

// GateError returns the error rate of the given gate and qubit tuple.
func (p *BackendProperties) GateError(gate string, qubits ...int) (float64, error) {
	prop, err := p.GateProperty(gate, qubits, "gate_error")
	return prop.Value, err
}

// GateLength returns the duration, in seconds, of the given gate and qubit
// tuple.
func (p *BackendProperties) GateLength(gate string, qubits ...int) (float64, error) {
	prop, err := p.GateProperty(gate, qubits, "gate_length")
	return prop.Value, err
}

// QubitPropertyMap returns every property recorded for a qubit, keyed by
// property name.
func (p *BackendProperties) QubitPropertyMap(qubit int) (map[string]Property, error) {
	props, ok := p.qubitIndex[qubit]
	if !ok {
		return nil, fmt.Errorf("couldn't find the properties for qubit %d: %w", qubit, ErrPropertyNotFound)
	}
	return props, nil
}

// QubitProperty returns the named property recorded for a qubit.
func (p *BackendProperties) QubitProperty(qubit int, name string) (Property, error) {
	props, err := p.QubitPropertyMap(qubit)
	if err != nil {
		return Property{}, err
	}
	prop, ok := props[name]
	if !ok {
		return Property{}, fmt.Errorf("couldn't find the property %q for qubit %d: %w", name, qubit, ErrPropertyNotFound)
	}
	return prop, nil
}

// T1 returns the T1 coherence time, in seconds, of the given qubit.
func (p *BackendProperties) T1(qubit int) (float64, error) {
	prop, err := p.QubitProperty(qubit, "T1")
	return prop.Value, err
}

// T2 returns the T2 coherence time, in seconds, of the given qubit.
func (p *BackendProperties) T2(qubit int) (float64, error) {
	prop, err := p.QubitProperty(qubit, "T2")
	return prop.Value, err
}

// Frequency returns the resonance frequency, in Hz, of the given qubit.
func (p *BackendProperties) Frequency(qubit int) (float64, error) {
	prop, err := p.QubitProperty(qubit, "frequency")
	return prop.Value, err
}

// ReadoutError returns the readout error of the given qubit.
func (p *BackendProperties) ReadoutError(qubit int) (float64, error) {
	prop, err := p.QubitProperty(qubit, "readout_error")
	return prop.Value, err
}

// ReadoutLength returns the readout duration, in seconds, of the given qubit.
func (p *BackendProperties) ReadoutLength(qubit int) (float64, error) {
	prop, err := p.QubitProperty(qubit, "readout_length")
	return prop.Value, err
}

// IsQubitOperational returns the qubit's resolved "operational" flag, or
// true when the flag was never recorded.
func (p *BackendProperties) IsQubitOperational(qubit int) (bool, error) {
	props, err := p.QubitPropertyMap(qubit)
	if err != nil {
		return false, err
	}
	if op, ok := props["operational"]; ok {
		return op.Value != 0, nil
	}
	return true, nil
}

// FaultyQubits returns the indices of every indexed qubit whose operational
// flag resolved to false. Qubits with zero recorded measurements are absent
// from the index and never appear here.
func (p *BackendProperties) FaultyQubits() []int {
	faulty := []int{}
	for qubit := range p.qubitIndex {
		operational, err := p.IsQubitOperational(qubit)
		if err == nil && !operational {
			faulty = append(faulty, qubit)
		}
	}
	sort.Ints(faulty)
	return faulty
}

// FaultyGates returns every gate record whose operational flag resolved to
// false. The flat record list is scanned, so the same gate name on different
// qubit tuples is checked once per tuple.
func (p *BackendProperties) FaultyGates() []GateProperties {
	faulty := []GateProperties{}
	for _, gate := range p.Gates {
		operational, err := p.IsGateOperational(gate.Gate, gate.Qubits...)
		if err == nil && !operational {
			faulty = append(faulty, gate)
		}
	}
	return faulty
}

// ToPlain returns the nested map form of the snapshot. Extension fields are
// merged in last, so a colliding extension key wins over a core key.
func (p *BackendProperties) ToPlain() map[string]any {
	out := map[string]any{
		"backend_name":     p.BackendName,
		"backend_version":  p.BackendVersion,
		"last_update_date": p.LastUpdateDate,
	}

	qubits := make([]any, len(p.Qubits))
	for i, props := range p.Qubits {
		plain := make([]any, len(props))
		for j, prop := range props {
			plain[j] = prop.ToPlain()
		}
		qubits[i] = plain
	}
	out["qubits"] = qubits

	gates := make([]any, len(p.Gates))
	for i, gate := range p.Gates {
		gates[i] = gate.ToPlain()
	}
	out["gates"] = gates

	general := make([]any, len(p.General))
	for i, prop := range p.General {
		general[i] = prop.ToPlain()
	}
	out["general"] = general

	for k, v := range p.Extra {
		out[k] = v
	}
	return out
}

// FromPlain rebuilds a snapshot from its nested map form. The five record
// keys and the identity keys are required; every other key is forwarded into
// the extension bag. The update date always round-trips as a timestamp, even
// when the original input carried an ISO-8601 string.
func FromPlain(data map[string]any) (*BackendProperties, error) {
	rest := make(map[string]any, len(data))
	for k, v := range data {
		rest[k] = v
	}

	backendName, err := popString(rest, "backend_name")
	if err != nil {
		return nil, err
	}
	backendVersion, err := popString(rest, "backend_version")
	if err != nil {
		return nil, err
	}
	lastUpdate, ok := rest["last_update_date"]
	if !ok {
		return nil, fmt.Errorf("snapshot: missing required field %q", "last_update_date")
	}
	delete(rest, "last_update_date")

	rawQubits, err := popList(rest, "qubits")
	if err != nil {
		return nil, err
	}
	qubits := make([][]Nduv, len(rawQubits))
	for i, rawProps := range rawQubits {
		list, err := asList(rawProps)
		if err != nil {
			return nil, fmt.Errorf("snapshot: qubit %d: %w", i, err)
		}
		props := make([]Nduv, len(list))
		for j, raw := range list {
			m, err := asMap(raw)
			if err != nil {
				return nil, fmt.Errorf("snapshot: qubit %d: %w", i, err)
			}
			if props[j], err = NduvFromPlain(m); err != nil {
				return nil, err
			}
		}
		qubits[i] = props
	}

	rawGates, err := popList(rest, "gates")
	if err != nil {
		return nil, err
	}
	gates := make([]GateProperties, len(rawGates))
	for i, raw := range rawGates {
		m, err := asMap(raw)
		if err != nil {
			return nil, fmt.Errorf("snapshot: gate %d: %w", i, err)
		}
		if gates[i], err = GatePropertiesFromPlain(m); err != nil {
			return nil, err
		}
	}

	rawGeneral, err := popList(rest, "general")
	if err != nil {
		return nil, err
	}
	general := make([]Nduv, len(rawGeneral))
	for i, raw := range rawGeneral {
		m, err := asMap(raw)
		if err != nil {
			return nil, fmt.Errorf("snapshot: general %d: %w", i, err)
		}
		if general[i], err = NduvFromPlain(m); err != nil {
			return nil, err
		}
	}

	return New(backendName, backendVersion, lastUpdate, qubits, gates, general, rest)
}

func popString(data map[string]any, key string) (string, error) {
	raw, ok := data[key]
	if !ok {
		return "", fmt.Errorf("snapshot: missing required field %q", key)
	}
	delete(data, key)
	s, err := asString(raw)
	if err != nil {
		return "", fmt.Errorf("snapshot: %s: %w", key, err)
	}
	return s, nil
}

func popList(data map[string]any, key string) ([]any, error) {
	raw, ok := data[key]
	if !ok {
		return nil, fmt.Errorf("snapshot: missing required field %q", key)
	}
	delete(data, key)
	list, err := asList(raw)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", key, err)
	}
	return list, nil
}

// Equal reports structural equality over identity fields, all record lists
// and the extension bag.
func (p *BackendProperties) Equal(other *BackendProperties) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.BackendName != other.BackendName ||
		p.BackendVersion != other.BackendVersion ||
		!p.LastUpdateDate.Equal(other.LastUpdateDate) {
		return false
	}
	if len(p.Qubits) != len(other.Qubits) || len(p.Gates) != len(other.Gates) || len(p.General) != len(other.General) {
		return false
	}
	for i, props := range p.Qubits {
		if len(props) != len(other.Qubits[i]) {
			return false
		}
		for j, prop := range props {
			if !prop.Equal(other.Qubits[i][j]) {
				return false
			}
		}
	}
	for i, gate := range p.Gates {
		if !gate.Equal(other.Gates[i]) {
			return false
		}
	}
	for i, prop := range p.General {
		if !prop.Equal(other.General[i]) {
			return false
		}
	}
	if len(p.Extra) != len(other.Extra) {
		return false
	}
	return len(p.Extra) == 0 || reflect.DeepEqual(p.Extra, other.Extra)
}
