package calibration

import (
	"errors"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func measureInstruction(entries ...TargetEntry) TargetInstruction {
	return TargetInstruction{Name: "measure", Entries: entries}
}

func TestFromTargetGates(t *testing.T) {
	target := &Target{
		NumQubits: 2,
		Instructions: []TargetInstruction{
			{
				Name: "cx",
				Entries: []TargetEntry{
					{Qargs: []int{0, 1}, Properties: &InstructionProperties{Duration: fptr(300e-9), Error: fptr(0.01)}},
					{Qargs: []int{1, 0}, Properties: &InstructionProperties{Error: fptr(0.012)}},
				},
			},
			{
				Name: "rz",
				Entries: []TargetEntry{
					// Neither duration nor error: no record emitted.
					{Qargs: []int{0}, Properties: &InstructionProperties{}},
					{Qargs: []int{1}, Properties: nil},
				},
			},
		},
	}

	props, err := FromTarget(target)
	if err != nil {
		t.Fatalf("Conversion failed: %v", err)
	}

	if len(props.Gates) != 2 {
		t.Fatalf("Expected 2 gate records, got %d", len(props.Gates))
	}

	gateErr, err := props.GateError("cx", 0, 1)
	if err != nil {
		t.Fatalf("GateError lookup failed: %v", err)
	}
	approx(t, gateErr, 0.01)

	gateLen, err := props.GateLength("cx", 0, 1)
	if err != nil {
		t.Fatalf("GateLength lookup failed: %v", err)
	}
	approx(t, gateLen, 300e-9)

	// The second record has only an error annotation.
	if _, err := props.GateLength("cx", 1, 0); !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("Expected ErrPropertyNotFound for missing gate_length, got %v", err)
	}

	name, err := props.Gates[0].Attribute("name")
	if err != nil {
		t.Fatalf("Attribute lookup failed: %v", err)
	}
	if name != "cx0_1" {
		t.Errorf("Expected traceability name %q, got %v", "cx0_1", name)
	}

	// rz reported no data anywhere, so it never appears.
	if _, err := props.GateError("rz", 0); !errors.Is(err, ErrPropertyNotFound) {
		t.Errorf("Expected ErrPropertyNotFound for rz, got %v", err)
	}
}

func TestFromTargetMeasure(t *testing.T) {
	target := &Target{
		NumQubits: 2,
		Instructions: []TargetInstruction{
			measureInstruction(
				TargetEntry{Qargs: []int{0}, Properties: &InstructionProperties{Duration: fptr(1e-6), Error: fptr(0.02)}},
				TargetEntry{Qargs: []int{1}, Properties: &InstructionProperties{Error: fptr(0.03)}},
			),
		},
	}

	props, err := FromTarget(target)
	if err != nil {
		t.Fatalf("Conversion failed: %v", err)
	}

	if len(props.Qubits) != 2 {
		t.Fatalf("Expected 2 qubit property lists, got %d", len(props.Qubits))
	}

	readoutErr, err := props.ReadoutError(0)
	if err != nil {
		t.Fatalf("ReadoutError lookup failed: %v", err)
	}
	approx(t, readoutErr, 0.02)

	readoutLen, err := props.ReadoutLength(0)
	if err != nil {
		t.Fatalf("ReadoutLength lookup failed: %v", err)
	}
	approx(t, readoutLen, 1e-6)

	readoutErr, err = props.ReadoutError(1)
	if err != nil {
		t.Fatalf("ReadoutError lookup failed: %v", err)
	}
	approx(t, readoutErr, 0.03)
}

func TestFromTargetMeasureAllOrNothing(t *testing.T) {
	target := &Target{
		NumQubits: 3,
		Instructions: []TargetInstruction{
			{
				Name: "x",
				Entries: []TargetEntry{
					{Qargs: []int{0}, Properties: &InstructionProperties{Error: fptr(0.001)}},
				},
			},
			measureInstruction(
				TargetEntry{Qargs: []int{0}, Properties: &InstructionProperties{Error: fptr(0.02)}},
				// Qubit 1 reports nothing: the whole qubit path is dropped.
				TargetEntry{Qargs: []int{1}, Properties: &InstructionProperties{}},
				TargetEntry{Qargs: []int{2}, Properties: &InstructionProperties{Error: fptr(0.04)}},
			),
		},
	}

	props, err := FromTarget(target)
	if err != nil {
		t.Fatalf("Conversion failed: %v", err)
	}

	if len(props.Qubits) != 0 {
		t.Errorf("Expected no qubit properties, got %d lists", len(props.Qubits))
	}

	// Gate data still converts independently.
	if len(props.Gates) != 1 {
		t.Errorf("Expected 1 gate record, got %d", len(props.Gates))
	}
}

func TestFromTargetIncompleteQubitCoverage(t *testing.T) {
	target := &Target{
		NumQubits: 3,
		Instructions: []TargetInstruction{
			{
				Name: "x",
				Entries: []TargetEntry{
					{Qargs: []int{0}, Properties: &InstructionProperties{Error: fptr(0.001)}},
				},
			},
			// Qubit 2 never appears: no partial coverage accepted.
			measureInstruction(
				TargetEntry{Qargs: []int{0}, Properties: &InstructionProperties{Error: fptr(0.02)}},
				TargetEntry{Qargs: []int{1}, Properties: &InstructionProperties{Error: fptr(0.03)}},
			),
		},
	}

	props, err := FromTarget(target)
	if err != nil {
		t.Fatalf("Conversion failed: %v", err)
	}

	if len(props.Qubits) != 0 {
		t.Errorf("Expected no qubit properties, got %d lists", len(props.Qubits))
	}
}

func TestFromTargetGlobalMeasureEntrySkipped(t *testing.T) {
	target := &Target{
		NumQubits: 1,
		Instructions: []TargetInstruction{
			measureInstruction(
				TargetEntry{Qargs: nil, Properties: &InstructionProperties{Error: fptr(0.5)}},
				TargetEntry{Qargs: []int{0}, Properties: &InstructionProperties{Error: fptr(0.02)}},
			),
		},
	}

	props, err := FromTarget(target)
	if err != nil {
		t.Fatalf("Conversion failed: %v", err)
	}

	if len(props.Qubits) != 1 {
		t.Fatalf("Expected 1 qubit property list, got %d", len(props.Qubits))
	}
	readoutErr, err := props.ReadoutError(0)
	if err != nil {
		t.Fatalf("ReadoutError lookup failed: %v", err)
	}
	approx(t, readoutErr, 0.02)
}

func TestFromTargetNotConvertible(t *testing.T) {
	target := &Target{
		NumQubits: 2,
		Instructions: []TargetInstruction{
			{
				Name: "x",
				Entries: []TargetEntry{
					{Qargs: []int{0}, Properties: &InstructionProperties{}},
				},
			},
			measureInstruction(
				TargetEntry{Qargs: []int{0}, Properties: nil},
			),
		},
	}

	_, err := FromTarget(target)
	if !errors.Is(err, ErrNotConvertible) {
		t.Errorf("Expected ErrNotConvertible, got %v", err)
	}
}
