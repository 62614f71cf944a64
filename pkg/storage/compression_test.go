package storage

import (
	"bytes"
	"testing"
)

func TestCompressorRoundTrip(t *testing.T) {
	compressor, err := NewCompressor(3)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer compressor.Close()

	payload := bytes.Repeat([]byte(`{"name":"T1","unit":"µs","value":100}`), 200)

	compressed := compressor.Compress(payload)
	if len(compressed) == 0 {
		t.Fatal("Expected non-empty compressed payload")
	}
	if len(compressed) >= len(payload) {
		t.Errorf("Expected compression to shrink repetitive payload: %d >= %d", len(compressed), len(payload))
	}

	decompressed, err := compressor.Decompress(compressed)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}
	if !bytes.Equal(decompressed, payload) {
		t.Error("Round trip corrupted payload")
	}
}

func TestCompressorEmptyPayload(t *testing.T) {
	compressor, err := NewCompressor(1)
	if err != nil {
		t.Fatalf("Failed to create compressor: %v", err)
	}
	defer compressor.Close()

	if got := compressor.Compress(nil); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}

	decompressed, err := compressor.Decompress(nil)
	if err != nil {
		t.Fatalf("Decompress of empty payload failed: %v", err)
	}
	if decompressed != nil {
		t.Errorf("Expected nil for empty input, got %v", decompressed)
	}
}

func TestCompressorLevels(t *testing.T) {
	for level := 1; level <= 4; level++ {
		compressor, err := NewCompressor(level)
		if err != nil {
			t.Fatalf("Failed to create compressor at level %d: %v", level, err)
		}

		payload := []byte("calibration snapshot payload")
		decompressed, err := compressor.Decompress(compressor.Compress(payload))
		if err != nil {
			t.Fatalf("Round trip at level %d failed: %v", level, err)
		}
		if !bytes.Equal(decompressed, payload) {
			t.Errorf("Round trip at level %d corrupted payload", level)
		}
		compressor.Close()
	}
}
