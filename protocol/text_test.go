package protocol

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	testCases := []struct {
		length int
		sizes  []int
	}{
		{0, []int{0}},
		{1, []int{1}},
		{127, []int{127}},
		{128, []int{128}},
		{129, []int{128, 1}},
		{384, []int{128, 128, 128}},
	}

	for _, tc := range testCases {
		chunks := SplitText(strings.Repeat("a", tc.length))
		if len(chunks) != len(tc.sizes) {
			t.Errorf("len %d: expected %d chunks, got %d", tc.length, len(tc.sizes), len(chunks))
			continue
		}
		for i, c := range chunks {
			if len(c) != tc.sizes[i] {
				t.Errorf("len %d: chunk %d has %d bytes, want %d", tc.length, i, len(c), tc.sizes[i])
			}
		}
	}
}

func TestTextAssembler(t *testing.T) {
	var a TextAssembler

	if s, ok := a.Push([]byte("short")); !ok || s != "short" {
		t.Errorf("Expected short chunk to complete, got %q %v", s, ok)
	}

	full := []byte(strings.Repeat("f", MaxTextChunk))
	if _, ok := a.Push(full); ok {
		t.Error("A full chunk should be held")
	}
	if !a.Pending() {
		t.Error("Expected pending text")
	}
	s, ok := a.Push([]byte("tail"))
	if !ok || s != string(full)+"tail" {
		t.Errorf("Expected joined text, got %d bytes ok=%v", len(s), ok)
	}

	a.Push(full)
	s, ok = a.Flush()
	if !ok || len(s) != MaxTextChunk {
		t.Errorf("Flush should return the held chunk, got %d bytes ok=%v", len(s), ok)
	}
	if _, ok := a.Flush(); ok {
		t.Error("Flush on empty assembler should report nothing")
	}
}
