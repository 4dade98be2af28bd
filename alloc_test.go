package mdhtml

import (
	"bytes"
	"testing"
)

func TestValidateInputDoesNotAllocate(t *testing.T) {
	src := bytes.Repeat([]byte("line with ünïcode and\ttabs\n"), 100)
	allocs := testing.AllocsPerRun(100, func() {
		_ = ValidateInput(src)
	})
	if allocs != 0 {
		t.Fatalf("ValidateInput allocated: got %.2f", allocs)
	}
}
