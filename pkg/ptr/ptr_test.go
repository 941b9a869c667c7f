package ptr_test

import (
	"testing"

	"ytgrab/pkg/ptr"
)

func TestDeref(t *testing.T) {
	if got := ptr.Deref[float64](nil); got != 0 {
		t.Errorf("Deref(nil) = %v, want 0", got)
	}

	if got := ptr.Deref(ptr.Of("x")); got != "x" {
		t.Errorf("Deref(Of(x)) = %q", got)
	}
}
