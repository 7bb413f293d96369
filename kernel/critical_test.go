package kernel_test

import (
	"testing"

	"corertos.dev/corertos/kernel"
)

// TestCriticalSectionNesting is spec property 8: constructing a scoped
// guard inside another yields the outer's prior state on outer release.
func TestCriticalSectionNesting(t *testing.T) {
	k := kernel.New()
	k.Start(kernel.Started)

	outer := k.Enter()
	if k.ActiveState() != kernel.Stopped {
		t.Fatalf("expected Stopped while a critical section is held, got %v", k.ActiveState())
	}

	inner := k.Enter()
	if k.ActiveState() != kernel.Stopped {
		t.Fatalf("expected Stopped while nested critical section is held, got %v", k.ActiveState())
	}
	inner.Release()
	if k.ActiveState() != kernel.Stopped {
		t.Fatalf("expected still Stopped after releasing the inner section, got %v", k.ActiveState())
	}

	outer.Release()
	if k.ActiveState() != kernel.Started {
		t.Fatalf("expected Started restored after releasing the outer section, got %v", k.ActiveState())
	}
}

// TestCriticalSectionReleaseIsIdempotent ensures a double Release does
// not clobber state a later, unrelated Stop/Start pair established.
func TestCriticalSectionReleaseIsIdempotent(t *testing.T) {
	k := kernel.New()
	k.Start(kernel.Started)

	c := k.Enter()
	c.Release()
	if k.ActiveState() != kernel.Started {
		t.Fatalf("expected Started after Release, got %v", k.ActiveState())
	}

	k.Start(kernel.Stopped)
	c.Release() // second Release must be a no-op
	if k.ActiveState() != kernel.Stopped {
		t.Fatalf("expected Stopped preserved across a redundant Release, got %v", k.ActiveState())
	}
}
