package config_test

import (
	"testing"
	"unsafe"

	"corertos.dev/corertos/kernel"
	"corertos.dev/corertos/kernel/config"
)

func TestDefaultLoadsEmbeddedBaseline(t *testing.T) {
	c, err := config.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.MaxThreads == 0 {
		t.Error("expected a non-zero MaxThreads baseline")
	}
	if c.TickSource != config.TickSourceSysTick {
		t.Errorf("expected the default tick source to be systick, got %q", c.TickSource)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	want, err := config.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	got, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("Load(\"\") = %+v, want %+v", got, want)
	}
}

func TestApplyPushesTunablesOntoKernel(t *testing.T) {
	k := kernel.New()
	c := config.Config{DefaultStackSize: 2048, DefaultTicks: 5, StrictPriorityScan: true}

	if err := config.Apply(k, c); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !k.StrictPriorityScan {
		t.Error("expected StrictPriorityScan to be applied")
	}

	id, err := k.AddThread(func(_ unsafe.Pointer) {}, nil, 0, nil)
	if err != nil {
		t.Fatalf("AddThread: %v", err)
	}
	used, err := k.GetStackUsed(id)
	if err != nil {
		t.Fatalf("GetStackUsed: %v", err)
	}
	if used <= 0 || used > 2048 {
		t.Errorf("expected the applied default stack size to bound stack usage, got %d bytes used", used)
	}
}

func TestApplyRejectsMicroSourceWithoutSliceMicros(t *testing.T) {
	k := kernel.New()
	c := config.Config{TickSource: config.TickSourceMicro}
	if err := config.Apply(k, c); err != kernel.ErrTimerBusy {
		t.Fatalf("expected ErrTimerBusy, got %v", err)
	}
}
