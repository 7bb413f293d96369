package kernel

// Next implements the scheduler selection policy of spec.md §4.1: it
// always reselects and publishes a fresh TrampolineState, with no
// notion of a remaining tick budget of its own. outgoingSP is the
// outgoing thread's captured stack pointer (the zero value is valid when there
// is no live CPU stack pointer to record, e.g. the very first
// dispatch).
//
// Next has two callers, and only one of them gates how often it
// fires: Yield/YieldAndStart call it directly and unconditionally,
// since a thread that explicitly yields early is always owed an
// immediate reselection regardless of its remaining slice. The tick
// ISR path (OnSysTick/OnIntervalTick) does not call Next directly; it
// goes through consumeTick, which decrements the live tick countdown
// and only calls Next once that countdown is exhausted.
//
// Selection order:
//  1. Priority scan: the first slot with priority != 0 wins; its
//     priority is cleared and its ticks become the next tick budget.
//  2. Round-robin fallback: starting at currentIdx+1, wrapping at the
//     table size, the first RUNNING slot wins. Slot 0 is always
//     RUNNING, so this always terminates.
//
// The priority scan's guard is deliberately written against the
// *current* thread's flags, not the candidate's — this reproduces
// TeensyThreads.cpp's getNextThread exactly (spec.md §9 flags this as
// almost certainly a typo). Set Kernel.StrictPriorityScan to use the
// evidently-intended fix instead.
func (k *Kernel) Next(outgoingSP uintptr) TrampolineState {
	disableInterrupts()
	defer enableInterrupts()

	k.threads[k.currentIdx].sp = ptrFromUintptr(outgoingSP)

	found := false
	for i := range k.threads {
		guardFlags := k.threads[k.currentIdx].flags
		if k.StrictPriorityScan {
			guardFlags = k.threads[i].flags
		}
		if guardFlags != Running {
			continue
		}
		if k.threads[i].priority != 0 {
			k.currentIdx = ThreadID(i)
			k.trampoline.TickCount = k.threads[i].ticks
			k.threads[i].priority = 0
			found = true
			break
		}
	}

	if !found {
		next := k.currentIdx
		for {
			next++
			if int(next) >= len(k.threads) {
				next = mainThreadID
				break
			}
			if k.threads[next].flags == Running {
				break
			}
		}
		k.currentIdx = next
		k.trampoline.TickCount = k.threads[next].ticks
	}

	desc := &k.threads[k.currentIdx]
	k.trampoline.ThreadDesc = desc
	k.trampoline.SaveArea = &desc.save
	k.trampoline.UseMainStack = k.currentIdx == mainThreadID
	k.trampoline.SP = uintptrFromPtr(desc.sp)
	k.trampoline.Active = k.activeState
	k.trampoline.UseSystick = !k.useMicroTmr

	return k.trampoline
}

// CurrentID returns the slot index of the thread the scheduler most
// recently selected. Unlike ID(), this does not take a critical
// section — it is meant for use from within one (e.g. inside the
// trampoline itself).
func (k *Kernel) CurrentID() ThreadID { return k.currentIdx }
