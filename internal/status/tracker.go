// internal/status/tracker.go
package status

// Tracker is the runner-owned snapshot of one reader. Round outcomes move
// health and last error; a 1 Hz Tick counts seconds in error.
// No IO.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Round applies one round outcome (code 0 = success) and reports whether
// the snapshot changed.
func (t *Tracker) Round(code uint16, tags int, flags uint16, maxPower uint8) bool {
	prev := t.snap

	if code == 0 {
		// Recovery / OK: reset error state
		t.snap.Health = HealthOK
		t.snap.LastErrorCode = 0
		t.snap.SecondsInError = 0
		t.snap.TagsLastRound = uint16(min(tags, 0xFFFF))
	} else {
		// seconds_in_error increments on Tick only
		t.snap.Health = HealthError
		t.snap.LastErrorCode = code
		t.snap.TagsLastRound = 0
	}
	t.snap.CapabilityFlags = flags
	t.snap.MaxPower = uint16(maxPower)

	return t.snap != prev
}

// Tick advances seconds_in_error while not OK. It saturates, never wraps.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK || t.snap.SecondsInError == 0xFFFF {
		return false
	}
	t.snap.SecondsInError++
	return true
}
