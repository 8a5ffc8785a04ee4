// Package keybus holds the in-memory model of a DSC security panel:
// partitions, zones, PGM outputs and the panel-level flags, each paired
// with a changed-since-last-publish marker. A panel decoder owns the
// writes; the bridge reads fields and clears markers after publishing.
package keybus

import "sync"

const (
	// Partitions is the maximum number of partitions a panel reports.
	Partitions = 8
	// Zones is the maximum number of zones, stored 8 per bank.
	Zones = 64
	// PGMOutputs is the maximum number of programmable outputs.
	PGMOutputs = 14
)

// Partition is the decoded state of one partition. The *Changed fields
// are per-dimension publish markers: set by the decoder on a state
// transition, cleared by the bridge only after the matching topic was
// published successfully.
type Partition struct {
	Armed        bool
	ArmedAway    bool
	ArmedStay    bool
	NoEntryDelay bool
	ExitDelay    bool
	EntryDelay   bool
	Alarm        bool
	Fire         bool
	Ready        bool
	Disabled     bool

	ArmedChanged     bool
	ExitDelayChanged bool
	AlarmChanged     bool
	FireChanged      bool
}

// Status is the shared entity model. The decoder goroutine is the only
// writer of status fields, the bridge loop is the only clearer of
// markers; both hold the mutex to touch anything. The Set* helpers
// lock internally, readers call Lock/Unlock around a whole scan.
type Status struct {
	mu sync.Mutex

	Partitions [Partitions]Partition
	OpenZones  *Bitset
	Outputs    *Bitset

	// Bank-level summaries: true while any bit in the matching
	// changed-mask is still set.
	ZonesChanged   bool
	OutputsChanged bool

	Trouble        bool
	TroubleChanged bool

	// Connected tracks the decoder's link to the panel, distinct
	// from the broker connection.
	Connected        bool
	ConnectedChanged bool

	// Changed is the top-level scan trigger.
	Changed bool

	// BufferOverflow is set when the decoder could not keep up and
	// dropped panel data.
	BufferOverflow bool

	AccessCodePrompt bool
	PromptPartition  int
}

func NewStatus() *Status {
	return &Status{
		OpenZones: NewBitset(Zones),
		Outputs:   NewBitset(PGMOutputs),
	}
}

func (s *Status) Lock()   { s.mu.Lock() }
func (s *Status) Unlock() { s.mu.Unlock() }

func (s *Status) partition(n int) *Partition {
	if n < 1 || n > Partitions {
		return nil
	}
	return &s.Partitions[n-1]
}

// SetArmed records the armed state of partition n, including the away,
// stay and no-entry-delay qualifiers.
func (s *Status) SetArmed(n int, armed, away, stay, noEntry bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partition(n)
	if p == nil {
		return
	}
	if p.Armed == armed && p.ArmedAway == away && p.ArmedStay == stay && p.NoEntryDelay == noEntry {
		return
	}
	p.Armed, p.ArmedAway, p.ArmedStay, p.NoEntryDelay = armed, away, stay, noEntry
	p.ArmedChanged = true
	s.Changed = true
}

func (s *Status) SetExitDelay(n int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partition(n)
	if p == nil || p.ExitDelay == on {
		return
	}
	p.ExitDelay = on
	p.ExitDelayChanged = true
	s.Changed = true
}

// SetEntryDelay has no publish dimension of its own; the field gates
// the disarm guard.
func (s *Status) SetEntryDelay(n int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.partition(n); p != nil {
		p.EntryDelay = on
	}
}

func (s *Status) SetAlarm(n int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partition(n)
	if p == nil || p.Alarm == on {
		return
	}
	p.Alarm = on
	p.AlarmChanged = true
	s.Changed = true
}

func (s *Status) SetFire(n int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partition(n)
	if p == nil || p.Fire == on {
		return
	}
	p.Fire = on
	p.FireChanged = true
	s.Changed = true
}

func (s *Status) SetReady(n int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.partition(n); p != nil {
		p.Ready = on
	}
}

func (s *Status) SetDisabled(n int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.partition(n); p != nil {
		p.Disabled = on
	}
}

func (s *Status) SetZone(n int, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OpenZones.Set(n, open) {
		s.ZonesChanged = true
		s.Changed = true
	}
}

func (s *Status) SetOutput(n int, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Outputs.Set(n, on) {
		s.OutputsChanged = true
		s.Changed = true
	}
}

func (s *Status) SetTrouble(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Trouble == on {
		return
	}
	s.Trouble = on
	s.TroubleChanged = true
	s.Changed = true
}

func (s *Status) SetConnected(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Connected == on {
		return
	}
	s.Connected = on
	s.ConnectedChanged = true
	s.Changed = true
}

func (s *Status) SetAccessCodePrompt(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AccessCodePrompt = true
	s.PromptPartition = n
	s.Changed = true
}

func (s *Status) FlagOverflow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BufferOverflow = true
	s.Changed = true
}

// Pending reports whether any publish marker is still set. The caller
// must hold the lock.
func (s *Status) Pending() bool {
	for i := range s.Partitions {
		p := &s.Partitions[i]
		if p.ArmedChanged || p.ExitDelayChanged || p.AlarmChanged || p.FireChanged {
			return true
		}
	}
	return s.ZonesChanged || s.OutputsChanged || s.TroubleChanged || s.ConnectedChanged
}
