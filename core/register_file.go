package core

import "fmt"

// RegisterError covers register-file related failures: out-of-bounds ids,
// a full file, or writing an already-occupied output register.
type RegisterError struct {
	Kind string
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("register error: %s", e.Kind)
}

// RegisterFile is the fixed-size array of optional resource slots. The
// invariant allocated_count + available_count == size holds by
// construction: both counts are derived from the same slot slice.
type RegisterFile struct {
	slots []*ResourceId
}

func NewRegisterFile(size int) *RegisterFile {
	return &RegisterFile{slots: make([]*ResourceId, size)}
}

func (rf *RegisterFile) Size() int { return len(rf.slots) }

func (rf *RegisterFile) inBounds(id RegisterId) bool {
	return int(id) < len(rf.slots)
}

// Get returns the resource id held in reg, or ok=false if empty.
func (rf *RegisterFile) Get(reg RegisterId) (ResourceId, bool, error) {
	if !rf.inBounds(reg) {
		return "", false, &RegisterError{Kind: fmt.Sprintf("register %d out of bounds", reg)}
	}
	slot := rf.slots[reg]
	if slot == nil {
		return "", false, nil
	}
	return *slot, true, nil
}

// Set writes a resource id into reg. Callers must have already verified
// reg was empty (write-once per instruction output, §3 Lifecycle).
func (rf *RegisterFile) Set(reg RegisterId, id ResourceId) error {
	if !rf.inBounds(reg) {
		return &RegisterError{Kind: fmt.Sprintf("register %d out of bounds", reg)}
	}
	v := id
	rf.slots[reg] = &v
	return nil
}

// Clear empties reg, used by Consume on its resource register.
func (rf *RegisterFile) Clear(reg RegisterId) error {
	if !rf.inBounds(reg) {
		return &RegisterError{Kind: fmt.Sprintf("register %d out of bounds", reg)}
	}
	rf.slots[reg] = nil
	return nil
}

func (rf *RegisterFile) AllocatedCount() int {
	n := 0
	for _, s := range rf.slots {
		if s != nil {
			n++
		}
	}
	return n
}

func (rf *RegisterFile) AvailableCount() int {
	return len(rf.slots) - rf.AllocatedCount()
}

// Snapshot copies the current slot contents for trace recording.
func (rf *RegisterFile) Snapshot() []*ResourceId {
	out := make([]*ResourceId, len(rf.slots))
	for i, s := range rf.slots {
		if s != nil {
			v := *s
			out[i] = &v
		}
	}
	return out
}
