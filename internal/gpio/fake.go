package gpio

// FakeLight is a test double that records every Set call.
type FakeLight struct {
	// Calls contains the value of every Set call, in order.
	Calls []bool

	// On is the current light state.
	On bool

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set() and the state left unchanged.
	SetError error
}

// NewFakeLight creates a FakeLight that starts off.
func NewFakeLight() *FakeLight {
	return &FakeLight{}
}

// Set records the call and updates On.
func (f *FakeLight) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Calls = append(f.Calls, on)
	f.On = on
	return nil
}

// Close switches the light off and marks it closed.
func (f *FakeLight) Close() error {
	f.On = false
	f.Closed = true
	return nil
}

// Switches returns the number of calls that changed the light state.
func (f *FakeLight) Switches() int {
	n := 0
	prev := false
	for _, c := range f.Calls {
		if c != prev {
			n++
		}
		prev = c
	}
	return n
}
