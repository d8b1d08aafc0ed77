package status

import (
	"testing"

	"github.com/matheus3301/mesa/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, LoggedOut},
		{Booting, Connecting},
		{Booting, Error},
		{LoggedOut, Connecting},
		{Connecting, Syncing},
		{Syncing, Ready},
		{Ready, Degraded},
		{Degraded, Connecting},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Ready); err == nil {
		t.Error("Transition(BOOTING -> READY) should fail")
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(LoggedOut); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindSessionStatus {
		t.Errorf("event kind = %q, want %q", evt.Kind, bus.KindSessionStatus)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Booting || change.To != LoggedOut {
		t.Errorf("change = %v -> %v, want BOOTING -> LOGGED_OUT", change.From, change.To)
	}
}

// TestLoggedOutToSyncingRequiresConnecting verifies that LOGGED_OUT cannot
// jump directly to SYNCING; a login must bring the watchers up first.
func TestLoggedOutToSyncingRequiresConnecting(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Transition(LoggedOut)

	if err := m.Transition(Syncing); err == nil {
		t.Fatal("Transition(LOGGED_OUT -> SYNCING) should fail; must go through CONNECTING first")
	}
	if m.Current() != LoggedOut {
		t.Errorf("state = %s, want LOGGED_OUT (should not have changed)", m.Current())
	}

	if err := m.Transition(Connecting); err != nil {
		t.Fatalf("LOGGED_OUT -> CONNECTING: %v", err)
	}
	if err := m.Transition(Syncing); err != nil {
		t.Fatalf("CONNECTING -> SYNCING: %v", err)
	}
}

// TestFirstLoginLifecycle simulates the complete first-run lifecycle:
// BOOTING → LOGGED_OUT → CONNECTING → SYNCING → READY
func TestFirstLoginLifecycle(t *testing.T) {
	m := NewMachine(nil)

	steps := []State{LoggedOut, Connecting, Syncing, Ready}
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
	if m.Current() != Ready {
		t.Errorf("final state = %s, want READY", m.Current())
	}
}

// TestDegradeRecoverCycle verifies backend-trouble recovery:
// READY → DEGRADED → CONNECTING → SYNCING → READY
func TestDegradeRecoverCycle(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Ready)

	steps := []State{Degraded, Connecting, Syncing, Ready}
	for _, s := range steps {
		if err := m.Transition(s); err != nil {
			t.Fatalf("Transition to %s: %v (current: %s)", s, err, m.Current())
		}
	}
	if m.Current() != Ready {
		t.Errorf("final state = %s, want READY", m.Current())
	}
}

// TestLogoutFromReady verifies that logging out from READY returns to
// LOGGED_OUT.
func TestLogoutFromReady(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Ready)

	if err := m.Transition(LoggedOut); err != nil {
		t.Fatalf("READY -> LOGGED_OUT: %v", err)
	}
	if m.Current() != LoggedOut {
		t.Errorf("state = %s, want LOGGED_OUT", m.Current())
	}
}

// walkTo is a helper that transitions the machine to a target state.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Booting:    {},
		LoggedOut:  {LoggedOut},
		Connecting: {LoggedOut, Connecting},
		Syncing:    {Connecting, Syncing},
		Ready:      {Connecting, Syncing, Ready},
		Degraded:   {Connecting, Syncing, Degraded},
		Error:      {Error},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
