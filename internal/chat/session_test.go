package chat

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "connecting"},
		{StateAuthenticating, "authenticating"},
		{StateJoined, "joined"},
		{StateActive, "active"},
		{StateClosed, "closed"},
		{State(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, expected %q", tt.state, got, tt.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"connecting to authenticating", StateConnecting, StateAuthenticating, true},
		{"authenticating to joined", StateAuthenticating, StateJoined, true},
		{"joined to active", StateJoined, StateActive, true},
		{"active to closed", StateActive, StateClosed, true},
		{"any state may close", StateConnecting, StateClosed, true},
		{"authenticating may close", StateAuthenticating, StateClosed, true},
		{"no skipping forward", StateConnecting, StateJoined, false},
		{"no going back", StateActive, StateJoined, false},
		{"closed is terminal", StateClosed, StateConnecting, false},
		{"closed cannot re-close", StateClosed, StateClosed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, expected %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}
