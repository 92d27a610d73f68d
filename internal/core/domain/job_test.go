package domain

import "testing"

func TestJobStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusError, true},
		{StatusPending, StatusReady, false},
		{StatusProcessing, StatusReady, true},
		{StatusProcessing, StatusError, true},
		{StatusProcessing, StatusPending, false},
		{StatusReady, StatusProcessing, false},
		{StatusReady, StatusError, false},
		{StatusError, StatusProcessing, false},
		{StatusError, StatusReady, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	for _, s := range []JobStatus{StatusPending, StatusProcessing} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusReady, StatusError} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
}
