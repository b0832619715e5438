package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	steps := []struct {
		event Event
		want  State
	}{
		{EventStart, StateRecording},
		{EventStop, StateFinalizing},
		{EventFinalized, StateThinking},
		{EventResponded, StateSpeaking},
		{EventSpoken, StateIdle},
	}

	for _, step := range steps {
		next, err := Transition(s, step.event)
		require.NoError(t, err)
		require.Equal(t, step.want, next)
		s = next
	}
}

func TestTransitionEmptyTranscriptReturnsIdle(t *testing.T) {
	next, err := Transition(StateFinalizing, EventEmpty)
	require.NoError(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionFailFromAnyNonIdleStateGoesError(t *testing.T) {
	states := []State{StateRecording, StateFinalizing, StateThinking, StateSpeaking, StateError}
	for _, state := range states {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)
	}

	next, err := Transition(StateIdle, EventFail)
	require.Error(t, err)
	require.Equal(t, StateIdle, next)
}

func TestTransitionResetFromAnyStateGoesIdle(t *testing.T) {
	states := []State{StateIdle, StateRecording, StateFinalizing, StateThinking, StateSpeaking, StateError}
	for _, state := range states {
		next, err := Transition(state, EventReset)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next)
	}
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle stop invalid", state: StateIdle, event: EventStop, want: StateIdle, wantErr: true},
		{name: "idle recover invalid", state: StateIdle, event: EventRecover, want: StateIdle, wantErr: true},
		{name: "recording start invalid", state: StateRecording, event: EventStart, want: StateRecording, wantErr: true},
		{name: "recording responded invalid", state: StateRecording, event: EventResponded, want: StateRecording, wantErr: true},
		{name: "finalizing stop invalid", state: StateFinalizing, event: EventStop, want: StateFinalizing, wantErr: true},
		{name: "thinking start invalid", state: StateThinking, event: EventStart, want: StateThinking, wantErr: true},
		{name: "thinking spoken invalid", state: StateThinking, event: EventSpoken, want: StateThinking, wantErr: true},
		{name: "speaking stop invalid", state: StateSpeaking, event: EventStop, want: StateSpeaking, wantErr: true},
		{name: "error start invalid", state: StateError, event: EventStart, want: StateError, wantErr: true},
		{name: "error recover valid", state: StateError, event: EventRecover, want: StateIdle, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventStart)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)

	_, err = Transition(State("mystery"), EventReset)
	require.Error(t, err)
}

func TestBusy(t *testing.T) {
	require.False(t, Busy(StateIdle))
	require.False(t, Busy(StateRecording))
	require.True(t, Busy(StateFinalizing))
	require.True(t, Busy(StateThinking))
	require.True(t, Busy(StateSpeaking))
}
