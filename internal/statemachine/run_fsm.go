package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// Recognition run states
const (
	RunStateStart       = "start"
	RunStateFetching    = "fetching"
	RunStateProcessing  = "processing"
	RunStateAggregating = "aggregating"
	RunStateDone        = "done"
	RunStateFailed      = "failed"
)

// Recognition run events
const (
	RunEventFetch     = "fetch"
	RunEventProcess   = "process"
	RunEventAggregate = "aggregate"
	RunEventFinish    = "finish"
	RunEventFail      = "fail"
)

// RunFSM tracks the lifecycle of one recognition run:
// start → fetching → processing → aggregating → done, or fetching → failed.
type RunFSM struct {
	fsm *fsm.FSM
}

// NewRunFSM creates a run state machine in the start state. onEnter, when
// not nil, is called with the new state after every transition.
func NewRunFSM(onEnter func(state string)) *RunFSM {
	callbacks := fsm.Callbacks{}
	if onEnter != nil {
		callbacks["enter_state"] = func(_ context.Context, e *fsm.Event) {
			onEnter(e.Dst)
		}
	}

	return &RunFSM{
		fsm: fsm.NewFSM(
			RunStateStart,
			fsm.Events{
				{Name: RunEventFetch, Src: []string{RunStateStart}, Dst: RunStateFetching},
				{Name: RunEventProcess, Src: []string{RunStateFetching}, Dst: RunStateProcessing},
				{Name: RunEventAggregate, Src: []string{RunStateProcessing}, Dst: RunStateAggregating},
				{Name: RunEventFinish, Src: []string{RunStateAggregating}, Dst: RunStateDone},
				{Name: RunEventFail, Src: []string{RunStateFetching}, Dst: RunStateFailed},
			},
			callbacks,
		),
	}
}

// Fire triggers event and returns an error if it is not allowed in the current state
func (r *RunFSM) Fire(ctx context.Context, event string) error {
	if err := r.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("run cannot %s from %s: %w", event, r.fsm.Current(), err)
	}
	return nil
}

// Current returns the current state
func (r *RunFSM) Current() string {
	return r.fsm.Current()
}

// Done reports whether the run reached a terminal state
func (r *RunFSM) Done() bool {
	current := r.fsm.Current()
	return current == RunStateDone || current == RunStateFailed
}
