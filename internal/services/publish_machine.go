// internal/services/publish_machine.go
package services

import (
	"errors"
	"fmt"
)

type PublishState string

const (
	PublishInit         PublishState = "init"
	PublishInitializing PublishState = "initializing"
	PublishCreating     PublishState = "creating"
	PublishSigning      PublishState = "signing"
	PublishSubmitting   PublishState = "submitting"
	PublishConfirming   PublishState = "confirming"
	PublishConfirmed    PublishState = "confirmed"
	PublishFailed       PublishState = "failed"
)

var publishProgress = map[PublishState]int{
	PublishInit:         0,
	PublishInitializing: 10,
	PublishCreating:     30,
	PublishSigning:      50,
	PublishSubmitting:   70,
	PublishConfirming:   85,
	PublishConfirmed:    100,
}

func (s PublishState) Terminal() bool {
	return s == PublishConfirmed || s == PublishFailed
}

// Progress is the percentage shown for a state. Failed has no progress of
// its own and reports -1.
func (s PublishState) Progress() int {
	if p, ok := publishProgress[s]; ok {
		return p
	}
	return -1
}

type PublishEventKind string

const (
	EventStart     PublishEventKind = "start"
	EventResolved  PublishEventKind = "resolved"
	EventAssembled PublishEventKind = "assembled"
	EventApproved  PublishEventKind = "approved"
	EventBroadcast PublishEventKind = "broadcast"
	EventReceipt   PublishEventKind = "receipt"
	EventFail      PublishEventKind = "fail"
)

// PublishEvent drives the machine. Hash is carried by approved, GasUsed and
// Fee by receipt, Err by fail.
type PublishEvent struct {
	Kind    PublishEventKind
	Hash    string
	GasUsed uint64
	Fee     string
	Err     error
}

type EffectKind string

const (
	EffectSetProgress        EffectKind = "set_progress"
	EffectCreateTransaction  EffectKind = "create_transaction"
	EffectConfirmTransaction EffectKind = "confirm_transaction"
	EffectNotifyBackend      EffectKind = "notify_backend"
	EffectFailTransaction    EffectKind = "fail_transaction"
)

type Effect struct {
	Kind     EffectKind
	Progress int
	Hash     string
	GasUsed  uint64
	Fee      string
	Err      error
}

var ErrInvalidTransition = errors.New("invalid publish transition")

var forwardSteps = map[PublishState]struct {
	on   PublishEventKind
	next PublishState
}{
	PublishInit:         {EventStart, PublishInitializing},
	PublishInitializing: {EventResolved, PublishCreating},
	PublishCreating:     {EventAssembled, PublishSigning},
	PublishSigning:      {EventApproved, PublishSubmitting},
	PublishSubmitting:   {EventBroadcast, PublishConfirming},
	PublishConfirming:   {EventReceipt, PublishConfirmed},
}

// Transition returns the next state and the effects the caller must apply.
// Terminal states absorb every event. Only the next forward step or a
// failure is accepted from a non-terminal state.
func Transition(state PublishState, event PublishEvent) (PublishState, []Effect, error) {
	if state.Terminal() {
		return state, nil, nil
	}

	if event.Kind == EventFail {
		return PublishFailed, []Effect{{Kind: EffectFailTransaction, Err: event.Err}}, nil
	}

	step, ok := forwardSteps[state]
	if !ok || step.on != event.Kind {
		return state, nil, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event.Kind, state)
	}

	effects := []Effect{{Kind: EffectSetProgress, Progress: step.next.Progress()}}
	switch event.Kind {
	case EventApproved:
		if event.Hash == "" {
			return state, nil, fmt.Errorf("%w: approval without a transaction hash", ErrInvalidTransition)
		}
		effects = append(effects, Effect{Kind: EffectCreateTransaction, Hash: event.Hash})
	case EventReceipt:
		effects = append(effects,
			Effect{Kind: EffectConfirmTransaction, GasUsed: event.GasUsed, Fee: event.Fee},
			Effect{Kind: EffectNotifyBackend},
		)
	}
	return step.next, effects, nil
}

// PublishError reports the state a publish attempt failed in.
type PublishError struct {
	Stage PublishState
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed while %s: %v", e.Stage, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
