package verc20

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// FlowState is the position of one in-flight attempt (create, take, cancel,
// deploy, mint, transfer). Every suspension point of a multi-step flow is a
// named state so partial completion is inspectable rather than buried in
// callback closures.
type FlowState int

const (
	StateIdle FlowState = iota
	StateAwaitingSignature
	StateAwaitingConfirmation
	StateAwaitingIndexer
	StateSucceeded
	StateFailed
)

func (s FlowState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSignature:
		return "awaiting-signature"
	case StateAwaitingConfirmation:
		return "awaiting-confirmation"
	case StateAwaitingIndexer:
		return "awaiting-indexer"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// FailureKind classifies a failed attempt per the error taxonomy.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureRejected: wallet declined; recoverable by re-prompting.
	FailureRejected
	// FailureValidation: blocked before any network or chain call.
	FailureValidation
	// FailureChain: tx reverted or failed to confirm; no indexer call follows.
	FailureChain
	// FailureIndexer: indexer call failed. If an on-chain action already
	// succeeded this is the inconsistency class and must not be auto-retried.
	FailureIndexer
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureRejected:
		return "rejected"
	case FailureValidation:
		return "validation"
	case FailureChain:
		return "chain"
	case FailureIndexer:
		return "indexer"
	}
	return "unknown"
}

// Flow tracks one attempt. It records which on-chain truths are durable so
// a late indexer failure can be told apart from a plain network error.
type Flow struct {
	subject   string
	state     FlowState
	failure   FailureKind
	durableTx string
	err       error
}

// NewFlow starts an attempt for a subject in the Idle state.
func NewFlow(subject string) *Flow {
	return &Flow{subject: subject, state: StateIdle}
}

func (f *Flow) Subject() string      { return f.subject }
func (f *Flow) State() FlowState     { return f.state }
func (f *Flow) Failure() FailureKind { return f.failure }
func (f *Flow) Err() error           { return f.err }

// DurableTx is the hash of the confirmed on-chain transaction, if any.
func (f *Flow) DurableTx() string { return f.durableTx }

// Done reports whether the attempt reached a terminal state.
func (f *Flow) Done() bool {
	return f.state == StateSucceeded || f.state == StateFailed
}

var flowTransitions = map[FlowState][]FlowState{
	StateIdle:              {StateAwaitingSignature},
	StateAwaitingSignature: {StateAwaitingConfirmation, StateAwaitingIndexer},
	// Confirmation may lead back to a signature request: order creation
	// signs the typed message only after the listing tx is mined.
	StateAwaitingConfirmation: {StateAwaitingSignature, StateAwaitingIndexer, StateSucceeded},
	// An indexer ack may precede another wallet prompt and chain call:
	// taking a bid posts the freeze before executeOrder.
	StateAwaitingIndexer: {StateAwaitingSignature, StateAwaitingConfirmation, StateSucceeded},
}

func (f *Flow) transition(next FlowState) error {
	if f.Done() {
		return errors.Newf("flow %s already %s", f.subject, f.state)
	}
	for _, allowed := range flowTransitions[f.state] {
		if allowed == next {
			f.state = next
			return nil
		}
	}
	return errors.Newf("flow %s: illegal transition %s -> %s", f.subject, f.state, next)
}

// AwaitSignature enters the wallet-prompt suspension point.
func (f *Flow) AwaitSignature() error {
	return f.transition(StateAwaitingSignature)
}

// AwaitConfirmation enters the chain-inclusion suspension point.
func (f *Flow) AwaitConfirmation() error {
	return f.transition(StateAwaitingConfirmation)
}

// ConfirmTx records a mined transaction as durable on-chain truth.
func (f *Flow) ConfirmTx(txHash string) {
	f.durableTx = txHash
}

// AwaitIndexer enters the indexer-acknowledgment suspension point.
func (f *Flow) AwaitIndexer() error {
	return f.transition(StateAwaitingIndexer)
}

// Succeed marks the attempt complete.
func (f *Flow) Succeed() error {
	return f.transition(StateSucceeded)
}

// Fail marks the attempt failed with the given classification.
func (f *Flow) Fail(kind FailureKind, err error) error {
	f.state = StateFailed
	f.failure = kind
	f.err = err
	return err
}

// FailIndexer classifies an indexer failure. With a durable tx on record it
// becomes an InconsistencyError; otherwise it stays a retryable failure.
func (f *Flow) FailIndexer(step string, err error) error {
	if f.durableTx != "" {
		err = &InconsistencyError{TxHash: f.durableTx, Step: step, Cause: err}
	}
	return f.Fail(FailureIndexer, err)
}

// Inconsistent reports whether the attempt left chain and indexer state
// divergent.
func (f *Flow) Inconsistent() bool {
	return f.state == StateFailed && f.failure == FailureIndexer && f.durableTx != ""
}

// flowGate disables a second attempt for a subject while one is in flight.
type flowGate struct {
	mu       sync.Mutex
	inFlight map[string]*Flow
}

func newFlowGate() *flowGate {
	return &flowGate{inFlight: make(map[string]*Flow)}
}

// begin registers a new attempt, refusing if the subject is busy.
func (g *flowGate) begin(subject string) (*Flow, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[subject]; busy {
		return nil, errors.Wrapf(ErrFlowInFlight, "subject %s", subject)
	}
	flow := NewFlow(subject)
	g.inFlight[subject] = flow
	return flow, nil
}

func (g *flowGate) end(subject string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, subject)
}
