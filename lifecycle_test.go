package verc20

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowCreateOrderPath(t *testing.T) {
	// Listing tx, then the typed-data signature, then the indexer publish.
	flow := NewFlow("order-create:punk")
	require.NoError(t, flow.AwaitSignature())
	require.NoError(t, flow.AwaitConfirmation())
	flow.ConfirmTx("0xabc")
	require.NoError(t, flow.AwaitSignature())
	require.NoError(t, flow.AwaitIndexer())
	require.NoError(t, flow.Succeed())

	assert.True(t, flow.Done())
	assert.Equal(t, StateSucceeded, flow.State())
	assert.Equal(t, FailureNone, flow.Failure())
}

func TestFlowTakeBidPath(t *testing.T) {
	// Freeze signature, freeze ack, then the settlement tx.
	flow := NewFlow("order-take:7")
	require.NoError(t, flow.AwaitSignature())
	require.NoError(t, flow.AwaitIndexer())
	require.NoError(t, flow.AwaitSignature())
	require.NoError(t, flow.AwaitConfirmation())
	flow.ConfirmTx("0xdef")
	require.NoError(t, flow.AwaitIndexer())
	require.NoError(t, flow.Succeed())

	assert.Equal(t, StateSucceeded, flow.State())
}

func TestFlowRejectsIllegalTransitions(t *testing.T) {
	flow := NewFlow("mint:punk")
	assert.Error(t, flow.AwaitConfirmation(), "cannot wait for a tx before the signature step")
	assert.Error(t, flow.Succeed(), "cannot succeed from idle")

	require.NoError(t, flow.AwaitSignature())
	require.NoError(t, flow.AwaitConfirmation())
	require.NoError(t, flow.Succeed())
	assert.Error(t, flow.AwaitSignature(), "terminal states accept no transitions")
}

func TestFlowIndexerFailureWithoutDurableTx(t *testing.T) {
	flow := NewFlow("order-take:7")
	require.NoError(t, flow.AwaitSignature())
	require.NoError(t, flow.AwaitIndexer())

	cause := &IndexerError{Endpoint: "/market/orders/7/freeze", Status: 502, Message: "bad gateway"}
	err := flow.FailIndexer("freeze", cause)

	assert.Equal(t, StateFailed, flow.State())
	assert.Equal(t, FailureIndexer, flow.Failure())
	assert.False(t, flow.Inconsistent(), "no chain state yet, plain retryable failure")
	assert.False(t, IsInconsistency(err))
	var ie *IndexerError
	assert.ErrorAs(t, err, &ie)
}

func TestFlowIndexerFailureAfterDurableTx(t *testing.T) {
	flow := NewFlow("order-create:punk")
	require.NoError(t, flow.AwaitSignature())
	require.NoError(t, flow.AwaitConfirmation())
	flow.ConfirmTx("0xabc")
	require.NoError(t, flow.AwaitSignature())
	require.NoError(t, flow.AwaitIndexer())

	cause := &IndexerError{Endpoint: "/market/orders", Status: 500, Message: "boom"}
	err := flow.FailIndexer("order publish", cause)

	assert.True(t, flow.Inconsistent())
	assert.True(t, IsInconsistency(err))

	var inc *InconsistencyError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, "0xabc", inc.TxHash)
	assert.Equal(t, "order publish", inc.Step)
	assert.ErrorContains(t, err, "confirmed but order publish failed")
}

func TestFlowFailureClassification(t *testing.T) {
	flow := NewFlow("deploy:punk")
	err := flow.Fail(FailureValidation, &ValidationError{Field: "tick", Message: "empty"})

	assert.Equal(t, StateFailed, flow.State())
	assert.Equal(t, FailureValidation, flow.Failure())
	assert.Equal(t, err, flow.Err())
}

func TestFlowGateRefusesConcurrentSubject(t *testing.T) {
	gate := newFlowGate()

	first, err := gate.begin("order-take:7")
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = gate.begin("order-take:7")
	assert.True(t, errors.Is(err, ErrFlowInFlight))

	// A different subject is unaffected.
	_, err = gate.begin("order-take:8")
	assert.NoError(t, err)

	gate.end("order-take:7")
	_, err = gate.begin("order-take:7")
	assert.NoError(t, err)
}
