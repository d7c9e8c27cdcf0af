package state_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrocha/chatterm/internal/state"
	"github.com/mrocha/chatterm/pkg/wire"
)

// ackRecorder counts acknowledgement calls per message id and can fail
// selected ids.
type ackRecorder struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newAckRecorder() *ackRecorder {
	return &ackRecorder{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (a *ackRecorder) ack(_ context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls[id]++
	if a.fail[id] {
		return errors.New("backend rejected receipt")
	}
	return nil
}

func (a *ackRecorder) count(id string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[id]
}

func threadFor(self string) []wire.Message {
	return []wire.Message{
		{ID: "m1", Content: "one", Sender: "b@x.com", Receiver: self},
		{ID: "m2", Content: "two", Sender: "b@x.com", Receiver: self},
		{Content: "optimistic, no id yet", Sender: self, Receiver: "b@x.com"},
		{ID: "m3", Content: "sent by self", Sender: self, Receiver: "b@x.com"},
	}
}

func TestReconciler_AcksInboundConfirmedMessages(t *testing.T) {
	rec := newAckRecorder()
	r := state.NewReconciler(rec.ack)

	attempted := r.Reconcile(context.Background(), threadFor("a@x.com"), "a@x.com")

	assert.Equal(t, 2, attempted, "only inbound messages with ids qualify")
	assert.Equal(t, 1, rec.count("m1"))
	assert.Equal(t, 1, rec.count("m2"))
	assert.Zero(t, rec.count("m3"), "own messages are never acknowledged")
	assert.True(t, r.Acked("m1"))
	assert.True(t, r.Acked("m2"))
}

func TestReconciler_NeverRepeatsAnAck(t *testing.T) {
	rec := newAckRecorder()
	r := state.NewReconciler(rec.ack)
	msgs := threadFor("a@x.com")

	require.Equal(t, 2, r.Reconcile(context.Background(), msgs, "a@x.com"))
	assert.Zero(t, r.Reconcile(context.Background(), msgs, "a@x.com"), "second pass finds nothing new")
	assert.Equal(t, 1, rec.count("m1"), "no duplicate backend call")
}

func TestReconciler_FailedAckStillMarksAttempted(t *testing.T) {
	rec := newAckRecorder()
	rec.fail["m1"] = true
	r := state.NewReconciler(rec.ack)
	msgs := threadFor("a@x.com")

	require.Equal(t, 2, r.Reconcile(context.Background(), msgs, "a@x.com"))

	// Fire-and-forget: the failure is not retried.
	assert.True(t, r.Acked("m1"))
	assert.Zero(t, r.Reconcile(context.Background(), msgs, "a@x.com"))
	assert.Equal(t, 1, rec.count("m1"))
}

func TestReconciler_FailureDoesNotBlockOthers(t *testing.T) {
	rec := newAckRecorder()
	rec.fail["m1"] = true
	r := state.NewReconciler(rec.ack)

	r.Reconcile(context.Background(), threadFor("a@x.com"), "a@x.com")

	assert.Equal(t, 1, rec.count("m2"), "independent acks proceed despite a failure")
	assert.True(t, r.Acked("m2"))
}

func TestReconciler_SetOnlyGrowsUntilReset(t *testing.T) {
	rec := newAckRecorder()
	r := state.NewReconciler(rec.ack)
	msgs := threadFor("a@x.com")

	r.Reconcile(context.Background(), msgs, "a@x.com")
	require.Equal(t, 2, r.Size())

	// New messages only add to the set.
	more := append(msgs, wire.Message{ID: "m4", Sender: "b@x.com", Receiver: "a@x.com"})
	r.Reconcile(context.Background(), more, "a@x.com")
	assert.Equal(t, 3, r.Size())

	r.Reset()
	assert.Zero(t, r.Size())

	// After a selection change the same ids qualify again.
	assert.Equal(t, 3, r.Reconcile(context.Background(), more, "a@x.com"))
}
