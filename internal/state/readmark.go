package state

import (
	"context"
	"sync"

	"github.com/mrocha/chatterm/internal/logger"
	"github.com/mrocha/chatterm/pkg/wire"
)

// AckFunc confirms one message id as read to the backend.
type AckFunc func(ctx context.Context, messageID string) error

// Reconciler tracks which messages of the open thread have been
// acknowledged as read. Acknowledgement is fire-and-forget: every
// attempted id enters the set whether or not its call succeeded, so a
// failed acknowledgement is never retried. The set is scoped to one
// selection and reset when the selection changes.
type Reconciler struct {
	ack   AckFunc
	acked map[string]struct{}
}

// NewReconciler creates a reconciler that acknowledges via ack.
func NewReconciler(ack AckFunc) *Reconciler {
	return &Reconciler{
		ack:   ack,
		acked: make(map[string]struct{}),
	}
}

// Claim collects every message addressed to self that has an id and
// has not been attempted yet, and marks all of them attempted. The
// caller owns issuing the actual calls. Claiming before the calls
// resolve is what makes acknowledgement fire-and-forget.
func (r *Reconciler) Claim(messages []wire.Message, self string) []string {
	var pending []string
	for i := range messages {
		m := &messages[i]
		if m.Receiver != self || !m.Confirmed() {
			continue
		}
		if _, done := r.acked[m.ID]; done {
			continue
		}
		r.acked[m.ID] = struct{}{}
		pending = append(pending, m.ID)
	}
	return pending
}

// Reconcile claims the qualifying messages and acknowledges them. The
// calls run concurrently and independently; failures are logged, never
// surfaced, and do not block the others. It returns the number of
// acknowledgements attempted and blocks until all of them have
// resolved.
func (r *Reconciler) Reconcile(ctx context.Context, messages []wire.Message, self string) int {
	pending := r.Claim(messages, self)
	if len(pending) == 0 {
		return 0
	}

	var wg sync.WaitGroup
	for _, id := range pending {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := r.ack(ctx, id); err != nil {
				logger.Log.Warn("read acknowledgement failed", "message_id", id, "error", err)
			}
		}(id)
	}
	wg.Wait()

	return len(pending)
}

// Acked reports whether an acknowledgement for id has been attempted.
func (r *Reconciler) Acked(id string) bool {
	_, ok := r.acked[id]
	return ok
}

// Reset clears the set for a new selection.
func (r *Reconciler) Reset() {
	r.acked = make(map[string]struct{})
}

// Size returns how many ids have been attempted this selection.
func (r *Reconciler) Size() int {
	return len(r.acked)
}
