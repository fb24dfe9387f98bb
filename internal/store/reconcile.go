package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/RiyaSaju106/QuickIT/internal/domain/cart"
)

// reconcile runs once per transition from no session to an active session.
// It fetches the remote authoritative cart, merges it with the local cart
// under the local-wins policy, replaces the local state with the result, and
// re-establishes the remote cart when local activity needs pushing.
//
// The push uses clear-then-add: the remote add endpoint increments existing
// quantities, so re-adding merged quantities on top of the lines already
// present remotely would double-count them. Clearing first gives the push
// absolute set semantics with only the documented endpoints.
func (s *Store) reconcile(ctx context.Context) {
	s.mu.Lock()
	if s.reconciled {
		s.mu.Unlock()
		return
	}
	s.reconciled = true
	s.mu.Unlock()

	remoteLines, err := s.backend.FetchCart(ctx)
	if err != nil {
		// Remote cart unavailable: keep the local cart authoritative and
		// allow a later transition to try again.
		s.lg.Warn("Cart reconciliation fetch failed", zap.Error(err))
		s.mu.Lock()
		s.reconciled = false
		s.mu.Unlock()
		return
	}
	remote := cart.FromLines(remoteLines)

	s.mu.Lock()
	localHadItems := len(s.items) > 0
	merged := cart.Merge(s.items, remote)
	s.items = merged
	s.persistCartLocked(ctx)
	lines := merged.Lines()
	s.mu.Unlock()

	s.lg.Info("Cart reconciled",
		zap.Int("local_wins", len(lines)),
		zap.Int("remote_lines", len(remoteLines)),
		zap.Bool("push", localHadItems),
	)

	// Only pre-login local activity needs pushing; a purely remote cart is
	// already correct on the backend.
	if !localHadItems {
		return
	}

	bg := context.WithoutCancel(ctx)
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		s.pushMerged(bg, lines)
	}()
}

// pushMerged re-establishes the remote cart as the merged mapping: one clear,
// then one add per distinct product, sequentially. Per-line failures are
// logged and do not abort the remaining pushes. A failed clear aborts the
// whole push, since adding on top of unknown remote state would corrupt it.
func (s *Store) pushMerged(ctx context.Context, lines []cart.Line) {
	if err := s.backend.ClearCart(ctx); err != nil {
		s.lg.Warn("Reconciliation push aborted: remote clear failed", zap.Error(err))
		return
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if err := s.backend.AddCartItem(ctx, l.ProductID, l.Quantity); err != nil {
			s.lg.Warn("Reconciliation push failed for item",
				zap.String("product_id", l.ProductID),
				zap.Error(err),
			)
		}
	}
}
