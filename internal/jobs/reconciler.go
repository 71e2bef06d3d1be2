package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// PairRepairer repairs two-record relationships left inconsistent by partial writes.
type PairRepairer interface {
	RepairPending(ctx context.Context) (int, error)
	ReconcileAll(ctx context.Context) (int, error)
}

type Reconciler struct {
	Friends PairRepairer
	Groups  PairRepairer
	Posts   PairRepairer
}

// NewReconciler creates a new instance of Reconciler
func NewReconciler(friends, groups, posts PairRepairer) *Reconciler {
	return &Reconciler{
		Friends: friends,
		Groups:  groups,
		Posts:   posts,
	}
}

// RunPending repairs the pairs queued by failed second writes.
func (r *Reconciler) RunPending(ctx context.Context) error {
	friends, errF := r.Friends.RepairPending(ctx)
	groups, errG := r.Groups.RepairPending(ctx)
	posts, errP := r.Posts.RepairPending(ctx)
	if friends+groups+posts > 0 {
		logrus.WithFields(logrus.Fields{"friendships": friends, "memberships": groups, "backrefs": posts}).Info("Repaired queued pairs")
	}
	return errors.Join(wrap("friendships", errF), wrap("memberships", errG), wrap("post back-references", errP))
}

// RunFullScan drains the queue, then repairs every pair referenced anywhere in the store.
func (r *Reconciler) RunFullScan(ctx context.Context) error {
	pendingErr := r.RunPending(ctx)

	friends, errF := r.Friends.ReconcileAll(ctx)
	groups, errG := r.Groups.ReconcileAll(ctx)
	posts, errP := r.Posts.ReconcileAll(ctx)

	logrus.WithFields(logrus.Fields{"friendships": friends, "memberships": groups, "backrefs": posts}).Info("Reconciliation scan completed")
	return errors.Join(pendingErr, wrap("friendships", errF), wrap("memberships", errG), wrap("post back-references", errP))
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to reconcile %s: %w", what, err)
}
