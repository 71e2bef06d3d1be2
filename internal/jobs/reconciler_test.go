package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRepairer struct {
	pending, scanned int
	err              error
}

func (f *fakeRepairer) RepairPending(context.Context) (int, error) {
	f.pending++
	return 1, nil
}

func (f *fakeRepairer) ReconcileAll(context.Context) (int, error) {
	f.scanned++
	return 2, f.err
}

func TestRunFullScanDrainsQueueFirst(t *testing.T) {
	friends, groups, posts := &fakeRepairer{}, &fakeRepairer{}, &fakeRepairer{}
	r := NewReconciler(friends, groups, posts)

	assert.NoError(t, r.RunFullScan(context.Background()))
	for _, f := range []*fakeRepairer{friends, groups, posts} {
		assert.Equal(t, 1, f.pending)
		assert.Equal(t, 1, f.scanned)
	}
}

func TestRunFullScanReportsErrors(t *testing.T) {
	boom := errors.New("store down")
	r := NewReconciler(&fakeRepairer{}, &fakeRepairer{err: boom}, &fakeRepairer{})

	err := r.RunFullScan(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "memberships")

	r = NewReconciler(&fakeRepairer{}, &fakeRepairer{}, &fakeRepairer{err: boom})
	err = r.RunFullScan(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "post back-references")
}

func TestRunPendingOnly(t *testing.T) {
	friends, groups, posts := &fakeRepairer{}, &fakeRepairer{}, &fakeRepairer{}
	r := NewReconciler(friends, groups, posts)

	assert.NoError(t, r.RunPending(context.Background()))
	assert.Zero(t, friends.scanned)
	assert.Equal(t, 1, groups.pending)
	assert.Equal(t, 1, posts.pending)
}
