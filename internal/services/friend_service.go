package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/internal/lock"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Relation is the state of an ordered pair (a, b) of users.
type Relation int

const (
	Unrelated Relation = iota
	// RequestedByA means a has sent b a request that b has not answered.
	RequestedByA
	// RequestedByB means b has sent a a request that a has not answered.
	RequestedByB
	Friends
)

func (r Relation) String() string {
	switch r {
	case RequestedByA:
		return "requested"
	case RequestedByB:
		return "received"
	case Friends:
		return "friends"
	default:
		return "unrelated"
	}
}

func (r Relation) flip() Relation {
	switch r {
	case RequestedByA:
		return RequestedByB
	case RequestedByB:
		return RequestedByA
	default:
		return r
	}
}

// claims lists every state a's record asserts about b. A well-formed record asserts at most one.
func claims(a *models.User, b primitive.ObjectID) []Relation {
	var out []Relation
	if models.ContainsID(a.Friends, b) {
		out = append(out, Friends)
	}
	if models.ContainsID(a.SentRequests, b) {
		out = append(out, RequestedByA)
	}
	if models.ContainsID(a.ReceivedRequests, b) {
		out = append(out, RequestedByB)
	}
	return out
}

// view is the single state a's record describes, or false when it is ambiguous.
func view(a *models.User, b primitive.ObjectID) (Relation, bool) {
	c := claims(a, b)
	switch len(c) {
	case 0:
		return Unrelated, true
	case 1:
		return c[0], true
	default:
		return Unrelated, false
	}
}

// consistent reports whether both records describe the same single state.
func consistent(a, b *models.User) bool {
	va, okA := view(a, b.ID)
	vb, okB := view(b, a.ID)
	return okA && okB && va == vb.flip()
}

// resolve picks the strongest state either record asserts: Friends beats a request,
// a request beats Unrelated. Two opposite requests resolve to the one sent by the
// user with the smaller id.
func resolve(a, b *models.User) Relation {
	all := claims(a, b.ID)
	for _, r := range claims(b, a.ID) {
		all = append(all, r.flip())
	}

	var byA, byB bool
	for _, r := range all {
		switch r {
		case Friends:
			return Friends
		case RequestedByA:
			byA = true
		case RequestedByB:
			byB = true
		}
	}
	switch {
	case byA && byB:
		if a.ID.Hex() < b.ID.Hex() {
			return RequestedByA
		}
		return RequestedByB
	case byA:
		return RequestedByA
	case byB:
		return RequestedByB
	}
	return Unrelated
}

// apply rewrites a's record so that it describes exactly r towards b.
func apply(a *models.User, b primitive.ObjectID, r Relation) {
	a.Friends = models.RemoveID(a.Friends, b)
	a.SentRequests = models.RemoveID(a.SentRequests, b)
	a.ReceivedRequests = models.RemoveID(a.ReceivedRequests, b)
	switch r {
	case Friends:
		a.Friends = append(a.Friends, b)
	case RequestedByA:
		a.SentRequests = append(a.SentRequests, b)
	case RequestedByB:
		a.ReceivedRequests = append(a.ReceivedRequests, b)
	}
}

// FriendService is the friend request and friendship state machine over pairs of user records.
type FriendService struct {
	users   repository.UserStore
	locker  lock.Locker
	events  events.Publisher
	clock   util.Clock
	pending *pairQueue
}

// NewFriendService creates a new FriendService.
func NewFriendService(users repository.UserStore, locker lock.Locker, publisher events.Publisher, clock util.Clock) *FriendService {
	return &FriendService{
		users:   users,
		locker:  locker,
		events:  publisher,
		clock:   clock,
		pending: newPairQueue(),
	}
}

// decision computes the next state of (a, b) from the resolved current one.
// Returning an error aborts the transition without writing.
type decision func(current Relation) (Relation, error)

// transition runs one two-record read-modify-write on the pair (a, b) under both user locks.
// a's record is written first. A failed second write is logged and queued for repair, and
// the operation still reports success.
func (s *FriendService) transition(ctx context.Context, op string, a, b primitive.ObjectID, decide decision) (Relation, Relation, error) {
	if a == b {
		return Unrelated, Unrelated, ErrSelfRequest
	}

	release, err := s.locker.Lock(ctx, userKey(a), userKey(b))
	if err != nil {
		return Unrelated, Unrelated, lockErr(op, err)
	}
	defer release()

	ua, ub, err := s.loadPair(ctx, op, a, b)
	if err != nil {
		return Unrelated, Unrelated, err
	}

	current := resolve(ua, ub)
	next, err := decide(current)
	if err != nil {
		return current, current, err
	}
	if next == current && consistent(ua, ub) {
		return current, next, nil
	}

	apply(ua, b, next)
	apply(ub, a, next.flip())

	if err := s.users.ReplaceUser(ctx, ua); err != nil {
		logrus.WithFields(logrus.Fields{"op": op, "userID": a.Hex(), "error": err}).Error("Failed to write first record")
		return current, current, storeErr(op, err)
	}
	if err := s.users.ReplaceUser(ctx, ub); err != nil {
		logrus.WithFields(logrus.Fields{
			"op":          op,
			"userID":      a.Hex(),
			"counterpart": b.Hex(),
			"error":       err,
		}).Error("Failed to write second record, pair queued for repair")
		s.pending.add(newPair(a, b))
	}

	return current, next, nil
}

func (s *FriendService) loadPair(ctx context.Context, op string, a, b primitive.ObjectID) (*models.User, *models.User, error) {
	ua, err := s.loadUser(ctx, op, a)
	if err != nil {
		return nil, nil, err
	}
	ub, err := s.loadUser(ctx, op, b)
	if err != nil {
		return nil, nil, err
	}
	return ua, ub, nil
}

func (s *FriendService) loadUser(ctx context.Context, op string, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoSuchUser)
		}
		return nil, storeErr(op, err)
	}
	return u, nil
}

// SendRequest records a pending request from -> to. Sending again, or to a friend, is a no-op.
func (s *FriendService) SendRequest(ctx context.Context, from, to primitive.ObjectID) error {
	prev, next, err := s.transition(ctx, "send friend request", from, to, func(current Relation) (Relation, error) {
		switch current {
		case Unrelated:
			return RequestedByA, nil
		case RequestedByB:
			return current, ErrAlreadyRelated
		default:
			return current, nil
		}
	})
	if err != nil {
		return err
	}

	if prev == Unrelated && next == RequestedByA {
		s.publish(ctx, events.FriendRequested, to, from)
		logrus.WithFields(logrus.Fields{"from": from.Hex(), "to": to.Hex()}).Info("Friend request sent")
	}
	return nil
}

// AcceptRequest turns a pending request requester -> responder into a friendship.
// Without such a request it does nothing.
func (s *FriendService) AcceptRequest(ctx context.Context, responder, requester primitive.ObjectID) error {
	prev, next, err := s.transition(ctx, "accept friend request", responder, requester, func(current Relation) (Relation, error) {
		if current == RequestedByB {
			return Friends, nil
		}
		return current, nil
	})
	if err != nil {
		return err
	}

	if prev == RequestedByB && next == Friends {
		s.publish(ctx, events.FriendAccepted, requester, responder)
		logrus.WithFields(logrus.Fields{"responder": responder.Hex(), "requester": requester.Hex()}).Info("Friend request accepted")
	}
	return nil
}

// DeclineRequest drops a pending request requester -> responder.
func (s *FriendService) DeclineRequest(ctx context.Context, responder, requester primitive.ObjectID) error {
	_, _, err := s.transition(ctx, "decline friend request", responder, requester, func(current Relation) (Relation, error) {
		if current == RequestedByB {
			return Unrelated, nil
		}
		return current, nil
	})
	return err
}

// Unfriend ends a friendship. The two users may request each other again afterwards.
func (s *FriendService) Unfriend(ctx context.Context, a, b primitive.ObjectID) error {
	_, _, err := s.transition(ctx, "unfriend", a, b, func(current Relation) (Relation, error) {
		if current == Friends {
			return Unrelated, nil
		}
		return current, nil
	})
	return err
}

// Repair rewrites both records of the pair to the strongest state either of them asserts.
// It is idempotent and writes nothing when the pair is already consistent.
func (s *FriendService) Repair(ctx context.Context, a, b primitive.ObjectID) error {
	_, _, err := s.transition(ctx, "repair friendship", a, b, func(current Relation) (Relation, error) {
		return current, nil
	})
	return err
}

// Status returns the state of (a, b) as seen from a.
func (s *FriendService) Status(ctx context.Context, a, b primitive.ObjectID) (Relation, error) {
	if a == b {
		return Unrelated, nil
	}
	ua, ub, err := s.loadPair(ctx, "relationship status", a, b)
	if err != nil {
		return Unrelated, err
	}
	return resolve(ua, ub), nil
}

// PendingRepairs is the number of pairs waiting for the next RepairPending call.
func (s *FriendService) PendingRepairs() int {
	return s.pending.len()
}

// RepairPending repairs every pair left inconsistent by a failed second write.
// Pairs that still fail are queued again.
func (s *FriendService) RepairPending(ctx context.Context) (int, error) {
	var errs []error
	repaired := 0
	for _, p := range s.pending.drain() {
		if err := s.Repair(ctx, p[0], p[1]); err != nil {
			if !errors.Is(err, ErrNoSuchEntity) {
				s.pending.add(p)
			}
			errs = append(errs, err)
			continue
		}
		repaired++
	}
	return repaired, errors.Join(errs...)
}

// ReconcileAll scans every user and repairs every pair referenced by a relationship set.
// Self references and references to users that no longer exist are dropped.
func (s *FriendService) ReconcileAll(ctx context.Context) (int, error) {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return 0, storeErr("reconcile friendships", err)
	}

	known := make(map[primitive.ObjectID]struct{}, len(users))
	for _, u := range users {
		known[u.ID] = struct{}{}
	}

	seen := make(map[pair]struct{})
	var errs []error
	for _, u := range users {
		var dangling []primitive.ObjectID
		for _, refs := range [][]primitive.ObjectID{u.Friends, u.SentRequests, u.ReceivedRequests} {
			for _, other := range refs {
				if _, ok := known[other]; !ok || other == u.ID {
					dangling = append(dangling, other)
					continue
				}
				seen[newPair(u.ID, other)] = struct{}{}
			}
		}
		if len(dangling) > 0 {
			if err := s.dropReferences(ctx, u.ID, dangling); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for p := range seen {
		if err := s.Repair(ctx, p[0], p[1]); err != nil {
			errs = append(errs, err)
		}
	}
	return len(seen), errors.Join(errs...)
}

func (s *FriendService) dropReferences(ctx context.Context, id primitive.ObjectID, refs []primitive.ObjectID) error {
	release, err := s.locker.Lock(ctx, userKey(id))
	if err != nil {
		return lockErr("drop references", err)
	}
	defer release()

	u, err := s.loadUser(ctx, "drop references", id)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if ref != id {
			// registered after the scan started
			if _, err := s.users.GetUserByID(ctx, ref); err == nil {
				continue
			}
		}
		apply(u, ref, Unrelated)
	}
	if err := s.users.ReplaceUser(ctx, u); err != nil {
		return storeErr("drop references", err)
	}
	logrus.WithFields(logrus.Fields{"userID": id.Hex(), "count": len(refs)}).Warn("Dropped dangling relationship references")
	return nil
}

func (s *FriendService) publish(ctx context.Context, t events.Type, recipient, actor primitive.ObjectID) {
	if err := s.events.Publish(ctx, events.New(t, recipient, actor, actor.Hex(), s.clock.NowUtc())); err != nil {
		logrus.WithError(err).WithField("type", t).Warn("Failed to publish event")
	}
}
