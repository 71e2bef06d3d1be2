package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/internal/lock"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupService keeps user.groups and group.members mirrored.
type GroupService struct {
	users   repository.UserStore
	groups  repository.GroupStore
	locker  lock.Locker
	events  events.Publisher
	clock   util.Clock
	pending *pairQueue // pairs of (user, group), not reordered
}

// NewGroupService creates a new GroupService.
func NewGroupService(users repository.UserStore, groups repository.GroupStore, locker lock.Locker, publisher events.Publisher, clock util.Clock) *GroupService {
	return &GroupService{
		users:   users,
		groups:  groups,
		locker:  locker,
		events:  publisher,
		clock:   clock,
		pending: newPairQueue(),
	}
}

// CreateGroup inserts a group whose creator is its first member.
func (s *GroupService) CreateGroup(ctx context.Context, creator primitive.ObjectID, name, bio string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: group name is required", ErrInvalidInput)
	}

	release, err := s.locker.Lock(ctx, userKey(creator))
	if err != nil {
		return nil, lockErr("create group", err)
	}
	defer release()

	user, err := s.users.GetUserByID(ctx, creator)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, storeErr("create group", err)
	}

	group, err := s.groups.CreateGroup(ctx, &models.Group{
		Name:    name,
		Creator: creator,
		Bio:     bio,
		Members: []primitive.ObjectID{creator},
	})
	if err != nil {
		return nil, storeErr("create group", err)
	}

	user.Groups = models.AddID(user.Groups, group.ID)
	if err := s.users.ReplaceUser(ctx, user); err != nil {
		logrus.WithFields(logrus.Fields{"userID": creator.Hex(), "groupID": group.ID.Hex(), "error": err}).
			Error("Failed to mirror new group onto creator, queued for repair")
		s.pending.add(pair{creator, group.ID})
	}

	logrus.WithFields(logrus.Fields{"userID": creator.Hex(), "groupID": group.ID.Hex()}).Info("Group created")
	return group, nil
}

// membership runs a two-record read-modify-write on (user, group) under both locks.
// The user record is written first.
func (s *GroupService) membership(ctx context.Context, op string, userID, groupID primitive.ObjectID, decide func(member bool) bool) (bool, bool, error) {
	release, err := s.locker.Lock(ctx, userKey(userID), groupKey(groupID))
	if err != nil {
		return false, false, lockErr(op, err)
	}
	defer release()

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, false, fmt.Errorf("%s: %w", op, ErrNoSuchUser)
		}
		return false, false, storeErr(op, err)
	}
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return false, false, storeErr(op, err)
	}

	inUser := models.ContainsID(user.Groups, groupID)
	inGroup := models.ContainsID(group.Members, userID)
	current := inUser || inGroup
	next := decide(current)
	if inUser == next && inGroup == next {
		return current, next, nil
	}

	if next {
		user.Groups = models.AddID(user.Groups, groupID)
		group.Members = models.AddID(group.Members, userID)
	} else {
		user.Groups = models.RemoveID(user.Groups, groupID)
		group.Members = models.RemoveID(group.Members, userID)
	}

	if err := s.users.ReplaceUser(ctx, user); err != nil {
		logrus.WithFields(logrus.Fields{"op": op, "userID": userID.Hex(), "error": err}).Error("Failed to write first record")
		return current, current, storeErr(op, err)
	}
	if err := s.groups.ReplaceGroup(ctx, group); err != nil {
		logrus.WithFields(logrus.Fields{
			"op":      op,
			"userID":  userID.Hex(),
			"groupID": groupID.Hex(),
			"error":   err,
		}).Error("Failed to write second record, membership queued for repair")
		s.pending.add(pair{userID, groupID})
	}

	if next && !current && group.Creator != userID {
		if err := s.events.Publish(ctx, events.New(events.GroupJoined, group.Creator, userID, groupID.Hex(), s.clock.NowUtc())); err != nil {
			logrus.WithError(err).Warn("Failed to publish group joined event")
		}
	}
	return current, next, nil
}

// Join adds the user to the group. Joining twice is a no-op.
func (s *GroupService) Join(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, _, err := s.membership(ctx, "join group", userID, groupID, func(bool) bool { return true })
	return err
}

// Leave removes the user from the group. The creator field is unaffected.
func (s *GroupService) Leave(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, _, err := s.membership(ctx, "leave group", userID, groupID, func(bool) bool { return false })
	return err
}

// RepairMembership makes both records agree, treating a reference on either side as membership.
func (s *GroupService) RepairMembership(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, _, err := s.membership(ctx, "repair membership", userID, groupID, func(member bool) bool { return member })
	return err
}

func (s *GroupService) PendingRepairs() int {
	return s.pending.len()
}

// RepairPending repairs memberships left inconsistent by a failed second write.
func (s *GroupService) RepairPending(ctx context.Context) (int, error) {
	var errs []error
	repaired := 0
	for _, p := range s.pending.drain() {
		if err := s.RepairMembership(ctx, p[0], p[1]); err != nil {
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

// ReconcileAll repairs every (user, group) pair referenced from either side.
// References to records that do not exist are left for manual cleanup and logged.
func (s *GroupService) ReconcileAll(ctx context.Context) (int, error) {
	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		return 0, storeErr("reconcile memberships", err)
	}
	groups, err := s.groups.GetAllGroups(ctx)
	if err != nil {
		return 0, storeErr("reconcile memberships", err)
	}

	knownUsers := make(map[primitive.ObjectID]struct{}, len(users))
	for _, u := range users {
		knownUsers[u.ID] = struct{}{}
	}
	knownGroups := make(map[primitive.ObjectID]struct{}, len(groups))
	for _, g := range groups {
		knownGroups[g.ID] = struct{}{}
	}

	seen := make(map[pair]struct{})
	add := func(u, g primitive.ObjectID) {
		_, okU := knownUsers[u]
		_, okG := knownGroups[g]
		if !okU || !okG {
			logrus.WithFields(logrus.Fields{"userID": u.Hex(), "groupID": g.Hex()}).Warn("Membership references a missing record")
			return
		}
		seen[pair{u, g}] = struct{}{}
	}
	for _, u := range users {
		for _, g := range u.Groups {
			add(u.ID, g)
		}
	}
	for _, g := range groups {
		for _, u := range g.Members {
			add(u, g.ID)
		}
	}

	var errs []error
	for p := range seen {
		if err := s.RepairMembership(ctx, p[0], p[1]); err != nil {
			errs = append(errs, err)
		}
	}
	return len(seen), errors.Join(errs...)
}

// ListGroups returns every group with its creator and members resolved.
func (s *GroupService) ListGroups(ctx context.Context) ([]models.GroupView, error) {
	groups, err := s.groups.GetAllGroups(ctx)
	if err != nil {
		return nil, storeErr("list groups", err)
	}
	return groupViews(ctx, s.users, groups)
}

// UserGroups returns the groups the user belongs to.
func (s *GroupService) UserGroups(ctx context.Context, userID primitive.ObjectID) ([]models.GroupView, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, storeErr("user groups", err)
	}
	if len(user.Groups) == 0 {
		return []models.GroupView{}, nil
	}
	groups, err := s.groups.GetGroupsByIDs(ctx, user.Groups)
	if err != nil {
		return nil, storeErr("user groups", err)
	}
	return groupViews(ctx, s.users, groups)
}
