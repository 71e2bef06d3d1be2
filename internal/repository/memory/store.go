// Package memory is an in-process implementation of the repository stores. It
// backs the "memory" store driver and the service tests. Documents are copied on
// the way in and out so callers see the same read-modify-replace semantics as
// with MongoDB.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all four collections behind one mutex.
type Store struct {
	mu       sync.RWMutex
	users    map[primitive.ObjectID]models.User
	userSeq  []primitive.ObjectID
	posts    map[primitive.ObjectID]models.Post
	postSeq  []primitive.ObjectID
	comments map[primitive.ObjectID]models.Comment
	commSeq  []primitive.ObjectID
	groups   map[primitive.ObjectID]models.Group
	groupSeq []primitive.ObjectID
}

func NewStore() *Store {
	return &Store{
		users:    make(map[primitive.ObjectID]models.User),
		posts:    make(map[primitive.ObjectID]models.Post),
		comments: make(map[primitive.ObjectID]models.Comment),
		groups:   make(map[primitive.ObjectID]models.Group),
	}
}

// Repositories exposes s through the repository interfaces.
func (s *Store) Repositories() *repository.Store {
	return &repository.Store{Users: s, Posts: s, Comments: s, Groups: s}
}

func ids(in []primitive.ObjectID) []primitive.ObjectID {
	if in == nil {
		return nil
	}
	out := make([]primitive.ObjectID, len(in))
	copy(out, in)
	return out
}

func copyUser(u models.User) models.User {
	u.Salt = append([]byte(nil), u.Salt...)
	u.Hash = append([]byte(nil), u.Hash...)
	u.Posts = ids(u.Posts)
	u.Comments = ids(u.Comments)
	u.Groups = ids(u.Groups)
	u.Friends = ids(u.Friends)
	u.SentRequests = ids(u.SentRequests)
	u.ReceivedRequests = ids(u.ReceivedRequests)
	return u
}

func copyPost(p models.Post) models.Post {
	p.Comments = ids(p.Comments)
	p.Likes = ids(p.Likes)
	return p
}

func copyGroup(g models.Group) models.Group {
	g.Members = ids(g.Members)
	return g
}

func checkCtx(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w: %v", op, repository.ErrUnavailable, err)
	}
	return nil
}

func notFound(op string, id primitive.ObjectID) error {
	return fmt.Errorf("%s %s: %w", op, id.Hex(), repository.ErrNotFound)
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if err := checkCtx(ctx, "insert user"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, fmt.Errorf("insert user: %w", repository.ErrDuplicateKey)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, ok := s.users[user.ID]; ok {
		return nil, fmt.Errorf("insert user: %w", repository.ErrDuplicateKey)
	}
	s.users[user.ID] = copyUser(*user)
	s.userSeq = append(s.userSeq, user.ID)
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if err := checkCtx(ctx, "find user"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("find user", id)
	}
	out := copyUser(u)
	return &out, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := checkCtx(ctx, "find user by email"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.userSeq {
		if u := s.users[id]; u.Email == email {
			out := copyUser(u)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("find user by email: %w", repository.ErrNotFound)
}

func (s *Store) GetUsersByIDs(ctx context.Context, want []primitive.ObjectID) ([]models.User, error) {
	if err := checkCtx(ctx, "find users by ids"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.User
	seen := make(map[primitive.ObjectID]bool, len(want))
	for _, id := range want {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, ok := s.users[id]; ok {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (s *Store) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	if err := checkCtx(ctx, "find users"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.userSeq))
	for _, id := range s.userSeq {
		u := copyUser(s.users[id])
		out = append(out, &u)
	}
	return out, nil
}

func (s *Store) ReplaceUser(ctx context.Context, user *models.User) error {
	if err := checkCtx(ctx, "replace user"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return notFound("replace user", user.ID)
	}
	s.users[user.ID] = copyUser(*user)
	return nil
}

// --- posts ---

func (s *Store) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	if err := checkCtx(ctx, "insert post"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	s.posts[post.ID] = copyPost(*post)
	s.postSeq = append(s.postSeq, post.ID)
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	if err := checkCtx(ctx, "find post"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, notFound("find post", id)
	}
	out := copyPost(p)
	return &out, nil
}

func (s *Store) GetPostsByOwners(ctx context.Context, owners []primitive.ObjectID) ([]models.Post, error) {
	if err := checkCtx(ctx, "find posts by owners"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[primitive.ObjectID]bool, len(owners))
	for _, id := range owners {
		want[id] = true
	}
	var out []models.Post
	for _, id := range s.postSeq {
		if p := s.posts[id]; want[p.User] {
			out = append(out, copyPost(p))
		}
	}
	return out, nil
}

func (s *Store) GetAllPosts(ctx context.Context) ([]models.Post, error) {
	if err := checkCtx(ctx, "find posts"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, 0, len(s.postSeq))
	for _, id := range s.postSeq {
		out = append(out, copyPost(s.posts[id]))
	}
	return out, nil
}

func (s *Store) ReplacePost(ctx context.Context, post *models.Post) error {
	if err := checkCtx(ctx, "replace post"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[post.ID]; !ok {
		return notFound("replace post", post.ID)
	}
	s.posts[post.ID] = copyPost(*post)
	return nil
}

// --- comments ---

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if err := checkCtx(ctx, "insert comment"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	s.comments[comment.ID] = *comment
	s.commSeq = append(s.commSeq, comment.ID)
	return comment, nil
}

func (s *Store) GetCommentsByPosts(ctx context.Context, posts []primitive.ObjectID) ([]models.Comment, error) {
	if err := checkCtx(ctx, "find comments by posts"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := make(map[primitive.ObjectID]bool, len(posts))
	for _, id := range posts {
		want[id] = true
	}
	var out []models.Comment
	for _, id := range s.commSeq {
		if c := s.comments[id]; want[c.Post] {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

// --- groups ---

func (s *Store) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	if err := checkCtx(ctx, "insert group"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID.IsZero() {
		group.ID = primitive.NewObjectID()
	}
	s.groups[group.ID] = copyGroup(*group)
	s.groupSeq = append(s.groupSeq, group.ID)
	return group, nil
}

func (s *Store) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	if err := checkCtx(ctx, "find group"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok {
		return nil, notFound("find group", id)
	}
	out := copyGroup(g)
	return &out, nil
}

func (s *Store) GetGroupsByIDs(ctx context.Context, want []primitive.ObjectID) ([]models.Group, error) {
	if err := checkCtx(ctx, "find groups"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[primitive.ObjectID]bool, len(want))
	for _, id := range want {
		set[id] = true
	}
	var out []models.Group
	for _, id := range s.groupSeq {
		if set[id] {
			out = append(out, copyGroup(s.groups[id]))
		}
	}
	return out, nil
}

func (s *Store) GetAllGroups(ctx context.Context) ([]models.Group, error) {
	if err := checkCtx(ctx, "find groups"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Group, 0, len(s.groupSeq))
	for _, id := range s.groupSeq {
		out = append(out, copyGroup(s.groups[id]))
	}
	return out, nil
}

func (s *Store) ReplaceGroup(ctx context.Context, group *models.Group) error {
	if err := checkCtx(ctx, "replace group"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[group.ID]; !ok {
		return notFound("replace group", group.ID)
	}
	s.groups[group.ID] = copyGroup(*group)
	return nil
}
