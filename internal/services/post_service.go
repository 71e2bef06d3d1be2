package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Dias221467/friendconnect/internal/events"
	"github.com/Dias221467/friendconnect/internal/lock"
	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"github.com/Dias221467/friendconnect/internal/util"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mirror names a back-reference list that repeats ids owned by another record.
type mirror int

const (
	ownerPosts     mirror = iota // (user, post) in user.Posts
	authorComments               // (user, comment) in user.Comments
	postComments                 // (post, comment) in post.Comments
)

// PostService handles posts, likes and comments.
type PostService struct {
	store   *repository.Store
	locker  lock.Locker
	events  events.Publisher
	clock   util.Clock
	pending map[mirror]*pairQueue // (parent, child), not reordered

	mu   sync.Mutex
	last int64
}

// NewPostService creates a new PostService.
func NewPostService(store *repository.Store, locker lock.Locker, publisher events.Publisher, clock util.Clock) *PostService {
	return &PostService{
		store:   store,
		locker:  locker,
		events:  publisher,
		clock:   clock,
		pending: map[mirror]*pairQueue{
			ownerPosts:     newPairQueue(),
			authorComments: newPairQueue(),
			postComments:   newPairQueue(),
		},
	}
}

// stamp returns the current time in milliseconds, never earlier than a previous stamp.
func (s *PostService) stamp() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.NowUtc().UnixMilli()
	if now < s.last {
		now = s.last
	}
	s.last = now
	return now
}

// CreatePost inserts a post and mirrors it into the owner's post set.
func (s *PostService) CreatePost(ctx context.Context, owner primitive.ObjectID, content string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: post content is required", ErrInvalidInput)
	}

	release, err := s.locker.Lock(ctx, userKey(owner))
	if err != nil {
		return nil, lockErr("create post", err)
	}
	defer release()

	user, err := s.loadUser(ctx, "create post", owner)
	if err != nil {
		return nil, err
	}

	post, err := s.store.Posts.CreatePost(ctx, &models.Post{
		Time:     s.stamp(),
		User:     owner,
		Content:  content,
		Comments: []primitive.ObjectID{},
		Likes:    []primitive.ObjectID{},
	})
	if err != nil {
		return nil, storeErr("create post", err)
	}

	user.Posts = models.AddID(user.Posts, post.ID)
	if err := s.store.Users.ReplaceUser(ctx, user); err != nil {
		logrus.WithFields(logrus.Fields{"userID": owner.Hex(), "postID": post.ID.Hex(), "error": err}).
			Error("Failed to mirror post onto owner, queued for repair")
		s.pending[ownerPosts].add(pair{owner, post.ID})
	}

	logrus.WithFields(logrus.Fields{"userID": owner.Hex(), "postID": post.ID.Hex()}).Info("Post created")
	return post, nil
}

// EditPost replaces the content of a post owned by editor.
func (s *PostService) EditPost(ctx context.Context, editor, postID primitive.ObjectID, content string) (*models.Post, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: post content is required", ErrInvalidInput)
	}

	release, err := s.locker.Lock(ctx, postKey(postID))
	if err != nil {
		return nil, lockErr("edit post", err)
	}
	defer release()

	post, err := s.store.Posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, storeErr("edit post", err)
	}
	if post.User != editor {
		logrus.WithFields(logrus.Fields{"userID": editor.Hex(), "postID": postID.Hex()}).Warn("Unauthorized post edit attempt")
		return nil, ErrForbidden
	}

	post.Content = content
	if err := s.store.Posts.ReplacePost(ctx, post); err != nil {
		return nil, storeErr("edit post", err)
	}
	return post, nil
}

// GetPost returns a hydrated post.
func (s *PostService) GetPost(ctx context.Context, postID primitive.ObjectID) (*models.HydratedPost, error) {
	post, err := s.store.Posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	hydrated, err := hydratePosts(ctx, s.store, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &hydrated[0], nil
}

// Like adds user to the post's likers. Liking twice is a no-op.
func (s *PostService) Like(ctx context.Context, postID, userID primitive.ObjectID) error {
	changed, post, err := s.updateLikes(ctx, "like post", postID, func(p *models.Post) bool {
		if models.ContainsID(p.Likes, userID) {
			return false
		}
		p.Likes = append(p.Likes, userID)
		return true
	})
	if err != nil {
		return err
	}
	if changed && post.User != userID {
		s.publish(ctx, events.PostLiked, post.User, userID, postID)
	}
	return nil
}

// Unlike removes user from the post's likers. A no-op when absent.
func (s *PostService) Unlike(ctx context.Context, postID, userID primitive.ObjectID) error {
	_, _, err := s.updateLikes(ctx, "unlike post", postID, func(p *models.Post) bool {
		if !models.ContainsID(p.Likes, userID) {
			return false
		}
		p.Likes = models.RemoveID(p.Likes, userID)
		return true
	})
	return err
}

func (s *PostService) updateLikes(ctx context.Context, op string, postID primitive.ObjectID, mutate func(*models.Post) bool) (bool, *models.Post, error) {
	release, err := s.locker.Lock(ctx, postKey(postID))
	if err != nil {
		return false, nil, lockErr(op, err)
	}
	defer release()

	post, err := s.store.Posts.GetPostByID(ctx, postID)
	if err != nil {
		return false, nil, storeErr(op, err)
	}
	if !mutate(post) {
		return false, post, nil
	}
	if err := s.store.Posts.ReplacePost(ctx, post); err != nil {
		return false, nil, storeErr(op, err)
	}
	return true, post, nil
}

// ListPosts returns every post, hydrated, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]models.HydratedPost, error) {
	posts, err := s.store.Posts.GetAllPosts(ctx)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Time > posts[j].Time
	})
	return hydratePosts(ctx, s.store, posts)
}

// AddComment appends a new comment to the post and to the author's comment set.
// Once the comment is stored the call succeeds; a failed mirror write is queued for repair.
func (s *PostService) AddComment(ctx context.Context, postID, author primitive.ObjectID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}

	release, err := s.locker.Lock(ctx, postKey(postID), userKey(author))
	if err != nil {
		return nil, lockErr("add comment", err)
	}
	defer release()

	post, err := s.store.Posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, storeErr("add comment", err)
	}
	user, err := s.loadUser(ctx, "add comment", author)
	if err != nil {
		return nil, err
	}

	comment, err := s.store.Comments.CreateComment(ctx, &models.Comment{
		Time:    s.stamp(),
		User:    author,
		Content: content,
		Post:    postID,
	})
	if err != nil {
		return nil, storeErr("add comment", err)
	}

	post.Comments = models.AddID(post.Comments, comment.ID)
	if err := s.store.Posts.ReplacePost(ctx, post); err != nil {
		logrus.WithFields(logrus.Fields{"postID": postID.Hex(), "commentID": comment.ID.Hex(), "error": err}).
			Error("Failed to mirror comment onto post, queued for repair")
		s.pending[postComments].add(pair{postID, comment.ID})
	}
	user.Comments = models.AddID(user.Comments, comment.ID)
	if err := s.store.Users.ReplaceUser(ctx, user); err != nil {
		logrus.WithFields(logrus.Fields{"userID": author.Hex(), "commentID": comment.ID.Hex(), "error": err}).
			Error("Failed to mirror comment onto author, queued for repair")
		s.pending[authorComments].add(pair{author, comment.ID})
	}

	if post.User != author {
		s.publish(ctx, events.CommentAdded, post.User, author, postID)
	}
	return comment, nil
}

func (s *PostService) PendingRepairs() int {
	n := 0
	for _, q := range s.pending {
		n += q.len()
	}
	return n
}

// RepairPending writes the back-references left out by failed mirror writes.
func (s *PostService) RepairPending(ctx context.Context) (int, error) {
	var errs []error
	repaired := 0
	for m, q := range s.pending {
		for _, p := range q.drain() {
			if err := s.repairMirror(ctx, m, p[0], p[1]); err != nil {
				if !errors.Is(err, ErrNoSuchEntity) {
					q.add(p)
				}
				errs = append(errs, err)
				continue
			}
			repaired++
		}
	}
	return repaired, errors.Join(errs...)
}

// ReconcileAll scans every post and comment and restores missing back-references.
// Records whose owner no longer exists are skipped.
func (s *PostService) ReconcileAll(ctx context.Context) (int, error) {
	posts, err := s.store.Posts.GetAllPosts(ctx)
	if err != nil {
		return 0, storeErr("reconcile posts", err)
	}
	users, err := s.store.Users.GetAllUsers(ctx)
	if err != nil {
		return 0, storeErr("reconcile posts", err)
	}
	byUser := make(map[primitive.ObjectID]*models.User, len(users))
	for _, u := range users {
		byUser[u.ID] = u
	}
	byPost := make(map[primitive.ObjectID]*models.Post, len(posts))
	postIDs := make([]primitive.ObjectID, 0, len(posts))
	for i := range posts {
		byPost[posts[i].ID] = &posts[i]
		postIDs = append(postIDs, posts[i].ID)
	}

	type missing struct {
		m mirror
		p pair
	}
	var todo []missing
	for _, p := range posts {
		if u, ok := byUser[p.User]; ok && !models.ContainsID(u.Posts, p.ID) {
			todo = append(todo, missing{ownerPosts, pair{p.User, p.ID}})
		}
	}
	if len(postIDs) > 0 {
		comments, err := s.store.Comments.GetCommentsByPosts(ctx, postIDs)
		if err != nil {
			return 0, storeErr("reconcile posts", err)
		}
		for _, c := range comments {
			if p, ok := byPost[c.Post]; ok && !models.ContainsID(p.Comments, c.ID) {
				todo = append(todo, missing{postComments, pair{c.Post, c.ID}})
			}
			if u, ok := byUser[c.User]; ok && !models.ContainsID(u.Comments, c.ID) {
				todo = append(todo, missing{authorComments, pair{c.User, c.ID}})
			}
		}
	}

	var errs []error
	for _, t := range todo {
		if err := s.repairMirror(ctx, t.m, t.p[0], t.p[1]); err != nil {
			errs = append(errs, err)
		}
	}
	return len(todo), errors.Join(errs...)
}

// repairMirror adds child to the parent's back-reference list under the parent's lock.
func (s *PostService) repairMirror(ctx context.Context, m mirror, parent, child primitive.ObjectID) error {
	const op = "repair mirror"
	if m == postComments {
		release, err := s.locker.Lock(ctx, postKey(parent))
		if err != nil {
			return lockErr(op, err)
		}
		defer release()

		post, err := s.store.Posts.GetPostByID(ctx, parent)
		if err != nil {
			return storeErr(op, err)
		}
		if models.ContainsID(post.Comments, child) {
			return nil
		}
		post.Comments = models.AddID(post.Comments, child)
		return storeErr(op, s.store.Posts.ReplacePost(ctx, post))
	}

	release, err := s.locker.Lock(ctx, userKey(parent))
	if err != nil {
		return lockErr(op, err)
	}
	defer release()

	user, err := s.loadUser(ctx, op, parent)
	if err != nil {
		return err
	}
	refs := &user.Posts
	if m == authorComments {
		refs = &user.Comments
	}
	if models.ContainsID(*refs, child) {
		return nil
	}
	*refs = models.AddID(*refs, child)
	return storeErr(op, s.store.Users.ReplaceUser(ctx, user))
}

func (s *PostService) loadUser(ctx context.Context, op string, id primitive.ObjectID) (*models.User, error) {
	user, err := s.store.Users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoSuchUser)
		}
		return nil, storeErr(op, err)
	}
	return user, nil
}

func (s *PostService) publish(ctx context.Context, t events.Type, recipient, actor, postID primitive.ObjectID) {
	if err := s.events.Publish(ctx, events.New(t, recipient, actor, postID.Hex(), s.clock.NowUtc())); err != nil {
		logrus.WithError(err).WithField("type", t).Warn("Failed to publish event")
	}
}
