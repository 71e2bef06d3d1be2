package services

import (
	"context"

	"github.com/Dias221467/friendconnect/internal/models"
	"github.com/Dias221467/friendconnect/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// directory resolves user ids to display identities in one batched lookup.
type directory map[primitive.ObjectID]models.PublicUser

func loadDirectory(ctx context.Context, users repository.UserStore, ids []primitive.ObjectID) (directory, error) {
	dir := make(directory, len(ids))
	if len(ids) == 0 {
		return dir, nil
	}
	found, err := users.GetUsersByIDs(ctx, dedupIDs(ids))
	if err != nil {
		return nil, storeErr("load users", err)
	}
	for i := range found {
		dir[found[i].ID] = found[i].Public()
	}
	return dir, nil
}

// get returns the display identity for id. Unknown users render with their id only.
func (d directory) get(id primitive.ObjectID) models.PublicUser {
	if u, ok := d[id]; ok {
		return u
	}
	return models.PublicUser{ID: id}
}

func (d directory) list(ids []primitive.ObjectID) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.get(id))
	}
	return out
}

func dedupIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// hydratePosts resolves authors, likers and comments of posts, keeping their order.
func hydratePosts(ctx context.Context, store *repository.Store, posts []models.Post) ([]models.HydratedPost, error) {
	out := make([]models.HydratedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	postIDs := make([]primitive.ObjectID, 0, len(posts))
	var userIDs []primitive.ObjectID
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDs = append(userIDs, p.User)
		userIDs = append(userIDs, p.Likes...)
	}

	comments, err := store.Comments.GetCommentsByPosts(ctx, postIDs)
	if err != nil {
		return nil, storeErr("load comments", err)
	}
	byPost := make(map[primitive.ObjectID][]models.Comment, len(posts))
	for _, c := range comments {
		byPost[c.Post] = append(byPost[c.Post], c)
		userIDs = append(userIDs, c.User)
	}

	dir, err := loadDirectory(ctx, store.Users, userIDs)
	if err != nil {
		return nil, err
	}

	for _, p := range posts {
		hc := make([]models.HydratedComment, 0, len(byPost[p.ID]))
		for _, c := range byPost[p.ID] {
			hc = append(hc, models.HydratedComment{
				ID:      c.ID,
				Time:    c.Time,
				User:    dir.get(c.User),
				Content: c.Content,
			})
		}
		out = append(out, models.HydratedPost{
			ID:       p.ID,
			Time:     p.Time,
			User:     dir.get(p.User),
			Content:  p.Content,
			Comments: hc,
			Likes:    dir.list(p.Likes),
		})
	}
	return out, nil
}

func groupViews(ctx context.Context, users repository.UserStore, groups []models.Group) ([]models.GroupView, error) {
	var ids []primitive.ObjectID
	for _, g := range groups {
		ids = append(ids, g.Creator)
		ids = append(ids, g.Members...)
	}
	dir, err := loadDirectory(ctx, users, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.GroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.GroupView{
			ID:      g.ID,
			Name:    g.Name,
			Bio:     g.Bio,
			Creator: dir.get(g.Creator),
			Members: dir.list(g.Members),
		})
	}
	return out, nil
}
