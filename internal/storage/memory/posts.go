package memory

import (
	"context"

	feedrepo "github.com/AlibekovAA/social-stream/backend/internal/feed/repository"
	postdomain "github.com/AlibekovAA/social-stream/backend/internal/post/domain"
	postrepo "github.com/AlibekovAA/social-stream/backend/internal/post/repository"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type PostRepository struct {
	s *Store
}

var _ postrepo.Repository = (*PostRepository)(nil)

func (r *PostRepository) Create(_ context.Context, post postdomain.Post) (postdomain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[post.UserID]; !ok {
		return postdomain.Post{}, postrepo.ErrUnknownAuthor
	}

	post.Username = ""
	r.s.postIdx[post.ID] = len(r.s.posts)
	r.s.posts = append(r.s.posts, post)
	return r.s.withAuthorLocked(post), nil
}

func (r *PostRepository) FindByID(_ context.Context, id postdomain.ID) (postdomain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	idx, ok := r.s.postIdx[id]
	if !ok {
		return postdomain.Post{}, postrepo.ErrPostNotFound
	}
	return r.s.withAuthorLocked(r.s.posts[idx]), nil
}

func (r *PostRepository) ListByAuthor(_ context.Context, author userdomain.ID, limit int) ([]postdomain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.postsByLocked(func(id userdomain.ID) bool { return id == author }, limit), nil
}

func (r *PostRepository) PostsByAuthors(_ context.Context, authors []userdomain.ID, limit int) ([]postdomain.Post, error) {
	set := make(map[userdomain.ID]struct{}, len(authors))
	for _, a := range authors {
		set[a] = struct{}{}
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.postsByLocked(func(id userdomain.ID) bool {
		_, ok := set[id]
		return ok
	}, limit), nil
}

func (r *PostRepository) ListAll(_ context.Context, limit int) ([]postdomain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.postsByLocked(func(userdomain.ID) bool { return true }, limit), nil
}

type FeedRepository struct {
	s *Store
}

var _ feedrepo.Repository = (*FeedRepository)(nil)

func (r *FeedRepository) StreamFor(_ context.Context, user userdomain.ID, limit int) ([]postdomain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	authors := map[userdomain.ID]struct{}{user: {}}
	for _, id := range r.s.followingLocked(user) {
		authors[id] = struct{}{}
	}
	return r.s.postsByLocked(func(id userdomain.ID) bool {
		_, ok := authors[id]
		return ok
	}, limit), nil
}
