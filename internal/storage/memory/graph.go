package memory

import (
	"context"

	graphdomain "github.com/AlibekovAA/social-stream/backend/internal/graph/domain"
	graphrepo "github.com/AlibekovAA/social-stream/backend/internal/graph/repository"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type RelationshipRepository struct {
	s *Store
}

var _ graphrepo.Repository = (*RelationshipRepository)(nil)

func (r *RelationshipRepository) Create(_ context.Context, rel graphdomain.Relationship) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rel.From == rel.To {
		return graphrepo.ErrSelfFollow
	}
	if _, ok := r.s.users[rel.From]; !ok {
		return graphrepo.ErrUnknownUser
	}
	if _, ok := r.s.users[rel.To]; !ok {
		return graphrepo.ErrUnknownUser
	}

	key := edge{from: rel.From, to: rel.To}
	if _, ok := r.s.edges[key]; ok {
		return graphrepo.ErrAlreadyFollowing
	}
	r.s.edges[key] = rel
	return nil
}

func (r *RelationshipRepository) Delete(_ context.Context, from, to userdomain.ID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := edge{from: from, to: to}
	if _, ok := r.s.edges[key]; !ok {
		return false, nil
	}
	delete(r.s.edges, key)
	return true, nil
}

func (r *RelationshipRepository) FollowingIDs(_ context.Context, id userdomain.ID) ([]userdomain.ID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.followingLocked(id), nil
}

func (r *RelationshipRepository) Following(_ context.Context, id userdomain.ID) ([]userdomain.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.summariesLocked(r.s.followingLocked(id)), nil
}

func (r *RelationshipRepository) Followers(_ context.Context, id userdomain.ID) ([]userdomain.Summary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var ids []userdomain.ID
	for k := range r.s.edges {
		if k.to == id {
			ids = append(ids, k.from)
		}
	}
	return r.s.summariesLocked(ids), nil
}

func (r *RelationshipRepository) Status(_ context.Context, actor, other userdomain.ID) (graphdomain.Relation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, following := r.s.edges[edge{from: actor, to: other}]
	_, followedBy := r.s.edges[edge{from: other, to: actor}]
	return graphdomain.Relation{Following: following, FollowedBy: followedBy}, nil
}

func (s *Store) followingLocked(id userdomain.ID) []userdomain.ID {
	var ids []userdomain.ID
	for k := range s.edges {
		if k.from == id {
			ids = append(ids, k.to)
		}
	}
	return ids
}
