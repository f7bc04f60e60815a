// Package memory is an in-process implementation of every repository
// interface. All state sits behind one RWMutex, so each call observes a
// single consistent state, the same guarantee the Postgres repositories get
// from constraints and snapshot transactions.
package memory

import (
	"sort"
	"sync"

	authdomain "github.com/AlibekovAA/social-stream/backend/internal/auth/domain"
	"github.com/AlibekovAA/social-stream/backend/internal/common/clock"
	graphdomain "github.com/AlibekovAA/social-stream/backend/internal/graph/domain"
	postdomain "github.com/AlibekovAA/social-stream/backend/internal/post/domain"
	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type edge struct {
	from userdomain.ID
	to   userdomain.ID
}

type revokedToken struct {
	userID    string
	expiresAt int64
}

type Store struct {
	mu    sync.RWMutex
	clock clock.Clock

	users      map[userdomain.ID]userdomain.User
	byUsername map[string]userdomain.ID
	byEmail    map[string]userdomain.ID

	edges map[edge]graphdomain.Relationship

	posts   []postdomain.Post
	postIdx map[postdomain.ID]int

	refreshTokens map[string]authdomain.RefreshToken
	revoked       map[string]revokedToken
}

func NewStore(c clock.Clock) *Store {
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Store{
		clock:         c,
		users:         make(map[userdomain.ID]userdomain.User),
		byUsername:    make(map[string]userdomain.ID),
		byEmail:       make(map[string]userdomain.ID),
		edges:         make(map[edge]graphdomain.Relationship),
		postIdx:       make(map[postdomain.ID]int),
		refreshTokens: make(map[string]authdomain.RefreshToken),
		revoked:       make(map[string]revokedToken),
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

func (s *Store) Relationships() *RelationshipRepository {
	return &RelationshipRepository{s: s}
}

func (s *Store) Posts() *PostRepository {
	return &PostRepository{s: s}
}

func (s *Store) Feed() *FeedRepository {
	return &FeedRepository{s: s}
}

func (s *Store) RefreshTokens() *RefreshTokenRepository {
	return &RefreshTokenRepository{s: s}
}

func (s *Store) RevokedTokens() *RevokedTokenRepository {
	return &RevokedTokenRepository{s: s}
}

func (s *Store) Accounts() *AccountTxManager {
	return &AccountTxManager{s: s}
}

// postsByLocked returns the newest posts whose author passes keep. Callers
// hold at least the read lock.
func (s *Store) postsByLocked(keep func(userdomain.ID) bool, limit int) []postdomain.Post {
	out := make([]postdomain.Post, 0)
	for _, p := range s.posts {
		if keep(p.UserID) {
			out = append(out, s.withAuthorLocked(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return postdomain.Less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) withAuthorLocked(p postdomain.Post) postdomain.Post {
	if u, ok := s.users[p.UserID]; ok {
		p.Username = u.Username
	}
	return p
}

func (s *Store) summariesLocked(ids []userdomain.ID) []userdomain.Summary {
	out := make([]userdomain.Summary, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}
