package memory

import (
	"context"

	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
	userrepo "github.com/AlibekovAA/social-stream/backend/internal/user/repository"
)

type UserRepository struct {
	s *Store
}

var _ userrepo.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, user userdomain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.createUserLocked(user)
}

func (s *Store) createUserLocked(user userdomain.User) error {
	username := userdomain.NormalizeUsername(user.Username)
	email := userdomain.NormalizeEmail(user.Email)

	if _, ok := s.byUsername[username]; ok {
		return userrepo.ErrUsernameAlreadyExists
	}
	if _, ok := s.byEmail[email]; ok {
		return userrepo.ErrEmailAlreadyExists
	}

	s.users[user.ID] = user
	s.byUsername[username] = user.ID
	s.byEmail[email] = user.ID
	return nil
}

func (s *Store) deleteUserLocked(id userdomain.ID) {
	u, ok := s.users[id]
	if !ok {
		return
	}
	delete(s.byUsername, userdomain.NormalizeUsername(u.Username))
	delete(s.byEmail, userdomain.NormalizeEmail(u.Email))
	delete(s.users, id)
}

func (r *UserRepository) FindByID(_ context.Context, id userdomain.ID) (userdomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (userdomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byUsername[userdomain.NormalizeUsername(username)]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return r.s.users[id], nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (userdomain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[userdomain.NormalizeEmail(email)]
	if !ok {
		return userdomain.User{}, userrepo.ErrUserNotFound
	}
	return r.s.users[id], nil
}

func (r *UserRepository) SetAdmin(_ context.Context, id userdomain.ID, isAdmin bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return userrepo.ErrUserNotFound
	}
	u.IsAdmin = isAdmin
	r.s.users[id] = u
	return nil
}
