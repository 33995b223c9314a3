package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cookiq/models"
	"cookiq/storage"
)

// Login authenticates and persists the session. Any failure, remote or
// local, leaves the store untouched and returns false.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.log.Warn("login failed", zap.String("email", email), zap.Error(err))
		return false
	}

	if err := s.persist(resp.Token, resp.User); err != nil {
		s.log.Error("could not persist session", zap.Error(err))
		_ = s.durable.Delete(storage.KeyToken, storage.KeyUser)
		return false
	}

	id := &Identity{User: UserFromWire(resp.User), Token: resp.Token}
	s.setIdentity(id)
	s.log.Info("logged in", zap.String("user", id.Email), zap.String("role", string(id.Role)))

	s.onIdentityChange(ctx)
	return true
}

func (s *Store) persist(token string, u models.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.durable.Set(storage.KeyToken, token); err != nil {
		return err
	}
	return s.durable.Set(storage.KeyUser, string(raw))
}

// setIdentity swaps the identity. Orders and users belong to the previous
// identity and are dropped when the user changes; the cart survives.
func (s *Store) setIdentity(id *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil || id == nil || s.identity.ID != id.ID {
		s.orders = nil
		s.users = nil
		s.localOrders = make(map[string]uint64)
	}
	s.identity = id
	s.epoch++
}

// Register creates an account. It does not sign in.
func (s *Store) Register(ctx context.Context, name, email, password string) bool {
	if err := s.api.Register(ctx, name, email, password); err != nil {
		s.log.Warn("register failed", zap.String("email", email), zap.Error(err))
		return false
	}
	return true
}

// Logout is local only: storage is cleared and identity, cart, orders and
// users are reset.
func (s *Store) Logout() {
	if err := s.durable.Delete(storage.KeyToken, storage.KeyUser); err != nil {
		s.log.Error("could not clear stored session", zap.Error(err))
	}
	s.mu.Lock()
	s.identity = nil
	s.epoch++
	s.cart = nil
	s.orders = nil
	s.users = nil
	s.localOrders = make(map[string]uint64)
	s.mu.Unlock()
}

// HandleUnauthorized is installed as the client's 401 hook.
func (s *Store) HandleUnauthorized() {
	if s.Identity() == nil {
		return
	}
	s.log.Warn("credential rejected by the API, signing out")
	s.Logout()
}

// UpdateUserProfile saves the profile remotely and mirrors the returned
// record into memory and storage. The token is kept.
func (s *Store) UpdateUserProfile(ctx context.Context, name, avatarURL string) error {
	current := s.Identity()
	if current == nil {
		return ErrNotAuthenticated
	}

	updated, err := s.api.UpdateProfile(ctx, name, avatarURL)
	if err != nil {
		s.log.Error("update profile failed", zap.Error(err))
		return fmt.Errorf("update profile: %w", err)
	}
	if err := s.persist(current.Token, *updated); err != nil {
		s.log.Error("could not persist profile", zap.Error(err))
	}

	id := &Identity{User: UserFromWire(*updated), Token: current.Token}
	roleChanged := id.Role != current.Role
	s.mu.Lock()
	if s.identity != nil && s.identity.Token == current.Token {
		s.identity = id
		if roleChanged {
			s.epoch++
		}
	}
	s.mu.Unlock()

	if roleChanged {
		s.onIdentityChange(ctx)
	}
	return nil
}

// FetchUsers loads the user list (admin). Failures keep the previous list.
func (s *Store) FetchUsers(ctx context.Context) {
	epoch := s.currentEpoch()
	list, err := s.api.Users(ctx)
	if err != nil {
		s.log.Error("fetch users failed", zap.Error(err))
		return
	}
	users := make([]User, 0, len(list))
	for _, u := range list {
		users = append(users, UserFromWire(u))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	s.users = users
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := s.api.DeleteUser(ctx, id); err != nil {
		s.log.Error("delete user failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete user: %w", err)
	}
	s.FetchUsers(ctx)
	return nil
}
