// Package friends implements the friend request/accept/list/block flows
// SPEC_FULL.md supplements from the teacher's friendship domain
// (internal/handlers/user_handlers.go, internal/db/postgres.go's
// friendships/blocked_users tables), adapted to this system's user model.
package friends

import (
	"context"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/store"
)

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service { return &Service{db: db} }

// Request sends a friend request, failing Authorization if the addressee
// has blocked the requester. A block in the other direction is not checked.
func (s *Service) Request(ctx context.Context, requester, addressee uuid.UUID) error {
	if requester == addressee {
		return apperr.New(apperr.KindValidation, "cannot friend yourself")
	}
	blocked, err := s.db.IsBlocked(ctx, addressee, requester)
	if err != nil {
		return apperr.Wrap(apperr.KindDatabase, "check blocked", err)
	}
	if blocked {
		return apperr.New(apperr.KindAuthorization, "unable to send friend request")
	}
	if err := s.db.CreateFriendRequest(ctx, requester, addressee); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "create friend request", err)
	}
	return nil
}

// Respond accepts or declines a pending friend request.
func (s *Service) Respond(ctx context.Context, requester, addressee uuid.UUID, accept bool) error {
	if err := s.db.RespondToFriendRequest(ctx, requester, addressee, accept); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "respond to friend request", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.db.ListFriends(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "list friends", err)
	}
	return ids, nil
}

func (s *Service) ListPending(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.db.ListPendingRequests(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "list pending requests", err)
	}
	return ids, nil
}

func (s *Service) Block(ctx context.Context, blocker, blocked uuid.UUID) error {
	if err := s.db.BlockUser(ctx, blocker, blocked); err != nil {
		return apperr.Wrap(apperr.KindDatabase, "block user", err)
	}
	return nil
}

// SearchByUsername finds users whose username starts with prefix, for
// friend-request targeting.
func (s *Service) SearchByUsername(ctx context.Context, prefix string, limit int) ([]*store.User, error) {
	users, err := s.db.SearchUsersByUsername(ctx, prefix, clampLimit(limit))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "search users", err)
	}
	return users, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 50 {
		return 20
	}
	return limit
}
