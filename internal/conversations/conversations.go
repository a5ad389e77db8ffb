// Package conversations manages direct conversations: find-or-create
// between a pair of users, enforcing "no duplicate direct conversation
// between the same pair" at the application layer (spec.md §3).
package conversations

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/store"
)

type Service struct {
	db *store.DB
}

func NewService(db *store.DB) *Service { return &Service{db: db} }

// GetOrCreateDirect returns the existing direct conversation between two
// users, creating one if none exists.
func (s *Service) GetOrCreateDirect(ctx context.Context, userA, userB uuid.UUID) (uuid.UUID, error) {
	if userA == userB {
		return uuid.Nil, apperr.New(apperr.KindValidation, "cannot create a conversation with yourself")
	}

	existing, err := s.db.FindDirectConversation(ctx, userA, userB)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return uuid.Nil, apperr.Wrap(apperr.KindDatabase, "find direct conversation", err)
	}

	id := uuid.New()
	if err := s.db.CreateDirectConversation(ctx, id, userA, userB); err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindDatabase, "create direct conversation", err)
	}
	return id, nil
}

// RequireMember fails Authorization if the user is not a live member of
// the conversation.
func (s *Service) RequireMember(ctx context.Context, conversationID, userID uuid.UUID) error {
	ok, err := s.db.IsMember(ctx, conversationID, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindDatabase, "check membership", err)
	}
	if !ok {
		return apperr.New(apperr.KindAuthorization, "not a member of this conversation")
	}
	return nil
}

// OtherMembers returns the member ids of a conversation excluding the caller.
func (s *Service) OtherMembers(ctx context.Context, conversationID, callerID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.db.Members(ctx, conversationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindDatabase, "list members", err)
	}
	out := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		if m != callerID {
			out = append(out, m)
		}
	}
	return out, nil
}
