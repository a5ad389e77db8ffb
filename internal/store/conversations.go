package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ConversationDirect = 1
	ConversationGroup  = 2
)

type Conversation struct {
	ID        uuid.UUID
	Type      int
	CreatorID uuid.UUID
	Metadata  sql.NullString
	CreatedAt time.Time
}

// FindDirectConversation returns the existing direct conversation between
// two users, if any, enforcing the "no duplicate direct pair" invariant at
// the application layer.
func (d *DB) FindDirectConversation(ctx context.Context, userA, userB uuid.UUID) (*Conversation, error) {
	row := d.conn.QueryRowContext(ctx, `
		SELECT c.id, c.type, c.creator_id, c.metadata, c.created_at
		FROM conversations c
		JOIN conversation_members m1 ON m1.conversation_id = c.id AND m1.user_id = $1
		JOIN conversation_members m2 ON m2.conversation_id = c.id AND m2.user_id = $2
		WHERE c.type = $3
		LIMIT 1`, userA, userB, ConversationDirect)
	var c Conversation
	err := row.Scan(&c.ID, &c.Type, &c.CreatorID, &c.Metadata, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan direct conversation: %w", err)
	}
	return &c, nil
}

// CreateDirectConversation creates a conversation and both members in one
// transaction.
func (d *DB) CreateDirectConversation(ctx context.Context, id uuid.UUID, creator, other uuid.UUID) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin conversation tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, type, creator_id, created_at) VALUES ($1, $2, $3, now())`,
		id, ConversationDirect, creator); err != nil {
		return fmt.Errorf("store: insert conversation: %w", err)
	}
	for _, uid := range []uuid.UUID{creator, other} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_members (conversation_id, user_id, joined_at) VALUES ($1, $2, now())`,
			id, uid); err != nil {
			return fmt.Errorf("store: insert conversation member: %w", err)
		}
	}
	return tx.Commit()
}

func (d *DB) FindConversationByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	row := d.conn.QueryRowContext(ctx, `
		SELECT id, type, creator_id, metadata, created_at FROM conversations WHERE id = $1`, id)
	var c Conversation
	err := row.Scan(&c.ID, &c.Type, &c.CreatorID, &c.Metadata, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan conversation: %w", err)
	}
	return &c, nil
}

// IsMember checks conversation membership, used to authorize message sends
// and history reads.
func (d *DB) IsMember(ctx context.Context, conversationID uuid.UUID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := d.conn.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM conversation_members WHERE conversation_id = $1 AND user_id = $2 AND left_at IS NULL)`,
		conversationID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: check membership: %w", err)
	}
	return exists, nil
}

// Members returns the live member ids of a conversation.
func (d *DB) Members(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT user_id FROM conversation_members WHERE conversation_id = $1 AND left_at IS NULL`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("store: list members: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("store: close rows: %v\n", cerr)
		}
	}()
	var out []uuid.UUID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("store: scan member: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
