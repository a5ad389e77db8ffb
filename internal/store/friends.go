package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	FriendshipPending  = 0
	FriendshipAccepted = 1
	FriendshipDeclined = 2
)

type Friendship struct {
	RequesterID uuid.UUID
	AddresseeID uuid.UUID
	Status      int
	CreatedAt   time.Time
	RespondedAt sql.NullTime
}

func (d *DB) CreateFriendRequest(ctx context.Context, requester, addressee uuid.UUID) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO friendships (requester_id, addressee_id, status, created_at)
		VALUES ($1, $2, $3, now())`, requester, addressee, FriendshipPending)
	if err != nil {
		return fmt.Errorf("store: create friend request: %w", err)
	}
	return nil
}

func (d *DB) RespondToFriendRequest(ctx context.Context, requester, addressee uuid.UUID, accept bool) error {
	status := FriendshipDeclined
	if accept {
		status = FriendshipAccepted
	}
	res, err := d.conn.ExecContext(ctx, `
		UPDATE friendships SET status = $3, responded_at = now()
		WHERE requester_id = $1 AND addressee_id = $2 AND status = $4`,
		requester, addressee, status, FriendshipPending)
	if err != nil {
		return fmt.Errorf("store: respond to friend request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: respond to friend request rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFriends returns accepted friendships involving a user, from either side.
func (d *DB) ListFriends(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
		FROM friendships
		WHERE (requester_id = $1 OR addressee_id = $1) AND status = $2`, userID, FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("store: list friends: %w", err)
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
			return nil, fmt.Errorf("store: scan friend: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ListPendingRequests returns pending requests addressed to a user.
func (d *DB) ListPendingRequests(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT requester_id FROM friendships WHERE addressee_id = $1 AND status = $2`,
		userID, FriendshipPending)
	if err != nil {
		return nil, fmt.Errorf("store: list pending requests: %w", err)
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
			return nil, fmt.Errorf("store: scan pending request: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (d *DB) BlockUser(ctx context.Context, blocker, blocked uuid.UUID) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO blocked_users (blocker_id, blocked_id, created_at) VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING`, blocker, blocked)
	if err != nil {
		return fmt.Errorf("store: block user: %w", err)
	}
	return nil
}

func (d *DB) IsBlocked(ctx context.Context, blocker, blocked uuid.UUID) (bool, error) {
	var exists bool
	err := d.conn.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM blocked_users WHERE blocker_id = $1 AND blocked_id = $2)`,
		blocker, blocked).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("store: check blocked: %w", err)
	}
	return exists, nil
}

// SearchUsersByUsername is used by the friends flow to find a user to
// request. Errors.Is(err, sql.ErrNoRows) is not special-cased here;
// callers treat an empty slice as "no match".
func (d *DB) SearchUsersByUsername(ctx context.Context, prefix string, limit int) ([]*User, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT id, phone_number, phone_number_hash, display_name, username, bio,
		       avatar_url, background_url, pin_hash, registration_lock, pin_set_at,
		       is_deleted, created_at, updated_at
		FROM users WHERE username ILIKE $1 || '%' AND is_deleted = FALSE ORDER BY username ASC LIMIT $2`,
		prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search users: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			fmt.Printf("store: close rows: %v\n", cerr)
		}
	}()

	var out []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.PhoneNumber, &u.PhoneNumberHash, &u.DisplayName, &u.Username,
			&u.Bio, &u.AvatarURL, &u.BackgroundURL, &u.PINHash, &u.RegistrationLock, &u.PINSetAt,
			&u.IsDeleted, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan user: %w", err)
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}
