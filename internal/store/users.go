package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups that find no row.
var ErrNotFound = errors.New("store: not found")

// User is a row of the users table.
type User struct {
	ID                 uuid.UUID
	PhoneNumber        string
	PhoneNumberHash    string
	DisplayName        sql.NullString
	Username           sql.NullString
	Bio                sql.NullString
	AvatarURL          sql.NullString
	BackgroundURL      sql.NullString
	PINHash            sql.NullString
	RegistrationLock   bool
	PINSetAt           sql.NullTime
	IsDeleted          bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FindUserByPhone returns the user with the given phone number.
func (d *DB) FindUserByPhone(ctx context.Context, phone string) (*User, error) {
	return d.scanUser(d.conn.QueryRowContext(ctx, `
		SELECT id, phone_number, phone_number_hash, display_name, username, bio,
		       avatar_url, background_url, pin_hash, registration_lock, pin_set_at,
		       is_deleted, created_at, updated_at
		FROM users WHERE phone_number = $1`, phone))
}

// FindUserByID returns the user with the given id.
func (d *DB) FindUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return d.scanUser(d.conn.QueryRowContext(ctx, `
		SELECT id, phone_number, phone_number_hash, display_name, username, bio,
		       avatar_url, background_url, pin_hash, registration_lock, pin_set_at,
		       is_deleted, created_at, updated_at
		FROM users WHERE id = $1`, id))
}

func (d *DB) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.PhoneNumberHash, &u.DisplayName, &u.Username,
		&u.Bio, &u.AvatarURL, &u.BackgroundURL, &u.PINHash, &u.RegistrationLock, &u.PINSetAt,
		&u.IsDeleted, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan user: %w", err)
	}
	return &u, nil
}

// CreateUserTx inserts a new user row within an existing transaction,
// used by the OTP-verify flow's find-or-create step.
func CreateUserTx(ctx context.Context, tx *sql.Tx, id uuid.UUID, phone, phoneHash string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, phone_number, phone_number_hash, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())`, id, phone, phoneHash)
	if err != nil {
		return fmt.Errorf("store: create user: %w", err)
	}
	return nil
}

// ProfileUpdate carries only the fields present in a partial-update request.
type ProfileUpdate struct {
	DisplayName *string
	Username    *string
	Bio         *string
	AvatarURL   *string
	BackgroundURL *string
}

// UpdateProfile applies a partial update: only non-nil fields are written.
func (d *DB) UpdateProfile(ctx context.Context, userID uuid.UUID, u ProfileUpdate) error {
	setClauses := ""
	args := []any{}
	argN := 1
	add := func(col string, val *string) {
		if val == nil {
			return
		}
		if setClauses != "" {
			setClauses += ", "
		}
		argN++
		setClauses += fmt.Sprintf("%s = $%d", col, argN)
		args = append(args, *val)
	}
	add("display_name", u.DisplayName)
	add("username", u.Username)
	add("bio", u.Bio)
	add("avatar_url", u.AvatarURL)
	add("background_url", u.BackgroundURL)
	if setClauses == "" {
		return nil
	}
	setClauses += ", updated_at = now()"
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $1", setClauses)
	args = append([]any{userID}, args...)
	_, err := d.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("store: update profile: %w", err)
	}
	return nil
}

// SetPIN stores a PIN hash and the registration-lock flag.
func (d *DB) SetPIN(ctx context.Context, userID uuid.UUID, pinHash string, registrationLock bool) error {
	_, err := d.conn.ExecContext(ctx, `
		UPDATE users SET pin_hash = $2, registration_lock = $3, pin_set_at = now(), updated_at = now()
		WHERE id = $1`, userID, pinHash, registrationLock)
	if err != nil {
		return fmt.Errorf("store: set pin: %w", err)
	}
	return nil
}

// ClearPIN clears the PIN hash and registration lock but stamps pin_set_at
// so clients know setup was presented and skipped.
func (d *DB) ClearPIN(ctx context.Context, userID uuid.UUID) error {
	_, err := d.conn.ExecContext(ctx, `
		UPDATE users SET pin_hash = NULL, registration_lock = FALSE, pin_set_at = now(), updated_at = now()
		WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("store: clear pin: %w", err)
	}
	return nil
}
