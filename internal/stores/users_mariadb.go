package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/keywarden/keywarden/internal/domain"
)

// mysqlDuplicateEntry is the server error code for a unique key violation.
const mysqlDuplicateEntry = 1062

// MariaDBUserStore persists credential records in the users table. The
// primary key on email makes duplicate registration atomic at the database:
// of two concurrent inserts for the same identity, exactly one commits.
type MariaDBUserStore struct {
	db    *sql.DB
	clock domain.Clock
}

// NewMariaDBUserStore creates a credential store backed by the given pool.
func NewMariaDBUserStore(db *sql.DB, clock domain.Clock) *MariaDBUserStore {
	return &MariaDBUserStore{db: db, clock: clock}
}

// Add hashes the password and inserts the record. The hash is computed
// before touching the database.
func (s *MariaDBUserStore) Add(ctx context.Context, email domain.Email, password domain.Password, requiresTwoFactor bool) error {
	hash, err := hashPassword(string(password))
	if err != nil {
		return err
	}

	query := `INSERT INTO users (email, password_hash, requires_2fa, created_at)
	          VALUES (?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query, email.String(), hash, requiresTwoFactor, s.clock.Now())
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// Get returns the credential record for the identity.
func (s *MariaDBUserStore) Get(ctx context.Context, email domain.Email) (domain.User, error) {
	query := `SELECT email, password_hash, requires_2fa, created_at
	          FROM users WHERE email = ?`

	var (
		rawEmail string
		user     domain.User
	)
	err := s.db.QueryRowContext(ctx, query, email.String()).Scan(
		&rawEmail,
		&user.PasswordHash,
		&user.RequiresTwoFactor,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("querying user: %w", err)
	}

	user.Email = domain.Email(rawEmail)
	return user, nil
}

// ValidateCredentials fetches the stored hash and compares the candidate
// outside any transaction.
func (s *MariaDBUserStore) ValidateCredentials(ctx context.Context, email domain.Email, candidate string) error {
	user, err := s.Get(ctx, email)
	if err != nil {
		return err
	}
	if !verifyPassword(candidate, user.PasswordHash) {
		return domain.ErrPasswordMismatch
	}
	return nil
}
