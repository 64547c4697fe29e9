package postgres

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rotaworks/workforce-auth/internal/core/datamodel/ratelimit"
	"github.com/rotaworks/workforce-auth/internal/registration"
)

// RateLimitRepository implements registration.RateLimitRepository on sqlx.
// The upsert is a single statement so concurrent attempts from one address
// cannot lose increments.
type RateLimitRepository struct {
	db *sqlx.DB
}

func NewRateLimitRepository(db *sqlx.DB) registration.RateLimitRepository {
	return &RateLimitRepository{db: db}
}

func (r *RateLimitRepository) Get(sourceAddr string) (*ratelimit.Counter, error) {
	var counter ratelimit.Counter
	query := `SELECT id, ip_address, attempts, last_attempt FROM rate_limits WHERE ip_address = $1`
	if err := r.db.Get(&counter, query, sourceAddr); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("rate limit lookup: %w", err)
	}
	return &counter, nil
}

// RecordAttempt counts one failed attempt. A counter whose last attempt
// predates windowExpiredBefore is reset to 1, otherwise it increments.
func (r *RateLimitRepository) RecordAttempt(sourceAddr string, windowExpiredBefore time.Time) error {
	query := `
INSERT INTO rate_limits (ip_address, attempts, last_attempt)
VALUES ($1, 1, NOW())
ON CONFLICT (ip_address) DO UPDATE SET
  attempts = CASE
    WHEN rate_limits.last_attempt < $2 THEN 1
    ELSE rate_limits.attempts + 1
  END,
  last_attempt = NOW()
`
	if _, err := r.db.Exec(query, sourceAddr, windowExpiredBefore); err != nil {
		return fmt.Errorf("rate limit upsert: %w", err)
	}
	return nil
}
