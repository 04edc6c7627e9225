// Package adapters holds the external-collaborator implementations §6 and
// §4.H specify only by interface: the search-backend writer, the contact
// store, and the provider read-client contracts.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrContactNotFound is returned by ContactStore.GetByEmail when no row
// matches (user_id, email).
var ErrContactNotFound = errors.New("adapters: contact not found")

// Contact is a person entity keyed by (user_id, lowercased_email), per
// (I4). EventCounts is the per-event-type frequency map contact-discovery
// maintains; its sum must equal TotalEventCount (P6).
type Contact struct {
	ID              string
	UserID          string
	Email           string
	GivenName       string
	FamilyName      string
	SourceServices  []string
	EventCounts     map[string]int
	TotalEventCount int
	RelevanceScore  float64
	FirstSeen       time.Time
	LastSeen        time.Time
}

// ContactStore is relational persistence with per-user scoping and the
// read patterns §4.F needs: lookup by (user_id, email), ranked listing by
// relevance, substring search over email/name.
type ContactStore interface {
	GetByEmail(ctx context.Context, userID, email string) (Contact, error)
	Upsert(ctx context.Context, c Contact) error
	ListByRelevance(ctx context.Context, userID string, limit int) ([]Contact, error)
	Search(ctx context.Context, userID, query string) ([]Contact, error)
}

// PostgresContactStore is the pgx/v5-backed ContactStore implementation.
type PostgresContactStore struct {
	pool *pgxpool.Pool
}

// NewPostgresContactStore wraps an already-configured pool (tracer,
// connection limits, etc. are the caller's concern — see cmd/ bootstraps).
func NewPostgresContactStore(pool *pgxpool.Pool) *PostgresContactStore {
	return &PostgresContactStore{pool: pool}
}

func (s *PostgresContactStore) GetByEmail(ctx context.Context, userID, email string) (Contact, error) {
	const q = `
		SELECT id, user_id, email, given_name, family_name, source_services,
		       event_counts, total_event_count, relevance_score, first_seen, last_seen
		FROM contacts
		WHERE user_id = $1 AND email = $2`

	var c Contact
	err := s.pool.QueryRow(ctx, q, userID, email).Scan(
		&c.ID, &c.UserID, &c.Email, &c.GivenName, &c.FamilyName, &c.SourceServices,
		&c.EventCounts, &c.TotalEventCount, &c.RelevanceScore, &c.FirstSeen, &c.LastSeen,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrContactNotFound
	}
	if err != nil {
		return Contact{}, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

// Upsert inserts a new contact or replaces an existing one scoped to
// (user_id, email). Contact-discovery always reads-then-writes a full
// Contact value, so this is a straight upsert rather than a partial patch.
func (s *PostgresContactStore) Upsert(ctx context.Context, c Contact) error {
	if c.ID == "" {
		id, _ := uuid.NewV7()
		c.ID = id.String()
	}

	const q = `
		INSERT INTO contacts (id, user_id, email, given_name, family_name, source_services,
		                       event_counts, total_event_count, relevance_score, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, email) DO UPDATE SET
			given_name        = EXCLUDED.given_name,
			family_name       = EXCLUDED.family_name,
			source_services   = EXCLUDED.source_services,
			event_counts      = EXCLUDED.event_counts,
			total_event_count = EXCLUDED.total_event_count,
			relevance_score   = EXCLUDED.relevance_score,
			last_seen         = EXCLUDED.last_seen`

	_, err := s.pool.Exec(ctx, q,
		c.ID, c.UserID, c.Email, c.GivenName, c.FamilyName, c.SourceServices,
		c.EventCounts, c.TotalEventCount, c.RelevanceScore, c.FirstSeen, c.LastSeen,
	)
	if err != nil {
		return fmt.Errorf("upsert contact: %w", err)
	}
	return nil
}

func (s *PostgresContactStore) ListByRelevance(ctx context.Context, userID string, limit int) ([]Contact, error) {
	const q = `
		SELECT id, user_id, email, given_name, family_name, source_services,
		       event_counts, total_event_count, relevance_score, first_seen, last_seen
		FROM contacts
		WHERE user_id = $1
		ORDER BY relevance_score DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

func (s *PostgresContactStore) Search(ctx context.Context, userID, query string) ([]Contact, error) {
	const q = `
		SELECT id, user_id, email, given_name, family_name, source_services,
		       event_counts, total_event_count, relevance_score, first_seen, last_seen
		FROM contacts
		WHERE user_id = $1 AND (email ILIKE $2 OR given_name ILIKE $2 OR family_name ILIKE $2)
		ORDER BY relevance_score DESC`

	rows, err := s.pool.Query(ctx, q, userID, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	defer rows.Close()
	return scanContacts(rows)
}

func scanContacts(rows pgx.Rows) ([]Contact, error) {
	var out []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Email, &c.GivenName, &c.FamilyName, &c.SourceServices,
			&c.EventCounts, &c.TotalEventCount, &c.RelevanceScore, &c.FirstSeen, &c.LastSeen,
		); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
