package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Afonso017/fraud-detector/internal/domain/model"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
)

// PostgresStore implements repository.ProfileStore with PostgreSQL. Schema is
// managed by goose, see migrations/ and cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

var _ repository.ProfileStore = (*PostgresStore)(nil)

func (p *PostgresStore) GetProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	profile := &model.UserProfile{UserID: userID}
	err := p.db.QueryRowContext(ctx, `
		SELECT transaction_count, average_amount, last_known_country
		FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&profile.TransactionCount, &profile.AverageAmount, &profile.LastKnownCountry)

	if err == sql.ErrNoRows {
		return nil, repository.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (p *PostgresStore) SaveProfile(ctx context.Context, profile *model.UserProfile) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO user_profiles (user_id, transaction_count, average_amount, last_known_country, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			transaction_count  = EXCLUDED.transaction_count,
			average_amount     = EXCLUDED.average_amount,
			last_known_country = EXCLUDED.last_known_country,
			updated_at         = NOW()
	`, profile.UserID, profile.TransactionCount, profile.AverageAmount, profile.LastKnownCountry)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}
