package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/dbx"
	"github.com/dmitrijs2005/linkup/internal/server/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func insert(ctx context.Context, db dbx.DBTX, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, seller_id, refresh_token_hash, user_agent, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	var ua sql.NullString
	if s.UserAgent != "" {
		ua = sql.NullString{String: s.UserAgent, Valid: true}
	}
	if _, err := db.ExecContext(ctx, query, s.ID, s.SellerID, s.RefreshTokenHash, ua, s.CreatedAt, s.ExpiresAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func deleteByID(ctx context.Context, db dbx.DBTX, id string) (bool, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Session) error {
	return insert(ctx, r.db, s)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, seller_id, refresh_token_hash, user_agent, created_at, expires_at
		FROM sessions
		WHERE id = $1
	`
	var (
		s  models.Session
		ua sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&s.ID, &s.SellerID, &s.RefreshTokenHash, &ua, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.UserAgent = ua.String
	return &s, nil
}

var errSessionGone = errors.New("session already rotated")

func (r *PostgresRepository) Rotate(ctx context.Context, oldID string, next *models.Session) (bool, error) {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := deleteByID(ctx, tx, oldID)
		if err != nil {
			return err
		}
		if !ok {
			return errSessionGone
		}
		return insert(ctx, tx, next)
	})
	if errors.Is(err, errSessionGone) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	return deleteByID(ctx, r.db, id)
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
