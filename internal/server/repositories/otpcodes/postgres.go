package otpcodes

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

func (r *PostgresRepository) Replace(ctx context.Context, c *models.OtpChallenge) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		del := `
			DELETE FROM otp_challenges
			WHERE email = $1 AND purpose = $2
		`
		if _, err := tx.ExecContext(ctx, del, c.Email, string(c.Purpose)); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		ins := `
			INSERT INTO otp_challenges (id, subject_id, email, purpose, code_hash, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.ExecContext(ctx, ins,
			c.ID, c.SubjectID, c.Email, string(c.Purpose), c.CodeHash, c.ExpiresAt, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("error performing sql request: %w", err)
		}
		return nil
	})
}

func (r *PostgresRepository) Latest(ctx context.Context, email string, purpose models.Purpose) (*models.OtpChallenge, error) {
	query := `
		SELECT id, subject_id, email, purpose, code_hash, expires_at, created_at
		FROM otp_challenges
		WHERE email = $1 AND purpose = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var (
		c models.OtpChallenge
		p string
	)
	err := r.db.QueryRowContext(ctx, query, email, string(purpose)).
		Scan(&c.ID, &c.SubjectID, &c.Email, &p, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	c.Purpose = models.Purpose(p)
	return &c, nil
}

func (r *PostgresRepository) Consume(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}
