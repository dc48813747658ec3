package sellers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/dmitrijs2005/linkup/internal/dbx"
	"github.com/dmitrijs2005/linkup/internal/server/models"
)

// PostgresRepository stores sellers in the sellers table. The wallet is
// kept as a JSONB document.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sellerColumns = `id, business_name, business_name_hash, email, password_hash, country, wallet, verified_at, created_at, updated_at`

func encodeWallet(w *models.WalletRecord) ([]byte, error) {
	if w == nil {
		return nil, nil
	}
	return json.Marshal(w)
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Seller) error {
	wallet, err := encodeWallet(s.Wallet)
	if err != nil {
		return fmt.Errorf("encode wallet: %w", err)
	}

	query := `
		INSERT INTO sellers (` + sellerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.BusinessName, s.BusinessNameHash, s.Email, s.PasswordHash, s.Country,
		wallet, s.VerifiedAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) findOne(ctx context.Context, column, value string) (*models.Seller, error) {
	query := `SELECT ` + sellerColumns + ` FROM sellers WHERE ` + column + ` = $1`

	var (
		s        models.Seller
		wallet   []byte
		verified sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&s.ID, &s.BusinessName, &s.BusinessNameHash, &s.Email, &s.PasswordHash, &s.Country,
		&wallet, &verified, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(wallet) > 0 {
		s.Wallet = &models.WalletRecord{}
		if err := json.Unmarshal(wallet, s.Wallet); err != nil {
			return nil, fmt.Errorf("decode wallet: %w", err)
		}
	}
	if verified.Valid {
		t := verified.Time
		s.VerifiedAt = &t
	}
	return &s, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Seller, error) {
	return r.findOne(ctx, "id", id)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	return r.findOne(ctx, "email", email)
}

func (r *PostgresRepository) FindByBusinessNameHash(ctx context.Context, hash string) (*models.Seller, error) {
	return r.findOne(ctx, "business_name_hash", hash)
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.Seller) error {
	wallet, err := encodeWallet(s.Wallet)
	if err != nil {
		return fmt.Errorf("encode wallet: %w", err)
	}
	s.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE sellers
		SET password_hash = $2, wallet = $3, verified_at = $4, updated_at = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, s.ID, s.PasswordHash, wallet, s.VerifiedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
