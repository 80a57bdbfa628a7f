package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/account-service/internal/domain"
)

const accountColumns = `id, email, password_hash, first_name, last_name, nick_name, phone, location, bio, picture,
        facebook_link, twitter_link, instagram_link, linkedin_link, youtube_link,
        is_online, last_access_token, created_at, updated_at`

// pgxQuerier is the part of *pgxpool.Pool the repository uses.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type postgresAccountRepository struct {
	pool pgxQuerier
}

// NewPostgresAccountRepository returns a Postgres-backed implementation.
func NewPostgresAccountRepository(pool pgxQuerier) AccountRepository {
	return &postgresAccountRepository{pool: pool}
}

func (r *postgresAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (id, email, password_hash, first_name, last_name)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateAccount
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *postgresAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *postgresAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

// Update relies on COALESCE so that NULL parameters keep the stored value.
func (r *postgresAccountRepository) Update(ctx context.Context, id string, patch domain.AccountPatch) (*domain.Account, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	query := `
        UPDATE accounts SET
            password_hash = COALESCE($2, password_hash),
            is_online = COALESCE($3, is_online),
            last_access_token = COALESCE($4, last_access_token),
            first_name = COALESCE($5, first_name),
            last_name = COALESCE($6, last_name),
            nick_name = COALESCE($7, nick_name),
            phone = COALESCE($8, phone),
            location = COALESCE($9, location),
            bio = COALESCE($10, bio),
            picture = COALESCE($11, picture),
            facebook_link = COALESCE($12, facebook_link),
            twitter_link = COALESCE($13, twitter_link),
            instagram_link = COALESCE($14, instagram_link),
            linkedin_link = COALESCE($15, linkedin_link),
            youtube_link = COALESCE($16, youtube_link),
            updated_at = NOW()
        WHERE id=$1
        RETURNING ` + accountColumns

	return r.scanOne(r.pool.QueryRow(ctx, query,
		id,
		patch.PasswordHash,
		patch.IsOnline,
		patch.LastAccessToken,
		patch.FirstName,
		patch.LastName,
		patch.NickName,
		patch.Phone,
		patch.Location,
		patch.Bio,
		patch.Picture,
		patch.FacebookLink,
		patch.TwitterLink,
		patch.InstagramLink,
		patch.LinkedinLink,
		patch.YoutubeLink,
	))
}

func (r *postgresAccountRepository) Ping(ctx context.Context) error {
	if r.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return r.pool.Ping(ctx)
}

func (r *postgresAccountRepository) scanOne(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PasswordHash,
		&a.FirstName,
		&a.LastName,
		&a.NickName,
		&a.Phone,
		&a.Location,
		&a.Bio,
		&a.Picture,
		&a.FacebookLink,
		&a.TwitterLink,
		&a.InstagramLink,
		&a.LinkedinLink,
		&a.YoutubeLink,
		&a.IsOnline,
		&a.LastAccessToken,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}
