package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"collector-engine/internal/domain"
)

const userTokenableType = `App\Models\User`

type PersonalAccessTokenRepository struct {
	db *sql.DB
}

func NewPersonalAccessTokenRepository(db *sql.DB) *PersonalAccessTokenRepository {
	return &PersonalAccessTokenRepository{db: db}
}

// FindTokenByPlainToken resolves a sanctum-style "id|token" (or bare token)
// against the stored sha256 hash.
func (r *PersonalAccessTokenRepository) FindTokenByPlainToken(ctx context.Context, plainToken string) (*domain.PersonalAccessToken, error) {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" {
		return nil, errors.New("empty token")
	}

	var (
		tokenID   *int64
		tokenPart = plainToken
	)

	if idx := strings.Index(plainToken, "|"); idx > 0 {
		if id, err := strconv.ParseInt(plainToken[:idx], 10, 64); err == nil {
			tokenID = &id
			tokenPart = plainToken[idx+1:]
		}
	}

	sum := sha256.Sum256([]byte(tokenPart))
	hashStr := fmt.Sprintf("%x", sum)

	var pat domain.PersonalAccessToken

	if tokenID != nil {
		query := `
			SELECT id, token, tokenable_id, abilities, expires_at
			FROM personal_access_tokens
			WHERE id = $1
			  AND tokenable_type = $2
			  AND (expires_at IS NULL OR expires_at > $3)
		`

		err := r.db.QueryRowContext(ctx, query, *tokenID, userTokenableType, time.Now()).Scan(
			&pat.ID,
			&pat.TokenHash,
			&pat.UserID,
			&pat.Abilities,
			&pat.ExpiresAt,
		)
		if err == nil && pat.TokenHash == hashStr {
			return &pat, nil
		}
	}

	query := `
		SELECT id, token, tokenable_id, abilities, expires_at
		FROM personal_access_tokens
		WHERE tokenable_type = $1
		  AND token = $2
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.QueryRowContext(ctx, query, userTokenableType, hashStr, time.Now()).Scan(
		&pat.ID,
		&pat.TokenHash,
		&pat.UserID,
		&pat.Abilities,
		&pat.ExpiresAt,
	)
	if err != nil {
		return nil, errors.New("token not found")
	}

	return &pat, nil
}
