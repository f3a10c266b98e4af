package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"storefront-messaging/internal/models"
)

var (
	ErrSessionNotFound = fmt.Errorf("session %w", models.ErrNotFound)
	ErrMemberNotFound  = fmt.Errorf("member %w", models.ErrNotFound)
)

// DirectoryRepository resolves sessions, sellers and display names.
type DirectoryRepository interface {
	ResolveSession(ctx context.Context, token string) (models.CurrentUser, error)
	GetSeller(ctx context.Context, sellerID string) (models.SellerSummary, error)
	MemberName(ctx context.Context, userID string) (string, error)
	ClaimedSupplierName(ctx context.Context, userID string) (string, error)
}

// DirectoryRepo is a sqlx implementation of DirectoryRepository.
type DirectoryRepo struct {
	db *sqlx.DB
}

// NewDirectoryRepo constructs a DirectoryRepo.
func NewDirectoryRepo(db *sqlx.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

// ResolveSession maps an unexpired bearer token to its user.
func (r *DirectoryRepo) ResolveSession(ctx context.Context, token string) (models.CurrentUser, error) {
	var user models.CurrentUser
	err := r.db.GetContext(ctx, &user, `SELECT s.user_id, COALESCE(m.display_name, s.display_name) AS display_name
        FROM sessions s LEFT JOIN members m ON m.user_id = s.user_id
        WHERE s.token=$1 AND s.expires_at > NOW()`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CurrentUser{}, ErrSessionNotFound
	}
	return user, err
}

// GetSeller fetches a supplier by id.
func (r *DirectoryRepo) GetSeller(ctx context.Context, sellerID string) (models.SellerSummary, error) {
	var seller models.SellerSummary
	err := r.db.GetContext(ctx, &seller, `SELECT id, name, logo_url, COALESCE(owner_user_id, '') AS owner_user_id, contactable
        FROM suppliers WHERE id=$1`, sellerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SellerSummary{}, ErrSellerNotFound
	}
	return seller, err
}

// MemberName returns the buyer profile display name.
func (r *DirectoryRepo) MemberName(ctx context.Context, userID string) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name, `SELECT display_name FROM members WHERE user_id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMemberNotFound
	}
	return name, err
}

// ClaimedSupplierName returns the name of the supplier the user has claimed.
func (r *DirectoryRepo) ClaimedSupplierName(ctx context.Context, userID string) (string, error) {
	var name string
	err := r.db.GetContext(ctx, &name, `SELECT name FROM suppliers WHERE owner_user_id=$1 ORDER BY created_at ASC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSellerNotFound
	}
	return name, err
}
