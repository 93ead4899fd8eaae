package user

import (
	"context"
	"errors"

	"tankcatalog/internal/auth"
)

// Provider adapts SQLStore to the auth engine's credential-store contract.
type Provider struct {
	store *SQLStore
}

// NewProvider wraps store for consumption by the auth engine.
func NewProvider(store *SQLStore) *Provider {
	return &Provider{store: store}
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error) {
	rec, err := p.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return toAuthRecord(rec), nil
}

func (p *Provider) GetUserByID(ctx context.Context, id string) (*auth.UserRecord, error) {
	rec, err := p.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return toAuthRecord(rec), nil
}

func (p *Provider) CreateUser(ctx context.Context, input auth.CreateUserInput) (*auth.UserRecord, error) {
	rec, err := p.store.Create(ctx, input.Username, input.Email, input.PasswordHash)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, auth.ErrProviderDuplicate
		}
		return nil, err
	}
	return toAuthRecord(rec), nil
}

func (p *Provider) Roles(ctx context.Context, userID string) ([]string, error) {
	return p.store.Roles(ctx, userID)
}

func (p *Provider) GrantRole(ctx context.Context, userID, role string) error {
	return p.store.AddRole(ctx, userID, role)
}

func toAuthRecord(rec *Record) *auth.UserRecord {
	return &auth.UserRecord{
		ID:           rec.ID,
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}
}

func mapLookupErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return auth.ErrProviderNotFound
	}
	return err
}
