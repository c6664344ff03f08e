package models

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"
	"gorm.io/gorm"
)

// UserRepo is the hosted auth provider.
type UserRepo interface {
	CreateUser(ctx context.Context, input SignupInput) (*types.SignupResponse, error)
	AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

type ProfileRepo interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	EnsureProfile(ctx context.Context, profile *Profile) (*Profile, error)
}

func (su *SupabaseRepo) CreateUser(ctx context.Context, input SignupInput) (*types.SignupResponse, error) {
	res, err := su.supabaseClient.Auth.Signup(types.SignupRequest{
		Email:    input.Email,
		Password: input.Password,
		Data: map[string]interface{}{
			"full_name": input.FullName,
			"phone":     input.Phone,
			"role":      input.Role,
		},
	})
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "already registered") || strings.Contains(msg, "already been registered") {
			return nil, ErrEmailTaken
		}
		return nil, errors.Wrap(err, "signup")
	}
	return res, nil
}

func (su *SupabaseRepo) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "sign in"), ErrUnauthorized)
	}
	return resp, nil
}

func (su *SupabaseRepo) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	resp, err := su.supabaseClient.Auth.RefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "refresh token"), ErrUnauthorized)
	}
	return resp, nil
}

func (r *GormRepo) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, errors.Wrap(err, "get profile")
	}
	return &p, nil
}

// EnsureProfile returns the stored profile, creating it from the given values
// on first sight. Existing rows keep their fields, except that the admin role
// follows the given profile so grants and revocations take effect.
func (r *GormRepo) EnsureProfile(ctx context.Context, profile *Profile) (*Profile, error) {
	var p Profile
	err := r.db.WithContext(ctx).
		Where(Profile{ID: profile.ID}).
		Attrs(*profile).
		FirstOrCreate(&p).Error
	if err != nil {
		return nil, errors.Wrap(err, "ensure profile")
	}

	if p.Role != profile.Role && (p.Role == RoleAdmin || profile.Role == RoleAdmin) {
		err := r.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", p.ID).Update("role", profile.Role).Error
		if err != nil {
			return nil, errors.Wrap(err, "update profile role")
		}
		p.Role = profile.Role
	}
	return &p, nil
}
