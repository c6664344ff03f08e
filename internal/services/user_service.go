package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/joshua-takyi/venuely/internal/helpers"
	"github.com/joshua-takyi/venuely/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

type UserService struct {
	userRepo    models.UserRepo
	profileRepo models.ProfileRepo
}

func NewUserService(userRepo models.UserRepo, profileRepo models.ProfileRepo) *UserService {
	return &UserService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (us *UserService) CreateUser(ctx context.Context, in models.SignupInput) (*types.SignupResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}
	if !helpers.IsPasswordStrong(in.Password) {
		return nil, models.NewFieldError("password", "must contain upper and lower case letters, a digit and a special character")
	}
	return us.userRepo.CreateUser(ctx, in)
}

func (us *UserService) AuthenticateUser(ctx context.Context, in models.LoginInput) (*types.TokenResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}
	return us.userRepo.AuthenticateUser(ctx, in.Email, in.Password)
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, models.ErrUnauthorized
	}
	return us.userRepo.RefreshToken(ctx, refreshToken)
}

func (us *UserService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return us.profileRepo.GetProfile(ctx, id)
}

// EnsureProfile loads the caller's profile, creating it from the token
// metadata the first time the user is seen. Only owner and renter are taken
// from user metadata; admin comes from app metadata.
func (us *UserService) EnsureProfile(ctx context.Context, claims *helpers.CustomClaims) (*models.Profile, error) {
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, models.ErrUnauthorized
	}
	return us.profileRepo.EnsureProfile(ctx, &models.Profile{
		ID:       id,
		Email:    strings.ToLower(claims.Email),
		FullName: claims.Metadata("full_name"),
		Phone:    firstNonEmpty(claims.Metadata("phone"), claims.Phone),
		Role:     roleFromClaims(claims),
	})
}

func roleFromClaims(claims *helpers.CustomClaims) models.Role {
	for _, r := range claims.AppMetadata.Roles {
		if strings.EqualFold(r, string(models.RoleAdmin)) {
			return models.RoleAdmin
		}
	}
	if strings.EqualFold(claims.Metadata("role"), string(models.RoleOwner)) {
		return models.RoleOwner
	}
	return models.RoleRenter
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
