package ports

import (
	"context"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// UpdateProfileInput holds optional profile changes; nil means unchanged.
type UpdateProfileInput struct {
	Name            *string
	Phone           *string
	CurrentPassword string
	NewPassword     string
}

// Session is an established login.
type Session struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a session token into the current user.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Me(ctx context.Context, actor domain.Identity) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.Identity, in UpdateProfileInput) (*domain.User, error)
}
