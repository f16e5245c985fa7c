package ports

import (
	"context"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	// Create inserts user and fills its ID. Returns ErrEmailTaken on a duplicate email.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	ListByRole(ctx context.Context, role domain.RoleName, page, limit int) ([]*domain.User, int64, error)
	CountByRole(ctx context.Context, role domain.RoleName) (int64, error)
}
