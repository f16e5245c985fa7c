package ports

import (
	"context"

	"github.com/psyconsult/booking-api/internal/core/domain"
)

// AuditRepository persists lifecycle transitions.
type AuditRepository interface {
	Record(ctx context.Context, event *domain.TransitionEvent) error
}
