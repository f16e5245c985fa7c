package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

const collectionEvents = "appointment_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	db *mongo.Database
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) ports.AuditRepository {
	return &AuditRepository{db: db}
}

// Record persists a transition to the appointment_events audit collection.
func (r *AuditRepository) Record(ctx context.Context, event *domain.TransitionEvent) error {
	doc := bson.M{
		"kind":        string(event.Kind),
		"from":        event.From,
		"to":          event.To,
		"actor_id":    event.ActorID,
		"actor_role":  string(event.ActorRole),
		"occurred_at": event.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if oid, ok := objectID(event.AppointmentID); ok {
		doc["appointment_id"] = oid
	} else {
		doc["appointment_id"] = event.AppointmentID
	}

	if _, err := r.db.Collection(collectionEvents).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
