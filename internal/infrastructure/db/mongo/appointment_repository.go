package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/psyconsult/booking-api/internal/core/domain"
	"github.com/psyconsult/booking-api/internal/core/ports"
)

const collectionAppointments = "appointments"

// AppointmentRepository implements ports.AppointmentRepository. Every mutation
// is a single FindOneAndUpdate so paired fields change atomically.
type AppointmentRepository struct {
	col *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) *AppointmentRepository {
	return &AppointmentRepository{col: db.Collection(collectionAppointments)}
}

type appointmentDoc struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty"`
	UserID        *primitive.ObjectID `bson:"user_id"`
	Name          string              `bson:"name"`
	Email         string              `bson:"email"`
	Phone         string              `bson:"phone,omitempty"`
	Message       string              `bson:"message"`
	PreferredDate *string             `bson:"preferred_date"`
	PreferredTime *string             `bson:"preferred_time"`
	ServiceType   string              `bson:"service_type"`
	Status        string              `bson:"status"`
	PaymentStatus string              `bson:"payment_status"`
	Price         *int64              `bson:"price"`
	PaidAt        *time.Time          `bson:"paid_at"`
	IPAddress     string              `bson:"ip_address,omitempty"`
	UserAgent     string              `bson:"user_agent,omitempty"`
	CookieConsent bool                `bson:"cookie_consent"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toAppointmentDoc(a *domain.Appointment) appointmentDoc {
	doc := appointmentDoc{
		Name:          a.Name,
		Email:         a.Email,
		Phone:         a.Phone,
		Message:       a.Message,
		PreferredDate: optionalString(a.PreferredDate),
		PreferredTime: optionalString(a.PreferredTime),
		ServiceType:   string(a.ServiceType),
		Status:        string(a.Status),
		PaymentStatus: string(a.PaymentStatus),
		PaidAt:        a.PaidAt,
		IPAddress:     a.IPAddress,
		UserAgent:     a.UserAgent,
		CookieConsent: a.CookieConsent,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if oid, ok := objectID(a.UserID); ok {
		doc.UserID = &oid
	}
	if a.Price != nil {
		p := int64(*a.Price)
		doc.Price = &p
	}
	return doc
}

func (d *appointmentDoc) toDomain() *domain.Appointment {
	a := &domain.Appointment{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Email:         d.Email,
		Phone:         d.Phone,
		Message:       d.Message,
		PreferredDate: derefString(d.PreferredDate),
		PreferredTime: derefString(d.PreferredTime),
		ServiceType:   domain.ServiceType(d.ServiceType),
		Status:        domain.AppointmentStatus(d.Status),
		PaymentStatus: domain.PaymentStatusName(d.PaymentStatus),
		IPAddress:     d.IPAddress,
		UserAgent:     d.UserAgent,
		CookieConsent: d.CookieConsent,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	if d.UserID != nil {
		a.UserID = d.UserID.Hex()
	}
	if d.Price != nil {
		p := domain.Money(*d.Price)
		a.Price = &p
	}
	if d.PaidAt != nil {
		t := d.PaidAt.UTC()
		a.PaidAt = &t
	}
	return a
}

// Create inserts a new appointment and fills its ID.
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, toAppointmentDoc(a))
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

// FindByID retrieves an appointment. Malformed ids are reported as not found.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc appointmentDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return doc.toDomain(), nil
}

// UpdateStatus sets the status and, when price is given, assigns it only if
// the stored price is null. Status and price land in the same write.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus, price *domain.Money, at time.Time) (*domain.Appointment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}

	set := bson.D{
		{Key: "status", Value: bson.D{{Key: "$literal", Value: string(status)}}},
		{Key: "updated_at", Value: at.UTC()},
	}
	if price != nil {
		set = append(set, bson.E{Key: "price", Value: bson.D{
			{Key: "$ifNull", Value: bson.A{"$price", int64(*price)}},
		}})
	}
	update := mongo.Pipeline{{{Key: "$set", Value: set}}}

	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, update)
}

// MarkPaid sets payment_status and paid_at together. With requireConfirmed the
// write is conditional on a confirmed, unpaid appointment.
func (r *AppointmentRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time, requireConfirmed bool) (*domain.Appointment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}

	filter := bson.M{"_id": oid}
	if requireConfirmed {
		filter["status"] = string(domain.StatusConfirmed)
		filter["payment_status"] = bson.M{"$ne": string(domain.PaymentPaid)}
	}
	update := bson.M{"$set": bson.M{
		"payment_status": string(domain.PaymentPaid),
		"paid_at":        paidAt.UTC(),
		"updated_at":     paidAt.UTC(),
	}}

	updated, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, domain.ErrAppointmentNotFound) && requireConfirmed {
		return nil, r.explainMiss(ctx, id, domain.PaymentPrecondition)
	}
	return updated, err
}

// Refund moves a paid appointment to refunded.
func (r *AppointmentRepository) Refund(ctx context.Context, id string, at time.Time) (*domain.Appointment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}

	filter := bson.M{"_id": oid, "payment_status": string(domain.PaymentPaid)}
	update := bson.M{"$set": bson.M{
		"payment_status": string(domain.PaymentRefunded),
		"updated_at":     at.UTC(),
	}}

	updated, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, domain.ErrAppointmentNotFound) {
		return nil, r.explainMiss(ctx, id, domain.RefundPrecondition)
	}
	return updated, err
}

// explainMiss tells apart a missing appointment from one whose state no
// longer satisfied the conditional filter.
func (r *AppointmentRepository) explainMiss(ctx context.Context, id string, precondition func(*domain.Appointment) error) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := precondition(current); err != nil {
		return err
	}
	return domain.ErrInvalidPaymentState
}

func (r *AppointmentRepository) findOneAndUpdate(ctx context.Context, filter, update any) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc appointmentDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return doc.toDomain(), nil
}

// LinkToUser back-fills user_id on unlinked appointments submitted with email.
func (r *AppointmentRepository) LinkToUser(ctx context.Context, email, userID string) (int64, error) {
	oid, ok := objectID(userID)
	if !ok {
		return 0, fmt.Errorf("link appointments: invalid user id %q", userID)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{"email": email, "user_id": nil},
		bson.M{"$set": bson.M{"user_id": oid}},
	)
	if err != nil {
		return 0, fmt.Errorf("link appointments: %w", err)
	}
	return res.ModifiedCount, nil
}

// buildFilter translates an AppointmentFilter into a Mongo query.
func buildFilter(f ports.AppointmentFilter) bson.M {
	q := bson.M{}

	if f.Owner != nil {
		or := bson.A{}
		if oid, ok := objectID(f.Owner.UserID); ok {
			or = append(or, bson.M{"user_id": oid})
		}
		if f.Owner.Email != "" {
			or = append(or, bson.M{"email": f.Owner.Email})
		}
		if len(or) == 0 {
			// An empty scope owns nothing.
			q["_id"] = bson.M{"$exists": false}
		} else {
			q["$or"] = or
		}
	}
	if f.UserID != "" {
		oid, _ := objectID(f.UserID)
		q["user_id"] = oid
	}
	if len(f.Statuses) == 1 {
		q["status"] = string(f.Statuses[0])
	} else if len(f.Statuses) > 1 {
		in := make(bson.A, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			in = append(in, string(s))
		}
		q["status"] = bson.M{"$in": in}
	}
	if f.PaymentStatus != "" {
		q["payment_status"] = string(f.PaymentStatus)
	}

	dateRange := bson.M{}
	if f.DateFrom != "" {
		dateRange["$gte"] = f.DateFrom
	}
	if f.DateTo != "" {
		dateRange["$lte"] = f.DateTo
	}
	if len(dateRange) > 0 {
		q["preferred_date"] = dateRange
	}

	return q
}

// List returns appointments ordered by preferred date and time descending.
func (r *AppointmentRepository) List(ctx context.Context, f ports.AppointmentFilter) ([]*domain.Appointment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	q := buildFilter(f)

	total, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "preferred_date", Value: -1},
		{Key: "preferred_time", Value: -1},
		{Key: "_id", Value: -1},
	})
	if f.Limit > 0 {
		opts.SetSkip(skipFor(f.Page, f.Limit)).SetLimit(int64(f.Limit))
	}

	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer cur.Close(ctx)

	var docs []appointmentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode appointments: %w", err)
	}

	items := make([]*domain.Appointment, 0, len(docs))
	for i := range docs {
		items = append(items, docs[i].toDomain())
	}
	return items, total, nil
}

func (r *AppointmentRepository) Count(ctx context.Context, f ports.AppointmentFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, buildFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count appointments: %w", err)
	}
	return n, nil
}

// SumPrice sums the price of matching appointments. Unpriced ones count as zero.
func (r *AppointmentRepository) SumPrice(ctx context.Context, f ports.AppointmentFilter) (domain.Money, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(f)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$price"}}},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("sum prices: %w", err)
	}
	defer cur.Close(ctx)

	var out []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, fmt.Errorf("decode price sum: %w", err)
	}
	if len(out) == 0 {
		return 0, nil
	}
	return domain.Money(out[0].Total), nil
}

// EnsureIndexes creates the indexes used by ownership checks, listings and stats.
func (r *AppointmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "payment_status", Value: 1}}},
		{Keys: bson.D{{Key: "preferred_date", Value: -1}, {Key: "preferred_time", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
