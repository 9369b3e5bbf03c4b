package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/VanitasCaesar1/hospital/models"
)

type AppointmentRepository struct {
	coll *mongo.Collection
}

// BookedSlots returns the slot labels held by active appointments of a doctor
// on a date.
func (r *AppointmentRepository) BookedSlots(ctx context.Context, doctorID, date string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"slot": 1, "_id": 0})
	cursor, err := r.coll.Find(ctx, bson.M{"doctor_id": doctorID, "date": date, "active": true}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query booked slots")
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Slot string `bson:"slot"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, errors.Wrap(err, "failed to decode booked slots")
	}
	slots := make([]string, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, row.Slot)
	}
	return slots, nil
}

// Create inserts the appointment. A second active booking of the same slot
// fails with ErrDuplicate.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	_, err := r.coll.InsertOne(ctx, appt)
	return translate(err, "failed to insert appointment")
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	return findOne[models.Appointment](ctx, r.coll, bson.M{"_id": id})
}

func (r *AppointmentRepository) GetByReference(ctx context.Context, reference string) (*models.Appointment, error) {
	return findOne[models.Appointment](ctx, r.coll, bson.M{"reference": reference})
}

func (r *AppointmentRepository) List(ctx context.Context, f models.AppointmentFilter) ([]models.Appointment, error) {
	filter := bson.M{}
	if f.DoctorID != "" {
		filter["doctor_id"] = f.DoctorID
	}
	if f.Date != "" {
		filter["date"] = f.Date
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "minute", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	if f.Offset > 0 {
		opts.SetSkip(f.Offset)
	}
	return findAll[models.Appointment](ctx, r.coll, filter, opts)
}

// UpdateStatus moves an appointment from one status to another. The write only
// applies while the stored status is still from; otherwise ErrStatusChanged.
// Cancelling clears the active flag so the slot drops out of the unique index
// and can be booked again.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, from, to string) (*models.Appointment, error) {
	update := bson.M{"$set": bson.M{
		"status":     to,
		"active":     to != models.AppointmentCancelled,
		"updated_at": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var appt models.Appointment
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, update, opts).Decode(&appt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStatusChanged
	}
	if err != nil {
		return nil, translate(err, "failed to update appointment status")
	}
	return &appt, nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

type OrderRepository struct {
	coll *mongo.Collection
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	_, err := r.coll.InsertOne(ctx, order)
	return translate(err, "failed to insert order")
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return findOne[models.Order](ctx, r.coll, bson.M{"_id": id})
}

func (r *OrderRepository) List(ctx context.Context, status string) ([]models.Order, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return findAll[models.Order](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// UpdateStatus moves an order from one status to another, failing with
// ErrStatusChanged when another writer got there first.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return errors.Wrap(err, "failed to update order status")
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}
