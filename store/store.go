// Package store is the MongoDB persistence layer. A Store is created once at
// startup, handed to the handlers, and closed at shutdown.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("document not found")
	ErrDuplicate         = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStatusChanged     = errors.New("status changed concurrently")
)

const (
	doctorsCollection      = "doctors"
	departmentsCollection  = "departments"
	appointmentsCollection = "appointments"
	productsCollection     = "products"
	servicesCollection     = "services"
	ordersCollection       = "orders"
	applicantsCollection   = "applicants"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// Connect opens the MongoDB client with retry and verifies it with a ping.
func Connect(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Store, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Minute)

	var client *mongo.Client
	var err error
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		client, err = mongo.Connect(clientOpts)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = client.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				break
			}
			_ = client.Disconnect(ctx)
		}
		logger.Warn("failed to connect to mongodb, retrying...",
			zap.Error(err),
			zap.Int("attempt", i+1))
		time.Sleep(time.Second * time.Duration(i+1))
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb connection failed after %d attempts: %v", maxRetries, err)
	}

	logger.Info("connected to mongodb", zap.String("database", dbName))
	return &Store{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes creates the unique indexes the handlers rely on. The
// appointment index is the final guard against double booking: only one
// active appointment may hold a doctor/date/slot triple.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		appointmentsCollection: {
			{
				Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "date", Value: 1}, {Key: "slot", Value: 1}},
				Options: options.Index().
					SetName("uniq_active_doctor_date_slot").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"active": true}),
			},
			{
				Keys:    bson.D{{Key: "reference", Value: 1}},
				Options: options.Index().SetName("uniq_reference").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "date", Value: 1}, {Key: "minute", Value: 1}},
				Options: options.Index().SetName("date_minute"),
			},
		},
		ordersCollection: {
			{
				Keys:    bson.D{{Key: "reference", Value: 1}},
				Options: options.Index().SetName("uniq_reference").SetUnique(true),
			},
		},
		applicantsCollection: {
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("status_created_at"),
			},
		},
	}
	for _, name := range []string{doctorsCollection, departmentsCollection, productsCollection, servicesCollection} {
		indexes[name] = append(indexes[name], mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("uniq_slug").SetUnique(true),
		})
	}

	for collection, models := range indexes {
		names, err := s.db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return errors.Wrapf(err, "failed to create indexes on %s", collection)
		}
		s.logger.Info("indexes verified",
			zap.String("collection", collection),
			zap.Strings("indexes", names))
	}
	return nil
}

func (s *Store) Doctors() *DoctorRepository {
	return &DoctorRepository{coll: s.db.Collection(doctorsCollection)}
}

func (s *Store) Departments() *DepartmentRepository {
	return &DepartmentRepository{coll: s.db.Collection(departmentsCollection)}
}

func (s *Store) Appointments() *AppointmentRepository {
	return &AppointmentRepository{coll: s.db.Collection(appointmentsCollection)}
}

func (s *Store) Products() *ProductRepository {
	return &ProductRepository{coll: s.db.Collection(productsCollection)}
}

func (s *Store) Services() *ServiceRepository {
	return &ServiceRepository{coll: s.db.Collection(servicesCollection)}
}

func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{coll: s.db.Collection(ordersCollection)}
}

func (s *Store) Applicants() *ApplicantRepository {
	return &ApplicantRepository{coll: s.db.Collection(applicantsCollection)}
}

// translate maps driver errors onto the package sentinels.
func translate(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.Wrap(ErrDuplicate, action)
	default:
		return errors.Wrap(err, action)
	}
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts *options.FindOptionsBuilder) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s", coll.Name())
	}
	defer cursor.Close(ctx)

	results := []T{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", coll.Name())
	}
	return results, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err, "failed to load from "+coll.Name())
	}
	return &doc, nil
}

func exists(ctx context.Context, coll *mongo.Collection, filter interface{}) (bool, error) {
	count, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "failed to count %s", coll.Name())
	}
	return count > 0, nil
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc interface{}) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return translate(err, "failed to update "+coll.Name())
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "failed to delete from %s", coll.Name())
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
