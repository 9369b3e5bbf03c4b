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

type ApplicantRepository struct {
	coll *mongo.Collection
}

func (r *ApplicantRepository) Create(ctx context.Context, applicant *models.Applicant) error {
	_, err := r.coll.InsertOne(ctx, applicant)
	return translate(err, "failed to insert applicant")
}

func (r *ApplicantRepository) GetByID(ctx context.Context, id string) (*models.Applicant, error) {
	return findOne[models.Applicant](ctx, r.coll, bson.M{"_id": id})
}

// List returns applicants newest first, optionally narrowed by status and
// position.
func (r *ApplicantRepository) List(ctx context.Context, status, position string) ([]models.Applicant, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if position != "" {
		filter["position"] = position
	}
	return findAll[models.Applicant](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *ApplicantRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": bson.M{
		"status":     to,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return errors.Wrap(err, "failed to update applicant status")
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *ApplicantRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
