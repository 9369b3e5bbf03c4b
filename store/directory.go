package store

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/VanitasCaesar1/hospital/models"
)

type DoctorRepository struct {
	coll *mongo.Collection
}

// DoctorQuery narrows doctor listings. Department is a department slug.
type DoctorQuery struct {
	Department string
	ActiveOnly bool
}

func (r *DoctorRepository) List(ctx context.Context, q DoctorQuery) ([]models.Doctor, error) {
	filter := bson.M{}
	if q.Department != "" {
		filter["department"] = q.Department
	}
	if q.ActiveOnly {
		filter["is_active"] = true
	}
	return findAll[models.Doctor](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *DoctorRepository) GetByID(ctx context.Context, id string) (*models.Doctor, error) {
	return findOne[models.Doctor](ctx, r.coll, bson.M{"_id": id})
}

func (r *DoctorRepository) GetBySlug(ctx context.Context, slug string) (*models.Doctor, error) {
	return findOne[models.Doctor](ctx, r.coll, bson.M{"slug": slug})
}

func (r *DoctorRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return exists(ctx, r.coll, bson.M{"slug": slug})
}

func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	_, err := r.coll.InsertOne(ctx, doctor)
	return translate(err, "failed to insert doctor")
}

func (r *DoctorRepository) Update(ctx context.Context, doctor *models.Doctor) error {
	return replaceByID(ctx, r.coll, doctor.ID, doctor)
}

func (r *DoctorRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

type DepartmentRepository struct {
	coll *mongo.Collection
}

func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	return findAll[models.Department](ctx, r.coll, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id string) (*models.Department, error) {
	return findOne[models.Department](ctx, r.coll, bson.M{"_id": id})
}

func (r *DepartmentRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return exists(ctx, r.coll, bson.M{"slug": slug})
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) error {
	_, err := r.coll.InsertOne(ctx, dept)
	return translate(err, "failed to insert department")
}

func (r *DepartmentRepository) Update(ctx context.Context, dept *models.Department) error {
	return replaceByID(ctx, r.coll, dept.ID, dept)
}

func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
