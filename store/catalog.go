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

type ProductRepository struct {
	coll *mongo.Collection
}

func (r *ProductRepository) List(ctx context.Context, category string, activeOnly bool) ([]models.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	if activeOnly {
		filter["is_active"] = true
	}
	return findAll[models.Product](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return findOne[models.Product](ctx, r.coll, bson.M{"_id": id})
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return findOne[models.Product](ctx, r.coll, bson.M{"slug": slug})
}

func (r *ProductRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return exists(ctx, r.coll, bson.M{"slug": slug})
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	_, err := r.coll.InsertOne(ctx, product)
	return translate(err, "failed to insert product")
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	return replaceByID(ctx, r.coll, product.ID, product)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}

// Reserve takes qty units of an active product off the shelf. The stock check
// and the decrement happen in one conditional update, so concurrent orders
// can never drive stock below zero.
func (r *ProductRepository) Reserve(ctx context.Context, slug string, qty int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"slug": slug, "is_active": true, "stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"stock": -qty},
			"$set": bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return errors.Wrap(err, "failed to reserve stock")
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// Release puts qty units back, undoing Reserve.
func (r *ProductRepository) Release(ctx context.Context, slug string, qty int) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"slug": slug},
		bson.M{
			"$inc": bson.M{"stock": qty},
			"$set": bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return errors.Wrap(err, "failed to release stock")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type ServiceRepository struct {
	coll *mongo.Collection
}

func (r *ServiceRepository) List(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	return findAll[models.Service](ctx, r.coll, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*models.Service, error) {
	return findOne[models.Service](ctx, r.coll, bson.M{"_id": id})
}

func (r *ServiceRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return exists(ctx, r.coll, bson.M{"slug": slug})
}

func (r *ServiceRepository) Create(ctx context.Context, service *models.Service) error {
	_, err := r.coll.InsertOne(ctx, service)
	return translate(err, "failed to insert service")
}

func (r *ServiceRepository) Update(ctx context.Context, service *models.Service) error {
	return replaceByID(ctx, r.coll, service.ID, service)
}

func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.coll, id)
}
