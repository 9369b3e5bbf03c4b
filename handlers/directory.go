package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/VanitasCaesar1/hospital/cache"
	"github.com/VanitasCaesar1/hospital/models"
)

// DoctorDirectory resolves doctors by slug through an optional cache. A nil
// cache means every lookup goes to the store.
type DoctorDirectory struct {
	doctors DoctorStore
	cache   Cache
	logger  *zap.Logger
}

func NewDoctorDirectory(doctors DoctorStore, c Cache, logger *zap.Logger) *DoctorDirectory {
	return &DoctorDirectory{doctors: doctors, cache: c, logger: logger}
}

func doctorCacheKey(slug string) string {
	return "doctor:" + slug
}

// BySlug returns the doctor with slug; store.ErrNotFound when there is none.
func (d *DoctorDirectory) BySlug(ctx context.Context, slug string) (*models.Doctor, error) {
	if d.cache != nil {
		var doctor models.Doctor
		err := d.cache.Get(ctx, doctorCacheKey(slug), &doctor)
		if err == nil {
			return &doctor, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			d.logger.Warn("doctor cache read failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	doctor, err := d.doctors.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, doctorCacheKey(slug), doctor); err != nil {
			d.logger.Warn("doctor cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	return doctor, nil
}

// Invalidate drops cached entries for the given slugs.
func (d *DoctorDirectory) Invalidate(ctx context.Context, slugs ...string) {
	if d.cache == nil || len(slugs) == 0 {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, doctorCacheKey(s))
		}
	}
	if err := d.cache.Delete(ctx, keys...); err != nil {
		d.logger.Warn("doctor cache invalidation failed", zap.Strings("slugs", slugs), zap.Error(err))
	}
}
