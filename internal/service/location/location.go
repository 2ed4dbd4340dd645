// Package location resolves which of a tenant's locations admits a
// coordinate.
package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/pkg/cache"
	"attendance/workforce/internal/service/geofence"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultHint is the client sentinel meaning "no specific location".
const DefaultHint = "default"

const (
	msgNotFound        = "location not found"
	msgOutsideSelected = "you are not within the selected location"
	msgOutsideAll      = "you are not within any registered location"
)

// Store is the persistence the resolver reads from.
type Store interface {
	// ActiveLocations returns the tenant's active locations in the store's
	// natural order.
	ActiveLocations(ctx context.Context, tenantID int) ([]entity.Location, error)
	// GetLocation fails with an error wrapping entity.ErrNotFound for
	// unknown ids.
	GetLocation(ctx context.Context, tenantID, id int) (entity.Location, error)
	// HasLocations reports whether the tenant has any location configured,
	// active or not.
	HasLocations(ctx context.Context, tenantID int) (bool, error)
}

// Result is the outcome of a resolution. A rejected coordinate is a normal
// result, not an error.
type Result struct {
	Admitted   bool
	LocationID *int
	Location   *entity.Location
	Reason     string
}

// AdmissionError reports a rejected coordinate so the caller can echo it.
type AdmissionError struct {
	Reason    string
	Latitude  float64
	Longitude float64
}

func (e *AdmissionError) Error() string {
	return e.Reason
}

// Err converts a rejected Result into an *AdmissionError.
func (r Result) Err(lat, lng float64) error {
	if r.Admitted {
		return nil
	}
	return &AdmissionError{Reason: r.Reason, Latitude: lat, Longitude: lng}
}

type Resolver struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewResolver(store Store, c cache.Cache, ttl time.Duration, log *zap.Logger) *Resolver {
	return &Resolver{store: store, cache: c, ttl: ttl, log: log}
}

// Resolve tests the coordinate against the hinted location, or against every
// active location of the tenant taking the first that admits it. Only a
// tenant with no locations configured at all admits everything, with no
// resolved location; deactivated locations still close the geofence.
func (r *Resolver) Resolve(ctx context.Context, lat, lng float64, tenantID int, hint *string) (Result, error) {
	point := entity.Coordinate{Lat: lat, Lng: lng}

	if hint != nil && *hint != "" && *hint != DefaultHint {
		return r.resolveHint(ctx, point, tenantID, *hint)
	}

	locations, err := r.activeLocations(ctx, tenantID)
	if err != nil {
		return Result{}, err
	}

	if len(locations) == 0 {
		configured, err := r.store.HasLocations(ctx, tenantID)
		if err != nil {
			return Result{}, errors.Wrap(err, "counting locations")
		}
		if !configured {
			return Result{Admitted: true}, nil
		}
		return Result{Reason: msgOutsideAll}, nil
	}

	for i := range locations {
		if geofence.IsAdmitted(point, locations[i]) {
			return admitted(locations[i]), nil
		}
	}

	return Result{Reason: msgOutsideAll}, nil
}

func (r *Resolver) resolveHint(ctx context.Context, point entity.Coordinate, tenantID int, hint string) (Result, error) {
	id, err := strconv.Atoi(hint)
	if err != nil {
		return Result{Reason: msgNotFound}, nil
	}

	loc, err := r.store.GetLocation(ctx, tenantID, id)
	if errors.Is(err, entity.ErrNotFound) {
		return Result{Reason: msgNotFound}, nil
	}
	if err != nil {
		return Result{}, errors.Wrap(err, "loading location")
	}
	if !loc.IsActive {
		return Result{Reason: msgNotFound}, nil
	}

	if !geofence.IsAdmitted(point, loc) {
		return Result{Reason: msgOutsideSelected}, nil
	}
	return admitted(loc), nil
}

func (r *Resolver) activeLocations(ctx context.Context, tenantID int) ([]entity.Location, error) {
	key := TenantKey(tenantID)

	var locations []entity.Location
	if r.cache != nil {
		hit, err := r.cache.Get(ctx, key, &locations)
		if err != nil {
			r.log.Warn("location cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return locations, nil
		}
	}

	locations, err := r.store.ActiveLocations(ctx, tenantID)
	if err != nil {
		return nil, errors.Wrap(err, "loading active locations")
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, locations, r.ttl); err != nil {
			r.log.Warn("location cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return locations, nil
}

// Invalidate drops the cached locations of a tenant. Location writes call it.
func (r *Resolver) Invalidate(ctx context.Context, tenantID int) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, TenantKey(tenantID)); err != nil {
		r.log.Warn("location cache invalidate failed", zap.Int("tenant_id", tenantID), zap.Error(err))
	}
}

// TenantKey is the cache key of a tenant's active locations.
func TenantKey(tenantID int) string {
	return fmt.Sprintf("locations:tenant:%d", tenantID)
}

func admitted(loc entity.Location) Result {
	id := loc.ID
	return Result{Admitted: true, LocationID: &id, Location: &loc}
}
