package location

import (
	"context"
	"errors"
	"testing"

	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/pkg/cache"

	"go.uber.org/zap"
)

type mockStore struct {
	ActiveFunc func(ctx context.Context, tenantID int) ([]entity.Location, error)
	GetFunc    func(ctx context.Context, tenantID, id int) (entity.Location, error)
	HasFunc    func(ctx context.Context, tenantID int) (bool, error)
	ActiveCall int
}

func (m *mockStore) HasLocations(ctx context.Context, tenantID int) (bool, error) {
	if m.HasFunc != nil {
		return m.HasFunc(ctx, tenantID)
	}
	return false, nil
}

func (m *mockStore) ActiveLocations(ctx context.Context, tenantID int) ([]entity.Location, error) {
	m.ActiveCall++
	if m.ActiveFunc != nil {
		return m.ActiveFunc(ctx, tenantID)
	}
	return nil, nil
}

func (m *mockStore) GetLocation(ctx context.Context, tenantID, id int) (entity.Location, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, tenantID, id)
	}
	return entity.Location{}, entity.ErrNotFound
}

func loc(id int, lat, lng, radius float64) entity.Location {
	l := entity.Location{Latitude: lat, Longitude: lng, RadiusMeters: radius, IsActive: true}
	l.ID = id
	return l
}

func strPtr(s string) *string { return &s }

func newResolver(store Store) *Resolver {
	return NewResolver(store, cache.NewMemory(), 0, zap.NewNop())
}

func TestResolve_FirstAdmittingWins(t *testing.T) {
	// Both locations admit the point; the first in store order is chosen even
	// though the second is closer.
	store := &mockStore{ActiveFunc: func(context.Context, int) ([]entity.Location, error) {
		return []entity.Location{
			loc(1, -6.2000, 106.8000, 5000),
			loc(2, -6.2001, 106.8001, 100),
		}, nil
	}}

	res, err := newResolver(store).Resolve(context.Background(), -6.2001, 106.8001, 1, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Admitted || res.LocationID == nil || *res.LocationID != 1 {
		t.Fatalf("got %+v, want admitted at location 1", res)
	}
}

func TestResolve_NoneAdmit(t *testing.T) {
	store := &mockStore{ActiveFunc: func(context.Context, int) ([]entity.Location, error) {
		return []entity.Location{loc(1, 0, 0, 10)}, nil
	}}

	res, err := newResolver(store).Resolve(context.Background(), 1, 1, 1, strPtr(DefaultHint))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Admitted {
		t.Fatal("expected rejection")
	}

	var admErr *AdmissionError
	if !errors.As(res.Err(1, 1), &admErr) || admErr.Latitude != 1 || admErr.Longitude != 1 {
		t.Errorf("Err = %v, want AdmissionError echoing coordinate", res.Err(1, 1))
	}
}

func TestResolve_NoLocationsConfigured(t *testing.T) {
	res, err := newResolver(&mockStore{}).Resolve(context.Background(), 1, 1, 1, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Admitted || res.LocationID != nil {
		t.Errorf("got %+v, want admitted without location", res)
	}
}

func TestResolve_AllLocationsInactive(t *testing.T) {
	store := &mockStore{
		ActiveFunc: func(context.Context, int) ([]entity.Location, error) {
			return nil, nil
		},
		HasFunc: func(_ context.Context, tenantID int) (bool, error) {
			return tenantID == 3, nil
		},
	}

	// Jakarta office deactivated, check-in attempted from London.
	res, err := newResolver(store).Resolve(context.Background(), 51.5, -0.12, 3, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Admitted || res.LocationID != nil {
		t.Fatalf("got %+v, want rejection", res)
	}
	if res.Reason != msgOutsideAll {
		t.Errorf("reason = %q, want %q", res.Reason, msgOutsideAll)
	}
}

func TestResolve_CountFailure(t *testing.T) {
	store := &mockStore{HasFunc: func(context.Context, int) (bool, error) {
		return false, errors.New("connection reset")
	}}

	if _, err := newResolver(store).Resolve(context.Background(), 1, 1, 1, nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestResolve_Hint(t *testing.T) {
	store := &mockStore{
		GetFunc: func(_ context.Context, _ int, id int) (entity.Location, error) {
			switch id {
			case 5:
				return loc(5, 0, 0, 100), nil
			case 6:
				l := loc(6, 0, 0, 100)
				l.IsActive = false
				return l, nil
			}
			return entity.Location{}, entity.ErrNotFound
		},
		ActiveFunc: func(context.Context, int) ([]entity.Location, error) {
			t.Error("hinted resolution must not enumerate locations")
			return nil, nil
		},
	}
	r := newResolver(store)
	ctx := context.Background()

	tests := []struct {
		name   string
		hint   string
		lat    float64
		admit  bool
		reason string
	}{
		{"inside hinted", "5", 0, true, ""},
		{"outside hinted", "5", 1, false, msgOutsideSelected},
		{"unknown id", "9", 0, false, msgNotFound},
		{"inactive", "6", 0, false, msgNotFound},
		{"not a number", "hq", 0, false, msgNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Resolve(ctx, tt.lat, 0, 1, strPtr(tt.hint))
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if res.Admitted != tt.admit || res.Reason != tt.reason {
				t.Errorf("got %+v, want admitted=%v reason=%q", res, tt.admit, tt.reason)
			}
		})
	}
}

func TestResolve_UsesCacheUntilInvalidated(t *testing.T) {
	store := &mockStore{ActiveFunc: func(context.Context, int) ([]entity.Location, error) {
		return []entity.Location{loc(1, 0, 0, 100)}, nil
	}}
	r := newResolver(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(ctx, 0, 0, 7, nil); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}
	if store.ActiveCall != 1 {
		t.Errorf("store called %d times, want 1", store.ActiveCall)
	}

	r.Invalidate(ctx, 7)
	if _, err := r.Resolve(ctx, 0, 0, 7, nil); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if store.ActiveCall != 2 {
		t.Errorf("store called %d times after invalidate, want 2", store.ActiveCall)
	}
}

func TestResolve_StoreFailure(t *testing.T) {
	store := &mockStore{ActiveFunc: func(context.Context, int) ([]entity.Location, error) {
		return nil, errors.New("db down")
	}}

	if _, err := newResolver(store).Resolve(context.Background(), 0, 0, 1, nil); err == nil {
		t.Fatal("expected store failure to surface")
	}
}
