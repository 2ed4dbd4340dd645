package attendance

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"attendance/workforce/foundation/web"
	"attendance/workforce/internal/entity"
	"attendance/workforce/internal/pkg/cache"
	"attendance/workforce/internal/service/face"
	"attendance/workforce/internal/service/fraud"
	"attendance/workforce/internal/service/location"
	"attendance/workforce/internal/service/notification"
	"attendance/workforce/internal/service/points"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memStore is an in-memory stand-in for every store the pipeline touches.
type memStore struct {
	users     map[int]entity.User
	locations []entity.Location
	rules     []entity.PointRule
	events    map[uuid.UUID]*entity.AttendanceEvent
	ledger    []entity.PointsLedgerEntry

	failLedger error
	failRules  error

	// inTx and aborted model a Postgres transaction: after a failed
	// statement every later statement fails until a savepoint rollback.
	inTx    bool
	aborted bool
}

var errAborted = errors.New("current transaction is aborted")

func (m *memStore) statement() error {
	if m.inTx && m.aborted {
		return errAborted
	}
	return nil
}

func (m *memStore) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.inTx {
		return fn(ctx)
	}
	aborted := m.aborted
	err := fn(ctx)
	if err != nil {
		m.aborted = aborted
	}
	return err
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[int]entity.User{},
		events: map[uuid.UUID]*entity.AttendanceEvent{},
	}
}

// RunInTx restores events and ledger when fn fails.
func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	events := map[uuid.UUID]entity.AttendanceEvent{}
	for id, e := range m.events {
		events[id] = *e
	}
	ledger := append([]entity.PointsLedgerEntry(nil), m.ledger...)
	users := map[int]entity.User{}
	for id, u := range m.users {
		users[id] = u
	}

	m.inTx, m.aborted = true, false
	defer func() { m.inTx, m.aborted = false, false }()

	if err := fn(ctx); err != nil {
		m.events = map[uuid.UUID]*entity.AttendanceEvent{}
		for id, e := range events {
			e := e
			m.events[id] = &e
		}
		m.ledger = ledger
		m.users = users
		return err
	}
	return nil
}

func (m *memStore) OpenEvent(_ context.Context, userID int) (*entity.AttendanceEvent, error) {
	for _, e := range m.events {
		if e.UserID == userID && e.IsOpen() {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetEvent(_ context.Context, tenantID int, id uuid.UUID) (*entity.AttendanceEvent, error) {
	e, ok := m.events[id]
	if !ok || e.TenantID != tenantID {
		return nil, web.NewRequestError(errors.New("attendance not found"), http.StatusNotFound)
	}
	c := *e
	return &c, nil
}

func (m *memStore) CreateEvent(ctx context.Context, e *entity.AttendanceEvent) error {
	if err := m.statement(); err != nil {
		return err
	}
	if open, _ := m.OpenEvent(ctx, e.UserID); open != nil {
		return web.NewRequestError(entity.ErrAlreadyCheckedIn, http.StatusConflict)
	}
	c := *e
	m.events[e.ID] = &c
	return nil
}

func (m *memStore) UpdateCheckOut(_ context.Context, e *entity.AttendanceEvent) error {
	if err := m.statement(); err != nil {
		return err
	}
	stored, ok := m.events[e.ID]
	if !ok || !stored.IsOpen() {
		return web.NewRequestError(entity.ErrNoActiveCheckIn, http.StatusBadRequest)
	}
	c := *e
	m.events[e.ID] = &c
	return nil
}

func (m *memStore) SetPoints(_ context.Context, id uuid.UUID, pts int) error {
	if err := m.statement(); err != nil {
		return err
	}
	m.events[id].PointsEarned = pts
	return nil
}

func (m *memStore) GetUser(_ context.Context, id int) (entity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return entity.User{}, web.NewRequestError(errors.New("user not found"), http.StatusNotFound)
	}
	return u, nil
}

func (m *memStore) TenantAdmins(context.Context, int) ([]entity.User, error) {
	return nil, nil
}

func (m *memStore) Award(_ context.Context, entry *entity.PointsLedgerEntry) error {
	if err := m.statement(); err != nil {
		return err
	}
	if m.failLedger != nil {
		return m.failLedger
	}
	u := m.users[entry.UserID]
	u.PointsBalance += entry.Points
	m.users[entry.UserID] = u
	entry.BalanceAfter = u.PointsBalance
	m.ledger = append(m.ledger, *entry)
	return nil
}

func (m *memStore) ActiveLocations(context.Context, int) ([]entity.Location, error) {
	var active []entity.Location
	for _, l := range m.locations {
		if l.IsActive {
			active = append(active, l)
		}
	}
	return active, nil
}

func (m *memStore) HasLocations(context.Context, int) (bool, error) {
	return len(m.locations) > 0, nil
}

func (m *memStore) GetLocation(_ context.Context, _, id int) (entity.Location, error) {
	for _, l := range m.locations {
		if l.ID == id {
			return l, nil
		}
	}
	return entity.Location{}, entity.ErrNotFound
}

func (m *memStore) ActiveRules(context.Context, int) ([]entity.PointRule, error) {
	if m.failRules != nil {
		m.aborted = m.inTx
		return nil, m.failRules
	}
	return m.rules, nil
}

func (m *memStore) CountAttendedDays(context.Context, int, time.Time, *time.Location) (int, error) {
	return 0, nil
}

func (m *memStore) LastEventWithGPSBefore(_ context.Context, userID int, before time.Time) (*entity.AttendanceEvent, error) {
	var last *entity.AttendanceEvent
	for _, e := range m.events {
		if e.UserID == userID && e.CheckInTime.Before(before) && (last == nil || e.CheckInTime.After(last.CheckInTime)) {
			last = e
		}
	}
	return last, nil
}

type recordingNotifier struct {
	kinds []notification.Kind
}

func (r *recordingNotifier) Notify(_ context.Context, _ entity.User, kind notification.Kind, _ map[string]interface{}) {
	r.kinds = append(r.kinds, kind)
}

type stubFace struct {
	calls  int
	result face.Result
}

func (s *stubFace) Compare(context.Context, string, string) face.Result {
	s.calls++
	return s.result
}

// Wednesday 08:00 UTC.
var start = time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC)

func newPipeline(store *memStore, matcher FaceMatcher, notifier Notifier) *Pipeline {
	log := zap.NewNop()
	p := NewPipeline(Dependencies{
		Events:   store,
		Users:    store,
		Ledger:   store,
		Resolver: location.NewResolver(store, cache.NewMemory(), time.Minute, log),
		Face:     matcher,
		Fraud:    fraud.NewAnalyzer(store, log),
		Points:   points.NewEngine(points.Isolated(store, store), time.UTC, log),
		Notifier: notifier,
		Log:      log,
	})

	now := start
	return p.WithClock(func() time.Time { return now })
}

func seed() *memStore {
	store := newMemStore()
	store.users[7] = entity.User{BasicEntity: entity.BasicEntity{ID: 7}, TenantID: 1}
	store.locations = []entity.Location{{
		BasicEntity:  entity.BasicEntity{ID: 1},
		TenantID:     1,
		Name:         "HQ",
		Latitude:     -6.2000,
		Longitude:    106.8000,
		RadiusMeters: 100,
		IsActive:     true,
	}}
	return store
}

func TestCheckIn_EndToEnd(t *testing.T) {
	store := seed()
	notifier := &recordingNotifier{}
	matcher := &stubFace{}
	p := newPipeline(store, matcher, notifier)

	res, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: -6.2001, Longitude: 106.8001})
	if err != nil {
		t.Fatal(err)
	}

	if res.PointsEarned != 10 {
		t.Errorf("points_earned = %d, want 10", res.PointsEarned)
	}
	if res.FaceVerified {
		t.Error("face_verified = true, want false")
	}
	if matcher.calls != 0 {
		t.Error("face matcher called without a photo")
	}
	if res.LocationID == nil || *res.LocationID != 1 {
		t.Errorf("location_id = %v, want 1", res.LocationID)
	}
	if res.FraudScore != 0 {
		t.Errorf("fraud_score = %d, want 0", res.FraudScore)
	}

	if len(store.ledger) != 1 || store.ledger[0].Points != 10 || store.ledger[0].BalanceAfter != 10 {
		t.Errorf("ledger = %+v, want one 10 point entry", store.ledger)
	}
	if got := store.events[res.AttendanceID].PointsEarned; got != 10 {
		t.Errorf("stored points = %d, want 10", got)
	}
	if len(notifier.kinds) != 1 || notifier.kinds[0] != notification.CheckInSuccess {
		t.Errorf("notifications = %v", notifier.kinds)
	}
}

func TestCheckIn_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		req    CheckInRequest
		status int
	}{
		{"invalid latitude", CheckInRequest{UserID: 7, Latitude: 91, Longitude: 0}, http.StatusBadRequest},
		{"outside every location", CheckInRequest{UserID: 7, Latitude: 0, Longitude: 0}, http.StatusBadRequest},
		{"unknown hint", CheckInRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8, LocationHint: strPtr("99")}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seed()
			p := newPipeline(store, &stubFace{}, &recordingNotifier{})

			_, err := p.CheckIn(context.Background(), tt.req)
			webErr, ok := web.AsRequestError(err)
			if !ok || webErr.Status != tt.status {
				t.Fatalf("err = %v, want status %d", err, tt.status)
			}
			if len(store.events) != 0 || len(store.ledger) != 0 {
				t.Error("rejected check-in left side effects")
			}
		})
	}
}

func TestCheckIn_DeactivatedLocationsStillGate(t *testing.T) {
	store := seed()
	store.locations[0].IsActive = false
	p := newPipeline(store, &stubFace{}, &recordingNotifier{})

	_, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: 51.5, Longitude: -0.12})
	webErr, ok := web.AsRequestError(err)
	if !ok || webErr.Status != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
	if len(store.events) != 0 {
		t.Error("event persisted for a rejected coordinate")
	}
}

func TestCheckIn_OutsideEchoesCoordinate(t *testing.T) {
	p := newPipeline(seed(), &stubFace{}, &recordingNotifier{})

	_, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: 1.5, Longitude: 2.5})
	webErr, ok := web.AsRequestError(err)
	if !ok {
		t.Fatalf("err = %v, want request error", err)
	}
	if webErr.Fields["latitude"] != 1.5 || webErr.Fields["longitude"] != 2.5 {
		t.Errorf("fields = %v, want echoed coordinate", webErr.Fields)
	}
	var admission *location.AdmissionError
	if !errors.As(err, &admission) {
		t.Errorf("err = %v, want AdmissionError", err)
	}
}

func TestCheckIn_TwiceIsConflict(t *testing.T) {
	p := newPipeline(seed(), &stubFace{}, &recordingNotifier{})
	req := CheckInRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8}

	if _, err := p.CheckIn(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	_, err := p.CheckIn(context.Background(), req)
	if !errors.Is(err, entity.ErrAlreadyCheckedIn) {
		t.Fatalf("err = %v, want ErrAlreadyCheckedIn", err)
	}
	if webErr, _ := web.AsRequestError(err); webErr.Status != http.StatusConflict {
		t.Errorf("status = %d, want 409", webErr.Status)
	}
}

func TestCheckIn_FaceIsAdvisory(t *testing.T) {
	store := seed()
	u := store.users[7]
	u.FacePhotoURL = strPtr("https://cdn/ref.jpg")
	store.users[7] = u

	matcher := &stubFace{result: face.Result{Error: "model unavailable"}}
	p := newPipeline(store, matcher, &recordingNotifier{})

	res, err := p.CheckIn(context.Background(), CheckInRequest{
		UserID: 7, Latitude: -6.2, Longitude: 106.8, PhotoURL: strPtr("https://cdn/today.jpg"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if matcher.calls != 1 || res.FaceVerified || res.FaceConfidence != 0 {
		t.Errorf("got %+v after %d calls", res, matcher.calls)
	}
	if got := store.events[res.AttendanceID].FacePhotoURL; got == nil || *got != "https://cdn/today.jpg" {
		t.Errorf("photo = %v", got)
	}
}

func TestCheckIn_MockLocationFlagged(t *testing.T) {
	store := seed()
	p := newPipeline(store, &stubFace{}, &recordingNotifier{})

	res, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8, MockLocation: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.FraudScore != fraud.WeightMockLocation {
		t.Errorf("fraud_score = %d, want %d", res.FraudScore, fraud.WeightMockLocation)
	}
	if !store.events[res.AttendanceID].FraudIndicators.MockLocation {
		t.Error("mock_location indicator not stored")
	}
}

func TestCheckIn_LedgerFailureRollsBack(t *testing.T) {
	store := seed()
	store.failLedger = errors.New("ledger down")
	p := newPipeline(store, &stubFace{}, &recordingNotifier{})

	if _, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8}); err == nil {
		t.Fatal("expected persistence failure")
	}
	if len(store.events) != 0 {
		t.Error("event persisted despite ledger failure")
	}
}

func TestCheckIn_RuleStoreFailureKeepsEvent(t *testing.T) {
	store := seed()
	store.failRules = errors.New("canceling statement due to statement timeout")
	p := newPipeline(store, &stubFace{}, &recordingNotifier{})

	res, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8})
	if err != nil {
		t.Fatalf("check-in failed: %v", err)
	}

	if res.PointsEarned != points.DefaultCheckIn {
		t.Errorf("points_earned = %d, want %d", res.PointsEarned, points.DefaultCheckIn)
	}
	stored, ok := store.events[res.AttendanceID]
	if !ok {
		t.Fatal("event not persisted")
	}
	if stored.PointsEarned != points.DefaultCheckIn {
		t.Errorf("stored points = %d, want %d", stored.PointsEarned, points.DefaultCheckIn)
	}
	if len(store.ledger) != 1 || store.ledger[0].Points != points.DefaultCheckIn {
		t.Errorf("ledger = %+v, want one default entry", store.ledger)
	}
}

func TestCheckOut(t *testing.T) {
	store := seed()
	store.rules = []entity.PointRule{
		{RuleType: entity.RuleCheckIn, PointsAmount: 10, Conditions: entity.CheckInConditions{}},
		{RuleType: entity.RuleFullDay, PointsAmount: 20, Conditions: entity.FullDayConditions{Hours: 8}},
	}
	notifier := &recordingNotifier{}
	p := newPipeline(store, &stubFace{}, notifier)

	in, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8})
	if err != nil {
		t.Fatal(err)
	}

	p.WithClock(func() time.Time { return start.Add(9 * time.Hour) })
	out, err := p.CheckOut(context.Background(), CheckOutRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8})
	if err != nil {
		t.Fatal(err)
	}

	if out.AttendanceID != in.AttendanceID {
		t.Errorf("closed %s, want %s", out.AttendanceID, in.AttendanceID)
	}
	if out.PointsEarned != 20 || out.TotalPoints != 30 {
		t.Errorf("points = %d/%d, want 20/30", out.PointsEarned, out.TotalPoints)
	}
	if out.HoursWorked != 9 {
		t.Errorf("hours = %v, want 9", out.HoursWorked)
	}
	if store.events[in.AttendanceID].IsOpen() {
		t.Error("event still open")
	}
	if store.users[7].PointsBalance != 30 {
		t.Errorf("balance = %d, want 30", store.users[7].PointsBalance)
	}

	_, err = p.CheckOut(context.Background(), CheckOutRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8})
	if !errors.Is(err, entity.ErrNoActiveCheckIn) {
		t.Errorf("second check-out err = %v, want ErrNoActiveCheckIn", err)
	}
}

func TestCheckOut_RequiresAdmission(t *testing.T) {
	store := seed()
	p := newPipeline(store, &stubFace{}, &recordingNotifier{})

	in, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.CheckOut(context.Background(), CheckOutRequest{UserID: 7, AttendanceID: &in.AttendanceID, Latitude: 10, Longitude: 10})
	var admission *location.AdmissionError
	if !errors.As(err, &admission) {
		t.Fatalf("err = %v, want AdmissionError", err)
	}
	if !store.events[in.AttendanceID].IsOpen() {
		t.Error("rejected check-out closed the event")
	}
}

func TestCheckOut_OtherUsersEvent(t *testing.T) {
	store := seed()
	store.users[8] = entity.User{BasicEntity: entity.BasicEntity{ID: 8}, TenantID: 1}
	p := newPipeline(store, &stubFace{}, &recordingNotifier{})

	in, err := p.CheckIn(context.Background(), CheckInRequest{UserID: 7, Latitude: -6.2, Longitude: 106.8})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.CheckOut(context.Background(), CheckOutRequest{UserID: 8, AttendanceID: &in.AttendanceID, Latitude: -6.2, Longitude: 106.8})
	if webErr, ok := web.AsRequestError(err); !ok || webErr.Status != http.StatusNotFound {
		t.Errorf("err = %v, want 404", err)
	}
}

func strPtr(s string) *string { return &s }
