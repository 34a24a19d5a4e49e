package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	courtRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/court"
	maintenanceRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/maintenance"
	userRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/user"
	"github.com/m04kA/SMC-FacilityService/internal/service/maintenance/models"
	"github.com/m04kA/SMC-FacilityService/pkg/logger"
	"github.com/m04kA/SMC-FacilityService/pkg/ptr"
	"github.com/m04kA/SMC-FacilityService/pkg/txmanager"
)

var now = time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC)

type fakeMaintenanceRepo struct {
	items  map[int64]*domain.Maintenance
	nextID int64
}

func newFakeMaintenanceRepo() *fakeMaintenanceRepo {
	return &fakeMaintenanceRepo{items: make(map[int64]*domain.Maintenance)}
}

func (f *fakeMaintenanceRepo) Create(_ context.Context, m *domain.Maintenance) (*domain.Maintenance, error) {
	f.nextID++
	stored := *m
	stored.ID = f.nextID
	f.items[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeMaintenanceRepo) GetByID(_ context.Context, id int64) (*domain.Maintenance, error) {
	m, ok := f.items[id]
	if !ok {
		return nil, maintenanceRepo.ErrMaintenanceNotFound
	}
	out := *m
	return &out, nil
}

func (f *fakeMaintenanceRepo) GetConflictCandidates(_ context.Context, courtID int64, start, searchEnd time.Time, excludeID *int64) ([]*domain.Maintenance, error) {
	out := make([]*domain.Maintenance, 0)
	for _, m := range f.items {
		if m.CourtID != courtID || !m.IsActive() {
			continue
		}
		if excludeID != nil && m.ID == *excludeID {
			continue
		}
		if !m.ScheduledStart.After(searchEnd) && m.End().After(start) {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeMaintenanceRepo) Update(_ context.Context, m *domain.Maintenance) error {
	if _, ok := f.items[m.ID]; !ok {
		return maintenanceRepo.ErrMaintenanceNotFound
	}
	stored := *m
	f.items[m.ID] = &stored
	return nil
}

func (f *fakeMaintenanceRepo) List(_ context.Context, filter domain.MaintenanceFilter) ([]*domain.Maintenance, int, error) {
	matched := make([]*domain.Maintenance, 0)
	for id := int64(1); id <= f.nextID; id++ {
		m, ok := f.items[id]
		if !ok {
			continue
		}
		if filter.Status != nil && m.Status != *filter.Status {
			continue
		}
		matched = append(matched, m)
	}

	page := domain.NormalizePage(filter.Page, filter.Limit)
	from := page.Offset()
	if from > len(matched) {
		from = len(matched)
	}
	to := from + page.Limit
	if to > len(matched) {
		to = len(matched)
	}
	return matched[from:to], len(matched), nil
}

func (f *fakeMaintenanceRepo) GetStats(_ context.Context, at time.Time) (*domain.MaintenanceStats, error) {
	stats := &domain.MaintenanceStats{
		ByStatus:   make(map[domain.MaintenanceStatus]int),
		ByType:     make(map[domain.MaintenanceType]int),
		ByPriority: make(map[domain.MaintenancePriority]int),
	}
	for _, m := range f.items {
		stats.Total++
		stats.ByStatus[m.Status]++
		stats.ByType[m.Type]++
		stats.ByPriority[m.Priority]++
		if m.IsOverdue(at) {
			stats.Overdue++
		}
	}
	return stats, nil
}

type fakeCourts struct{}

func (fakeCourts) GetByID(_ context.Context, id int64) (*domain.Court, error) {
	if id > 2 {
		return nil, courtRepo.ErrCourtNotFound
	}
	return &domain.Court{ID: id, IsActive: true}, nil
}

type fakeUsers struct {
	users map[int64]*domain.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, userRepo.ErrUserNotFound
	}
	return u, nil
}

type fakeNotifier struct {
	sent []domain.NotificationTemplate
}

func (f *fakeNotifier) Enqueue(_ context.Context, template domain.NotificationTemplate, _ *int64, _ interface{}) error {
	f.sent = append(f.sent, template)
	return nil
}

type passTx struct{ err error }

func (p passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.err != nil {
		return p.err
	}
	return fn(ctx)
}

func (p passTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return p.Do(ctx, fn)
}

func (p passTx) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return p.Do(ctx, fn)
}

// snapshotTx считает чтения в read-only транзакции
type snapshotTx struct {
	passTx
	reads int
}

func (s *snapshotTx) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	s.reads++
	return fn(ctx)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	svc      *Service
	repo     *fakeMaintenanceRepo
	notifier *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		repo:     newFakeMaintenanceRepo(),
		notifier: &fakeNotifier{},
	}
	users := &fakeUsers{users: map[int64]*domain.User{
		1: {ID: 1, Role: domain.RoleAdmin},
		2: {ID: 2, Role: domain.RoleStaff},
		3: {ID: 3, Role: domain.RoleUser},
	}}

	f.svc = NewService(f.repo, fakeCourts{}, users, f.notifier, passTx{}, logger.Nop(), Config{ConflictBuffer: 24 * time.Hour})
	f.svc.timeProvider = fixedClock{now: now}
	return f
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, time.UTC)
}

func createReq(courtID int64, start time.Time, minutes int) *models.CreateRequest {
	return &models.CreateRequest{
		CourtID:         courtID,
		Type:            "CORRECTIVE",
		Title:           "Surface repair",
		ScheduledStart:  start,
		DurationMinutes: minutes,
	}
}

func (f *fixture) mustCreate(t *testing.T, courtID int64, start time.Time, minutes int) *models.MaintenanceResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), 1, createReq(courtID, start, minutes))
	require.NoError(t, err)
	return resp
}

func TestCreate_OverlapScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, at(1, 10, 0), 60)
	assert.Equal(t, "SCHEDULED", a.Status)
	assert.Equal(t, "MEDIUM", a.Priority)
	assert.Equal(t, at(1, 11, 0), a.ScheduledEnd)

	_, err := f.svc.Create(ctx, 1, createReq(1, at(1, 10, 30), 30))
	require.ErrorIs(t, err, ErrSchedulingConflict)

	c, err := f.svc.Create(ctx, 1, createReq(1, at(2, 9, 0), 30))
	require.NoError(t, err)
	assert.NotZero(t, c.ID)

	assert.Equal(t, []domain.NotificationTemplate{
		domain.TemplateMaintenanceScheduled, domain.TemplateMaintenanceScheduled,
	}, f.notifier.sent)
}

func TestCreate_AsymmetricBuffer(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		start    time.Time
		minutes  int
		conflict bool
	}{
		{name: "starts 22h before existing", start: at(1, 12, 0), minutes: 30, conflict: true},
		{name: "starts exactly 24h before existing", start: at(1, 10, 0), minutes: 30, conflict: true},
		{name: "starts more than 24h before existing", start: at(1, 9, 59), minutes: 30},
		{name: "ends right at existing start", start: at(2, 9, 0), minutes: 60, conflict: true},
		{name: "starts right at existing end", start: at(2, 11, 0), minutes: 60},
		{name: "starts 2h after existing end", start: at(2, 13, 0), minutes: 30},
		{name: "covers existing window", start: at(2, 9, 0), minutes: 180, conflict: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.mustCreate(t, 1, at(2, 10, 0), 60)

			_, err := f.svc.Create(ctx, 1, createReq(1, tt.start, tt.minutes))
			if tt.conflict {
				require.ErrorIs(t, err, ErrSchedulingConflict)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreate_IgnoresOtherCourtsAndInactiveWindows(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	existing := f.mustCreate(t, 1, at(1, 10, 0), 60)

	_, err := f.svc.Create(ctx, 1, createReq(2, at(1, 10, 0), 60))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, existing.ID, "rain")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, 1, createReq(1, at(1, 10, 0), 60))
	require.NoError(t, err)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := createReq(1, at(1, 10, 0), 60)
	req.Type = "WEEKLY"
	_, err := f.svc.Create(ctx, 1, req)
	require.ErrorIs(t, err, ErrInvalidInput)

	req = createReq(1, at(1, 10, 0), 0)
	_, err = f.svc.Create(ctx, 1, req)
	require.ErrorIs(t, err, ErrInvalidInput)

	req = createReq(1, at(1, 10, 0), 60)
	req.Title = "   "
	_, err = f.svc.Create(ctx, 1, req)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Create(ctx, 1, createReq(9, at(1, 10, 0), 60))
	require.ErrorIs(t, err, ErrCourtNotFound)

	req = createReq(1, at(1, 10, 0), 60)
	req.AssigneeID = ptr.Ptr(int64(3))
	_, err = f.svc.Create(ctx, 1, req)
	require.ErrorIs(t, err, ErrAssigneeInvalid)

	req.AssigneeID = ptr.Ptr(int64(42))
	_, err = f.svc.Create(ctx, 1, req)
	require.ErrorIs(t, err, ErrAssigneeInvalid)

	req.AssigneeID = ptr.Ptr(int64(2))
	resp, err := f.svc.Create(ctx, 1, req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), *resp.AssigneeID)
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, at(1, 10, 0), 60)
	b := f.mustCreate(t, 1, at(3, 10, 0), 60)

	// Сдвиг внутри собственного окна не конфликтует сам с собой
	resp, err := f.svc.Update(ctx, a.ID, &models.UpdateRequest{ScheduledStart: ptr.Ptr(at(1, 10, 15))})
	require.NoError(t, err)
	assert.Equal(t, at(1, 10, 15), resp.ScheduledStart)

	// Перенос в окно другой задачи
	_, err = f.svc.Update(ctx, a.ID, &models.UpdateRequest{ScheduledStart: ptr.Ptr(at(3, 10, 30))})
	require.ErrorIs(t, err, ErrSchedulingConflict)

	stored, err := f.svc.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, at(1, 10, 15), stored.ScheduledStart)

	// Без изменения окна проверка не выполняется
	resp, err = f.svc.Update(ctx, b.ID, &models.UpdateRequest{Title: ptr.Ptr("Net replacement"), Priority: ptr.Ptr("HIGH")})
	require.NoError(t, err)
	assert.Equal(t, "Net replacement", resp.Title)
	assert.Equal(t, "HIGH", resp.Priority)

	_, err = f.svc.Complete(ctx, 1, b.ID, &models.CompleteRequest{})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, b.ID, &models.UpdateRequest{Title: ptr.Ptr("late edit")})
	require.ErrorIs(t, err, ErrImmutableState)

	_, err = f.svc.Update(ctx, 999, &models.UpdateRequest{})
	require.ErrorIs(t, err, ErrMaintenanceNotFound)
}

func TestStartAndComplete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, at(1, 10, 0), 60)

	started, err := f.svc.Start(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "IN_PROGRESS", started.Status)
	require.NotNil(t, started.ActualStart)

	_, err = f.svc.Start(ctx, a.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	f.svc.timeProvider = fixedClock{now: now.Add(90 * time.Minute)}

	resp, err := f.svc.Complete(ctx, 2, a.ID, &models.CompleteRequest{
		Cost:  ptr.Ptr(150.0),
		Notes: ptr.Ptr("replaced lines"),
	})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", resp.Maintenance.Status)
	assert.Equal(t, 90, *resp.Maintenance.ActualDuration)
	assert.Equal(t, "Completed: replaced lines", *resp.Maintenance.Notes)
	assert.Nil(t, resp.FollowUp)

	_, err = f.svc.Complete(ctx, 2, a.ID, &models.CompleteRequest{})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestComplete_SchedulesFollowUp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, at(1, 10, 0), 60)

	// Следующее обслуживание в окне самой завершаемой задачи: она уже COMPLETED и не мешает
	resp, err := f.svc.Complete(ctx, 2, a.ID, &models.CompleteRequest{NextMaintenanceDate: ptr.Ptr(at(1, 10, 30))})
	require.NoError(t, err)
	require.NotNil(t, resp.FollowUp)
	assert.Equal(t, "PREVENTIVE", resp.FollowUp.Type)
	assert.Equal(t, "SCHEDULED", resp.FollowUp.Status)
	assert.Equal(t, 60, resp.FollowUp.DurationMinutes)
	assert.Equal(t, int64(2), *resp.FollowUp.CreatedBy)
}

func TestComplete_FollowUpConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, at(1, 10, 0), 60)
	f.mustCreate(t, 1, at(8, 10, 0), 60)

	_, err := f.svc.Complete(ctx, 1, a.ID, &models.CompleteRequest{NextMaintenanceDate: ptr.Ptr(at(8, 9, 0))})
	require.ErrorIs(t, err, ErrSchedulingConflict)

	_, err = f.svc.Complete(ctx, 1, a.ID, &models.CompleteRequest{NextMaintenanceDate: ptr.Ptr(now.Add(-time.Hour))})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.mustCreate(t, 1, at(1, 10, 0), 60)

	resp, err := f.svc.Cancel(ctx, a.ID, "  court flooded ")
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, "Cancelled: court flooded", *resp.Notes)

	_, err = f.svc.Cancel(ctx, a.ID, "again")
	require.ErrorIs(t, err, ErrInvalidState)

	b := f.mustCreate(t, 1, at(5, 10, 0), 60)
	_, err = f.svc.Complete(ctx, 1, b.ID, &models.CompleteRequest{})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, b.ID, "")
	require.ErrorIs(t, err, ErrImmutableState)
}

func TestListAndStats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for day := 1; day <= 5; day++ {
		f.mustCreate(t, 1, at(day*3, 10, 0), 60)
	}
	first, err := f.svc.List(ctx, &models.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5, first.Total)

	_, err = f.svc.Start(ctx, first.Items[0].ID)
	require.NoError(t, err)

	page, err := f.svc.List(ctx, &models.ListRequest{Status: ptr.Ptr("SCHEDULED"), Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 2, page.Pages)
	assert.Len(t, page.Items, 1)

	_, err = f.svc.List(ctx, &models.ListRequest{Status: ptr.Ptr("DONE")})
	require.ErrorIs(t, err, ErrInvalidInput)

	// Через месяц все SCHEDULED просрочены
	f.svc.timeProvider = fixedClock{now: now.AddDate(0, 1, 0)}

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 4, stats.ByStatus["SCHEDULED"])
	assert.Equal(t, 1, stats.ByStatus["IN_PROGRESS"])
	assert.Equal(t, 0, stats.ByStatus["CANCELLED"])
	assert.Equal(t, 5, stats.ByType["CORRECTIVE"])
	assert.Equal(t, 4, stats.Overdue)
}

func TestList_ReadsOneSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.mustCreate(t, 1, at(1, 10, 0), 60)
	f.mustCreate(t, 2, at(1, 10, 0), 60)

	tx := &snapshotTx{}
	f.svc.txManager = tx

	resp, err := f.svc.List(ctx, &models.ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 1, tx.reads)

	f.svc.txManager = passTx{err: txmanager.ErrBeginTx}
	_, err = f.svc.List(ctx, &models.ListRequest{})
	require.ErrorIs(t, err, ErrInternal)
}

func TestSerializationConflict(t *testing.T) {
	f := newFixture()
	f.svc.txManager = passTx{err: txmanager.ErrSerialization}

	_, err := f.svc.Create(context.Background(), 1, createReq(1, at(1, 10, 0), 60))
	require.ErrorIs(t, err, ErrConcurrentUpdate)
}
