package create_reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	courtRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/court"
	userRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/user"
	"github.com/m04kA/SMC-FacilityService/pkg/logger"
	"github.com/m04kA/SMC-FacilityService/pkg/txmanager"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type fakeReservations struct {
	existing []*domain.Reservation
	created  []*domain.Reservation
	history  []*domain.ReservationStatusChange
}

func (f *fakeReservations) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	res.ID = int64(len(f.created) + 1)
	f.created = append(f.created, res)
	return res, nil
}

func (f *fakeReservations) GetActiveOverlapping(_ context.Context, courtID int64, start, end time.Time) ([]*domain.Reservation, error) {
	out := make([]*domain.Reservation, 0)
	for _, r := range f.existing {
		if r.CourtID == courtID && r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReservations) AddStatusChange(_ context.Context, c *domain.ReservationStatusChange) error {
	f.history = append(f.history, c)
	return nil
}

type fakeMaintenance struct {
	windows []*domain.Maintenance
}

func (f *fakeMaintenance) GetConflictCandidates(_ context.Context, courtID int64, start, searchEnd time.Time, _ *int64) ([]*domain.Maintenance, error) {
	out := make([]*domain.Maintenance, 0)
	for _, m := range f.windows {
		if m.CourtID == courtID && m.IsActive() && !m.ScheduledStart.After(searchEnd) && m.End().After(start) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeCourts struct {
	courts map[int64]*domain.Court
}

func (f *fakeCourts) GetByID(_ context.Context, id int64) (*domain.Court, error) {
	c, ok := f.courts[id]
	if !ok {
		return nil, courtRepo.ErrCourtNotFound
	}
	return c, nil
}

type fakeUsers struct {
	users map[int64]*domain.User
	txs   []*domain.WalletTransaction
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, userRepo.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) AdjustWalletBalance(_ context.Context, userID int64, delta float64) error {
	u := f.users[userID]
	if u.WalletBalance+delta < 0 {
		return userRepo.ErrInsufficientFunds
	}
	u.WalletBalance += delta
	return nil
}

func (f *fakeUsers) AddWalletTransaction(_ context.Context, tx *domain.WalletTransaction) error {
	f.txs = append(f.txs, tx)
	return nil
}

type fakeNotifier struct {
	sent []domain.NotificationTemplate
}

func (f *fakeNotifier) Enqueue(_ context.Context, template domain.NotificationTemplate, _ *int64, _ interface{}) error {
	f.sent = append(f.sent, template)
	return nil
}

type passTx struct{ err error }

func (p passTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.err != nil {
		return p.err
	}
	return fn(ctx)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	uc          *UseCase
	res         *fakeReservations
	maintenance *fakeMaintenance
	users       *fakeUsers
	notifier    *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		res:         &fakeReservations{},
		maintenance: &fakeMaintenance{},
		users: &fakeUsers{users: map[int64]*domain.User{
			100: {ID: 100, Role: domain.RoleUser, WalletBalance: 20},
		}},
		notifier: &fakeNotifier{},
	}
	courts := &fakeCourts{courts: map[int64]*domain.Court{
		10: {ID: 10, IsActive: true},
		11: {ID: 11, IsActive: false},
	}}

	f.uc = NewUseCase(f.res, f.maintenance, courts, f.users, f.notifier, passTx{}, logger.Nop())
	f.uc.timeProvider = fixedClock{now: now}
	return f
}

func request(start time.Time, minutes int) *Request {
	return &Request{
		UserID:     100,
		CourtID:    10,
		StartTime:  start,
		EndTime:    start.Add(time.Duration(minutes) * time.Minute),
		TotalPrice: 40,
	}
}

func TestExecute_Success(t *testing.T) {
	f := newFixture()

	resp, err := f.uc.Execute(context.Background(), request(now.Add(2*time.Hour), 60))
	require.NoError(t, err)

	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, "PENDING", resp.PaymentStatus)
	require.Len(t, f.res.history, 1)
	assert.Nil(t, f.res.history[0].OldStatus)
	assert.Equal(t, []domain.NotificationTemplate{domain.TemplateReservationCreated}, f.notifier.sent)
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.uc.Execute(context.Background(), request(now.Add(time.Hour), 0))
	require.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = f.uc.Execute(context.Background(), request(now.Add(-time.Hour), 30))
	require.ErrorIs(t, err, ErrStartInPast)

	req := request(now.Add(time.Hour), 30)
	req.WalletAmount = 50
	_, err = f.uc.Execute(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidInput)

	req = request(now.Add(time.Hour), 30)
	req.CourtID = 11
	_, err = f.uc.Execute(context.Background(), req)
	require.ErrorIs(t, err, ErrCourtInactive)

	req.CourtID = 99
	_, err = f.uc.Execute(context.Background(), req)
	require.ErrorIs(t, err, ErrCourtNotFound)
}

func TestExecute_Overlap(t *testing.T) {
	f := newFixture()
	f.res.existing = []*domain.Reservation{{
		ID: 7, CourtID: 10, StartTime: now.Add(2 * time.Hour), EndTime: now.Add(3 * time.Hour), Status: domain.ReservationPaid,
	}}

	_, err := f.uc.Execute(context.Background(), request(now.Add(150*time.Minute), 60))
	require.ErrorIs(t, err, ErrSlotNotAvailable)

	// Вплотную после существующего бронирования
	_, err = f.uc.Execute(context.Background(), request(now.Add(3*time.Hour), 60))
	require.NoError(t, err)
}

func TestExecute_Maintenance(t *testing.T) {
	f := newFixture()
	f.maintenance.windows = []*domain.Maintenance{{
		ID: 3, CourtID: 10, ScheduledStart: now.Add(4 * time.Hour), DurationMinutes: 120, Status: domain.MaintenanceScheduled,
	}}

	_, err := f.uc.Execute(context.Background(), request(now.Add(5*time.Hour), 60))
	require.ErrorIs(t, err, ErrCourtUnderMaintenance)
}

func TestExecute_WalletDebit(t *testing.T) {
	f := newFixture()

	req := request(now.Add(time.Hour), 60)
	req.TotalPrice = 20
	req.WalletAmount = 20

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "PAID", resp.Status)
	assert.Equal(t, 0.0, f.users.users[100].WalletBalance)
	require.Len(t, f.users.txs, 1)
	assert.Equal(t, domain.WalletDebit, f.users.txs[0].Kind)

	req = request(now.Add(3*time.Hour), 60)
	req.WalletAmount = 5
	_, err = f.uc.Execute(context.Background(), req)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestExecute_SerializationConflict(t *testing.T) {
	f := newFixture()
	f.uc.txManager = passTx{err: txmanager.ErrSerialization}

	_, err := f.uc.Execute(context.Background(), request(now.Add(time.Hour), 60))
	require.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestExecute_TransactionFailureIsInternal(t *testing.T) {
	for _, txErr := range []error{txmanager.ErrBeginTx, txmanager.ErrCommitTx} {
		f := newFixture()
		f.uc.txManager = passTx{err: txErr}

		_, err := f.uc.Execute(context.Background(), request(now.Add(time.Hour), 60))
		require.ErrorIs(t, err, ErrInternal)
		assert.NotErrorIs(t, err, ErrConcurrentUpdate)
	}
}
