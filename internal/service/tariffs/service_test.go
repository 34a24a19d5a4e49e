package tariffs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	tariffRepo "github.com/m04kA/SMC-FacilityService/internal/infra/storage/tariff"
	"github.com/m04kA/SMC-FacilityService/internal/service/tariffs/models"
	"github.com/m04kA/SMC-FacilityService/pkg/logger"
	"github.com/m04kA/SMC-FacilityService/pkg/ptr"
)

type fakeTariffs struct {
	items  map[int64]*domain.AgeBasedTariff
	courts map[int64][]int64
	nextID int64
	// тарифы, на которые ссылаются завершённые заявки
	referenced map[int64]bool
}

func newFakeTariffs() *fakeTariffs {
	return &fakeTariffs{
		items:      make(map[int64]*domain.AgeBasedTariff),
		courts:     make(map[int64][]int64),
		referenced: make(map[int64]bool),
	}
}

func (f *fakeTariffs) Create(_ context.Context, t *domain.AgeBasedTariff) (*domain.AgeBasedTariff, error) {
	f.nextID++
	stored := *t
	stored.ID = f.nextID
	stored.CourtIDs = nil
	f.items[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeTariffs) GetByID(_ context.Context, id int64) (*domain.AgeBasedTariff, error) {
	t, ok := f.items[id]
	if !ok {
		return nil, tariffRepo.ErrTariffNotFound
	}
	out := *t
	out.CourtIDs = f.courts[id]
	return &out, nil
}

func (f *fakeTariffs) GetActiveBySegment(_ context.Context, segment domain.TariffSegment, excludeID *int64) (*domain.AgeBasedTariff, error) {
	for _, t := range f.items {
		if excludeID != nil && t.ID == *excludeID {
			continue
		}
		if t.Segment == segment && t.IsActive {
			out := *t
			return &out, nil
		}
	}
	return nil, tariffRepo.ErrTariffNotFound
}

func (f *fakeTariffs) List(_ context.Context, filter domain.TariffFilter) ([]*domain.AgeBasedTariff, error) {
	out := make([]*domain.AgeBasedTariff, 0)
	for id := int64(1); id <= f.nextID; id++ {
		t, ok := f.items[id]
		if !ok {
			continue
		}
		if filter.ActiveOnly && !t.IsActive {
			continue
		}
		if filter.Segment != nil && t.Segment != *filter.Segment {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (f *fakeTariffs) Update(_ context.Context, t *domain.AgeBasedTariff) error {
	if _, ok := f.items[t.ID]; !ok {
		return tariffRepo.ErrTariffNotFound
	}
	stored := *t
	f.items[t.ID] = &stored
	return nil
}

func (f *fakeTariffs) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return tariffRepo.ErrTariffNotFound
	}
	if f.referenced[id] {
		return tariffRepo.ErrTariffReferenced
	}
	delete(f.items, id)
	delete(f.courts, id)
	return nil
}

func (f *fakeTariffs) ReplaceCourts(_ context.Context, tariffID int64, courtIDs []int64) error {
	f.courts[tariffID] = append([]int64(nil), courtIDs...)
	return nil
}

type fakeCourts struct{}

// Существуют корты 1..10
func (fakeCourts) CountExisting(_ context.Context, ids []int64) (int, error) {
	n := 0
	for _, id := range ids {
		if id >= 1 && id <= 10 {
			n++
		}
	}
	return n, nil
}

type fakeEnrollments struct {
	active map[int64]int
}

func (f *fakeEnrollments) CountActiveByTariff(_ context.Context, tariffID int64) (int, error) {
	return f.active[tariffID], nil
}

type passTx struct{}

func (passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

func (passTx) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc         *Service
	tariffs     *fakeTariffs
	enrollments *fakeEnrollments
}

func newFixture() *fixture {
	f := &fixture{
		tariffs:     newFakeTariffs(),
		enrollments: &fakeEnrollments{active: make(map[int64]int)},
	}
	f.svc = NewService(f.tariffs, fakeCourts{}, f.enrollments, passTx{}, logger.Nop())
	return f
}

func seniorReq() *models.CreateRequest {
	return &models.CreateRequest{
		Segment:  "SENIOR",
		Name:     "Senior 65+",
		MinAge:   65,
		Discount: 30,
	}
}

func TestCreate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := seniorReq()
	req.CourtIDs = []int64{3, 1, 3}

	resp, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "SENIOR", resp.Segment)
	assert.InDelta(t, 0.3, resp.Discount, 1e-9)
	assert.True(t, resp.IsActive)
	assert.Nil(t, resp.MaxAge)
	assert.Equal(t, []int64{3, 1}, resp.CourtIDs)
	assert.Equal(t, []int64{3, 1}, f.tariffs.courts[resp.ID])
}

func TestCreate_DiscountNormalization(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
		err   bool
	}{
		{input: 0, want: 0},
		{input: 0.25, want: 0.25},
		{input: 1, want: 1},
		{input: 15, want: 0.15},
		{input: 100, want: 1},
		{input: 150, err: true},
		{input: -5, err: true},
	}

	for _, tt := range tests {
		f := newFixture()
		req := seniorReq()
		req.Discount = tt.input

		resp, err := f.svc.Create(context.Background(), req)
		if tt.err {
			require.ErrorIs(t, err, ErrInvalidInput, "input %v", tt.input)
			continue
		}
		require.NoError(t, err, "input %v", tt.input)
		assert.InDelta(t, tt.want, resp.Discount, 1e-9, "input %v", tt.input)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := seniorReq()
	req.Segment = "VETERAN"
	_, err := f.svc.Create(ctx, req)
	require.ErrorIs(t, err, ErrInvalidInput)

	req = seniorReq()
	req.MaxAge = ptr.Ptr(60)
	_, err = f.svc.Create(ctx, req)
	require.ErrorIs(t, err, ErrInvalidInput)

	req = seniorReq()
	req.Name = " "
	_, err = f.svc.Create(ctx, req)
	require.ErrorIs(t, err, ErrInvalidInput)

	from := mustDate("2024-06-01")
	req = seniorReq()
	req.ValidFrom = &from
	req.ValidUntil = &from
	_, err = f.svc.Create(ctx, req)
	require.ErrorIs(t, err, ErrInvalidInput)

	req = seniorReq()
	req.CourtIDs = []int64{1, 42}
	_, err = f.svc.Create(ctx, req)
	require.ErrorIs(t, err, ErrCourtNotFound)

	assert.Empty(t, f.tariffs.items)
}

func TestCreate_OneActivePerSegment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, seniorReq())
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, seniorReq())
	require.ErrorIs(t, err, ErrSegmentTaken)

	// Неактивный тариф того же сегмента допустим
	inactive := seniorReq()
	inactive.IsActive = ptr.Ptr(false)
	draft, err := f.svc.Create(ctx, inactive)
	require.NoError(t, err)

	// Активация второго тарифа сегмента запрещена
	_, err = f.svc.Update(ctx, draft.ID, &models.UpdateRequest{IsActive: ptr.Ptr(true)})
	require.ErrorIs(t, err, ErrSegmentTaken)
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := seniorReq()
	req.MaxAge = ptr.Ptr(90)
	req.CourtIDs = []int64{1, 2}
	created, err := f.svc.Create(ctx, req)
	require.NoError(t, err)

	// Обновление самого себя не конфликтует по сегменту
	resp, err := f.svc.Update(ctx, created.ID, &models.UpdateRequest{
		Name:     ptr.Ptr("Seniors"),
		Discount: ptr.Ptr(0.5),
		ClearMax: true,
		CourtIDs: ptr.Ptr([]int64{4}),
	})
	require.NoError(t, err)
	assert.Equal(t, "Seniors", resp.Name)
	assert.InDelta(t, 0.5, resp.Discount, 1e-9)
	assert.Nil(t, resp.MaxAge)
	assert.Equal(t, []int64{4}, f.tariffs.courts[created.ID])

	// Без CourtIDs привязка не меняется
	_, err = f.svc.Update(ctx, created.ID, &models.UpdateRequest{MinAge: ptr.Ptr(60)})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, f.tariffs.courts[created.ID])

	_, err = f.svc.Update(ctx, created.ID, &models.UpdateRequest{MaxAge: ptr.Ptr(10)})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Update(ctx, 999, &models.UpdateRequest{})
	require.ErrorIs(t, err, ErrTariffNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, seniorReq())
	require.NoError(t, err)

	f.enrollments.active[created.ID] = 2
	require.ErrorIs(t, f.svc.Delete(ctx, created.ID), ErrTariffInUse)

	f.enrollments.active[created.ID] = 0
	require.NoError(t, f.svc.Delete(ctx, created.ID))

	require.ErrorIs(t, f.svc.Delete(ctx, created.ID), ErrTariffNotFound)
}

func TestDelete_ReferencedByFinishedEnrollments(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.Create(ctx, seniorReq())
	require.NoError(t, err)

	// действующих заявок нет, но остались отклонённые и отменённые
	f.tariffs.referenced[created.ID] = true

	err = f.svc.Delete(ctx, created.ID)
	require.ErrorIs(t, err, ErrTariffInUse)
	assert.NotErrorIs(t, err, ErrInternal)

	_, err = f.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
}

func TestList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, seniorReq())
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, &models.CreateRequest{
		Segment: "CHILD", Name: "Kids", MinAge: 0, MaxAge: ptr.Ptr(12), Discount: 0.5, IsActive: ptr.Ptr(false),
	})
	require.NoError(t, err)

	all, err := f.svc.List(ctx, &models.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.svc.List(ctx, &models.ListRequest{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "SENIOR", active[0].Segment)

	_, err = f.svc.List(ctx, &models.ListRequest{Segment: ptr.Ptr("ELDER")})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}
