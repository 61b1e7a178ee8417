package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/workforce-console/internal/domain"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func testRange() domain.DateRange {
	return domain.DateRange{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func allFeatures() domain.Features {
	return domain.Features{Analytics: true, Copilot: true, Audit: true, Export: true}
}

func newTestAggregator(src Source, cache SnapshotCache) *Aggregator {
	return NewAggregator(src, cache, time.Second, nil, zap.NewNop())
}

func TestCompose_AllReady(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	agg := newTestAggregator(&fakeSource{}, nil)
	snap, err := agg.Compose(context.Background(), Request{
		TenantID: "t1", Features: allFeatures(), Range: testRange(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SlotReady, snap.Usage.Status)
	assert.Equal(t, domain.SlotReady, snap.Seats.Status)
	assert.Equal(t, domain.SlotReady, snap.Adoption.Status)
	assert.Equal(t, domain.SlotReady, snap.Copilot.Status)
	assert.Equal(t, domain.SlotReady, snap.Audit.Status)
	assert.Equal(t, domain.GrainDay, snap.Grain)
	assert.Len(t, snap.Usage.Data, 2)
	assert.InDelta(t, 0.5, snap.Copilot.Data[0].AcceptanceRate, 1e-9)
	assert.True(t, snap.Complete())
	assert.NotZero(t, snap.Generation)
}

func TestCompose_AnalyticsDisabled(t *testing.T) {
	src := &fakeSource{}
	agg := newTestAggregator(src, nil)

	_, err := agg.Compose(context.Background(), Request{TenantID: "t1", Range: testRange()})
	require.ErrorIs(t, err, ErrAnalyticsDisabled)
	assert.ErrorIs(t, err, domain.ErrFeatureDisabled)
	assert.Zero(t, src.usageCalls.Load())
}

func TestCompose_DisabledFeaturesGetDisabledSlots(t *testing.T) {
	called := false
	src := &fakeSource{copilot: func(context.Context) ([]domain.CopilotPoint, error) {
		called = true
		return nil, nil
	}}
	agg := newTestAggregator(src, nil)

	snap, err := agg.Compose(context.Background(), Request{
		TenantID: "t1", Features: domain.Features{Analytics: true}, Range: testRange(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SlotDisabled, snap.Copilot.Status)
	assert.Equal(t, domain.SlotDisabled, snap.Audit.Status)
	assert.False(t, called)
	assert.True(t, snap.Complete())
}

func TestCompose_StrictFailsWithSourceMessage(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cache := newMapCache()
	src := &fakeSource{usage: func(context.Context) ([]domain.UsagePoint, error) {
		return nil, errors.New("x")
	}}
	agg := newTestAggregator(src, cache)

	snap, err := agg.Compose(context.Background(), Request{
		TenantID: "t1", Features: allFeatures(), Range: testRange(), Strict: true,
	})
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.Equal(t, "x", err.Error())

	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, SourceUsage, se.Source)
	assert.Zero(t, cache.sets)
}

func TestCompose_LenientKeepsOtherSlots(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cache := newMapCache()
	src := &fakeSource{usage: func(context.Context) ([]domain.UsagePoint, error) {
		return nil, errors.New("x")
	}}
	agg := newTestAggregator(src, cache)

	snap, err := agg.Compose(context.Background(), Request{
		TenantID: "t1", Features: allFeatures(), Range: testRange(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SlotError, snap.Usage.Status)
	assert.Equal(t, "x", snap.Usage.Error)
	assert.Nil(t, snap.Usage.Data)
	assert.Equal(t, domain.SlotReady, snap.Seats.Status)
	assert.Equal(t, domain.SlotReady, snap.Adoption.Status)
	assert.Equal(t, domain.SlotReady, snap.Copilot.Status)
	assert.Equal(t, domain.SlotReady, snap.Audit.Status)

	// Частичный снапшот не кэшируется
	assert.False(t, snap.Complete())
	assert.Zero(t, cache.sets)
}

func TestCompose_SourceTimeout(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := &fakeSource{seats: func(ctx context.Context) ([]domain.SeatsByRole, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	agg := NewAggregator(src, nil, 20*time.Millisecond, nil, zap.NewNop())

	snap, err := agg.Compose(context.Background(), Request{
		TenantID: "t1", Features: allFeatures(), Range: testRange(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SlotError, snap.Seats.Status)
	assert.Equal(t, context.DeadlineExceeded.Error(), snap.Seats.Error)
	assert.Equal(t, domain.SlotReady, snap.Usage.Status)
}

func TestCompose_CacheHit(t *testing.T) {
	cache := newMapCache()
	src := &fakeSource{}
	agg := newTestAggregator(src, cache)
	req := Request{TenantID: "t1", Features: allFeatures(), Range: testRange()}

	first, err := agg.Compose(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, cache.sets)

	second, err := agg.Compose(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Greater(t, second.Generation, first.Generation)
	assert.Equal(t, int32(1), src.usageCalls.Load())

	// Другой набор фич - другой ключ
	req.Features.Copilot = false
	_, err = agg.Compose(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.usageCalls.Load())
}

func TestCompose_InvalidRange(t *testing.T) {
	agg := newTestAggregator(&fakeSource{}, nil)
	r := testRange()
	r.From, r.To = r.To, r.From

	_, err := agg.Compose(context.Background(), Request{TenantID: "t1", Features: allFeatures(), Range: r})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCompose_SupersededRequestIsDropped(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	entered := make(chan struct{})
	release := make(chan struct{})
	src := &fakeSource{}
	src.usage = func(ctx context.Context) ([]domain.UsagePoint, error) {
		if src.usageCalls.Load() == 1 {
			close(entered)
			// Источник игнорирует отмену и все равно досчитывает
			<-release
		}
		return []domain.UsagePoint{{Date: "2024-01-01", ActiveUsers: 1}}, nil
	}
	agg := newTestAggregator(src, nil)
	req := Request{TenantID: "t1", Features: allFeatures(), Range: testRange(), ViewKey: "t1:u1"}

	var (
		wg       sync.WaitGroup
		staleErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, staleErr = agg.Compose(context.Background(), req)
	}()

	<-entered
	fresh, err := agg.Compose(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, fresh)

	close(release)
	wg.Wait()

	assert.ErrorIs(t, staleErr, ErrSuperseded)
	assert.Equal(t, 0, agg.gens.Inflight())
}

func TestCompose_SupersessionCancelsPreviousRequest(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	entered := make(chan struct{})
	canceled := make(chan struct{})
	src := &fakeSource{}
	src.usage = func(ctx context.Context) ([]domain.UsagePoint, error) {
		if src.usageCalls.Load() == 1 {
			close(entered)
			<-ctx.Done()
			close(canceled)
			return nil, ctx.Err()
		}
		return nil, nil
	}
	agg := newTestAggregator(src, nil)
	req := Request{TenantID: "t1", Features: allFeatures(), Range: testRange(), Strict: true}

	errs := make(chan error, 1)
	go func() {
		_, err := agg.Compose(context.Background(), req)
		errs <- err
	}()

	<-entered
	_, err := agg.Compose(context.Background(), req)
	require.NoError(t, err)

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatal("previous request was not canceled")
	}
	assert.ErrorIs(t, <-errs, ErrSuperseded)
}

func TestCompose_DifferentViewsDoNotInterfere(t *testing.T) {
	agg := newTestAggregator(&fakeSource{}, nil)

	a, err := agg.Compose(context.Background(), Request{TenantID: "t1", Features: allFeatures(), Range: testRange(), ViewKey: "a"})
	require.NoError(t, err)
	b, err := agg.Compose(context.Background(), Request{TenantID: "t1", Features: allFeatures(), Range: testRange(), ViewKey: "b"})
	require.NoError(t, err)
	assert.NotEqual(t, a.Generation, b.Generation)
}

func TestFetch(t *testing.T) {
	agg := newTestAggregator(&fakeSource{}, nil)
	req := Request{TenantID: "t1", Features: domain.Features{Analytics: true}, Range: testRange(), Grain: domain.GrainWeek}

	out, err := agg.Fetch(context.Background(), req, SourceUsage)
	require.NoError(t, err)
	pts, ok := out.([]domain.UsagePoint)
	require.True(t, ok)
	require.Len(t, pts, 1)
	assert.Equal(t, int64(12), pts[0].ActiveUsers)
	assert.Equal(t, int64(45), pts[0].Sessions)

	_, err = agg.Fetch(context.Background(), req, SourceCopilot)
	assert.ErrorIs(t, err, domain.ErrFeatureDisabled)

	_, err = agg.Fetch(context.Background(), req, "payroll")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	failing := newTestAggregator(&fakeSource{seats: func(context.Context) ([]domain.SeatsByRole, error) {
		return nil, errors.New("seats down")
	}}, nil)
	_, err = failing.Fetch(context.Background(), req, SourceSeats)
	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, SourceSeats, se.Source)
	assert.Equal(t, "seats down", err.Error())
}
