package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"order-dispatch/internal/entities"
	"order-dispatch/internal/projection"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
)

type fakeFetcher struct {
	mu     sync.Mutex
	orders []entities.Order
	err    error
	calls  int
}

func (f *fakeFetcher) FetchOrders(_ context.Context, _ constants.Role, _ sq.Sqlizer) ([]entities.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entities.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func (f *fakeFetcher) set(orders []entities.Order, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
	f.err = err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var updated = time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)

func pizza() entities.LineItem {
	return entities.LineItem{ID: "li-a", Quantity: 1, Product: entities.Product{ID: "p-a", Commerce: constants.CommerceA}}
}

func order(id, status string) entities.Order {
	return entities.Order{
		ID:        id,
		Type:      constants.OrderTypeDineIn,
		Status:    status,
		Items:     []entities.LineItem{pizza()},
		UpdatedAt: updated,
	}
}

func newCache(t *testing.T, role constants.Role, f Fetcher, c *clock) *FetchCache {
	t.Helper()
	cfg, err := projection.ConfigFor(role, "")
	require.NoError(t, err)
	return New(f, cfg, zap.NewNop()).WithClock(c.Now)
}

func TestFingerprint_IgnoresRowOrder(t *testing.T) {
	a, b := order("1", constants.StatusNew), order("2", constants.StatusReady)
	assert.Equal(t, Fingerprint([]entities.Order{a, b}), Fingerprint([]entities.Order{b, a}))
}

func TestFingerprint_ChangesWithStatusFields(t *testing.T) {
	base := order("1", constants.StatusNew)
	fp := Fingerprint([]entities.Order{base})

	moved := base
	moved.StatusA = null.StringFrom(constants.SubStatusInProgress)
	assert.NotEqual(t, fp, Fingerprint([]entities.Order{moved}))

	touched := base
	touched.UpdatedAt = base.UpdatedAt.Add(time.Second)
	assert.NotEqual(t, fp, Fingerprint([]entities.Order{touched}))

	global := base
	global.Status = constants.StatusInProgress
	assert.NotEqual(t, fp, Fingerprint([]entities.Order{global}))
}

func TestGetOrRefresh_FirstCallFetchesAndProjects(t *testing.T) {
	f := &fakeFetcher{orders: []entities.Order{order("1", constants.StatusNew)}}
	c := &clock{t: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}
	fc := newCache(t, constants.RoleCashier, f, c)

	assert.False(t, fc.IsValid(c.Now()))
	_, ok := fc.Age(c.Now())
	assert.False(t, ok)

	got, outcome, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefreshed, outcome)
	assert.Len(t, got.View.Visible, 1)
	assert.Equal(t, 1, got.View.NewCount)
	assert.Equal(t, uint64(1), got.Seq)
	assert.Equal(t, 1, f.Calls())
	assert.Equal(t, 1, fc.Projections())

	entry, ok := fc.Entry()
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, entry.TTL)
	assert.Equal(t, c.Now(), entry.FetchedAt)
}

func TestGetOrRefresh_FreshEntrySkipsFetch(t *testing.T) {
	f := &fakeFetcher{orders: []entities.Order{order("1", constants.StatusNew)}}
	c := &clock{t: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}
	fc := newCache(t, constants.RoleCashier, f, c)

	first, _, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	c.Advance(10 * time.Second)
	cached, outcome, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCached, outcome)
	assert.Equal(t, first.Seq, cached.Seq)
	assert.Equal(t, 1, f.Calls())
	assert.True(t, fc.IsValid(c.Now()))

	age, ok := fc.Age(c.Now())
	require.True(t, ok)
	assert.Equal(t, 10*time.Second, age)
}

func TestGetOrRefresh_ForceBypassesTTL(t *testing.T) {
	f := &fakeFetcher{orders: []entities.Order{order("1", constants.StatusNew)}}
	c := &clock{t: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}
	fc := newCache(t, constants.RoleCashier, f, c)

	_, _, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	c.Advance(time.Second)
	_, _, err = fc.GetOrRefresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Calls())
}

func TestGetOrRefresh_UnchangedFingerprintKeepsProjection(t *testing.T) {
	f := &fakeFetcher{orders: []entities.Order{order("1", constants.StatusNew), order("2", constants.StatusReady)}}
	c := &clock{t: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}
	fc := newCache(t, constants.RoleCashier, f, c)

	first, _, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	// тот же набор в другом порядке
	f.set([]entities.Order{order("2", constants.StatusReady), order("1", constants.StatusNew)}, nil)
	c.Advance(31 * time.Second)

	second, outcome, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, 2, f.Calls())
	assert.Equal(t, 1, fc.Projections())
	assert.Equal(t, first.View, second.View)
	assert.Greater(t, second.Seq, first.Seq)

	entry, _ := fc.Entry()
	assert.Equal(t, c.Now(), entry.FetchedAt, "timestamp refreshed on fingerprint hit")

	_, outcome, err = fc.GetOrRefresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.Equal(t, 1, fc.Projections())
}

func TestGetOrRefresh_ChangedDataReprojects(t *testing.T) {
	f := &fakeFetcher{orders: []entities.Order{order("1", constants.StatusNew)}}
	c := &clock{t: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}
	fc := newCache(t, constants.RoleCashier, f, c)

	_, _, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	changed := order("1", constants.StatusInProgress)
	changed.UpdatedAt = updated.Add(time.Minute)
	f.set([]entities.Order{changed}, nil)

	got, outcome, err := fc.GetOrRefresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRefreshed, outcome)
	assert.Equal(t, 2, fc.Projections())
	assert.Equal(t, 0, got.View.NewCount)
}

func TestGetOrRefresh_ClosedHoursTTL(t *testing.T) {
	f := &fakeFetcher{}
	// 05:00: заведение закрыто, TTL 120s
	c := &clock{t: time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC)}
	fc := newCache(t, constants.RoleCashier, f, c)

	_, _, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	c.Advance(100 * time.Second)
	_, outcome, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCached, outcome)
	assert.Equal(t, 1, f.Calls())

	c.Advance(21 * time.Second)
	_, _, err = fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Calls())
}

func TestGetOrRefresh_FailureKeepsPreviousEntry(t *testing.T) {
	f := &fakeFetcher{orders: []entities.Order{order("1", constants.StatusNew)}}
	c := &clock{t: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}
	fc := newCache(t, constants.RoleCashier, f, c)

	_, _, err := fc.GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	before, _ := fc.Entry()

	boom := errors.New("connection refused")
	f.set(nil, boom)
	c.Advance(time.Minute)

	_, _, err = fc.GetOrRefresh(context.Background(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrFetchFailed)
	assert.ErrorIs(t, err, boom)

	after, ok := fc.Entry()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

func TestGetOrRefresh_KitchenProjection(t *testing.T) {
	mixed := order("1", constants.StatusNew)
	mixed.Items = append(mixed.Items, entities.LineItem{ID: "li-b", Product: entities.Product{ID: "p-b", Commerce: constants.CommerceB}})
	mixed.StatusA = null.StringFrom(constants.SubStatusDone)

	f := &fakeFetcher{orders: []entities.Order{mixed}}
	c := &clock{t: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}

	entryA, _, err := newCache(t, constants.RoleKitchenA, f, c).GetOrRefresh(context.Background(), false)
	require.NoError(t, err)
	entryB, _, err := newCache(t, constants.RoleKitchenB, f, c).GetOrRefresh(context.Background(), false)
	require.NoError(t, err)

	assert.Empty(t, entryA.View.Visible)
	require.Len(t, entryB.View.Visible, 1)
	assert.Equal(t, 1, entryB.View.NewCount)
}

func TestGetOrRefresh_ConcurrentCallersShareOneFetch(t *testing.T) {
	f := &fakeFetcher{orders: []entities.Order{order("1", constants.StatusNew)}}
	c := &clock{t: time.Date(2024, 3, 15, 15, 0, 0, 0, time.UTC)}
	fc := newCache(t, constants.RoleCashier, f, c)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := fc.GetOrRefresh(context.Background(), false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.Calls())
}
