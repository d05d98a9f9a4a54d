package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/your-org/wanted/internal/cache"
	"github.com/your-org/wanted/internal/domain"
)

// MockWantedSource is a mock implementation of WantedSource
type MockWantedSource struct {
	mock.Mock
}

// Ensure MockWantedSource implements domain.WantedSource
var _ domain.WantedSource = (*MockWantedSource)(nil)

func (m *MockWantedSource) List(ctx context.Context, params domain.ListParams) (domain.Payload, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Payload), args.Error(1)
}

func (m *MockWantedSource) Person(ctx context.Context, id string) (domain.Payload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Payload), args.Error(1)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

// Ensure MockCache implements domain.Cache
var _ domain.Cache = (*MockCache)(nil)

func (m *MockCache) Get(key string, category domain.Category) (domain.Result, bool) {
	args := m.Called(key, category)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(domain.Result), args.Bool(1)
}

func (m *MockCache) Set(key string, value domain.Payload, category domain.Category, ttl time.Duration) domain.Result {
	args := m.Called(key, value, category, ttl)
	return args.Get(0).(domain.Result)
}

func (m *MockCache) Delete(key string, category domain.Category) bool {
	args := m.Called(key, category)
	return args.Bool(0)
}

func mockListResponse() domain.Payload {
	return domain.Payload{
		"total": float64(100),
		"page":  float64(1),
		"items": []interface{}{
			map[string]interface{}{
				"uid":      "12345",
				"title":    "John Doe",
				"hair_raw": "Brown",
				"race_raw": "White",
			},
		},
	}
}

func newTestUsecase(t *testing.T, source domain.WantedSource) (*WantedUsecase, *cache.Cache) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	c := cache.New(cache.Options{}, logger)
	return NewWantedUsecase(source, c, logger, 4), c
}

// TestWantedUsecaseListWithCache tests ListWanted on the miss and then the hit path
func TestWantedUsecaseListWithCache(t *testing.T) {
	source := new(MockWantedSource)
	usecase, c := newTestUsecase(t, source)
	ctx := context.Background()

	source.On("List", mock.Anything, domain.ListParams{Page: 1, PageSize: 20}).Return(mockListResponse(), nil).Once()

	first, err := usecase.ListWanted(ctx, 1, 20)
	require.NoError(t, err)
	assert.False(t, first.Cached())
	assert.Equal(t, float64(100), first["total"])

	second, err := usecase.ListWanted(ctx, 1, 20)
	require.NoError(t, err)
	assert.True(t, second.Cached())
	assert.Equal(t, domain.CategoryList, second.CacheType())
	_, hasAge := second.CacheAge()
	assert.True(t, hasAge)

	source.AssertExpectations(t)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, []string{"wanted_list_1_20"}, c.Keys(domain.CategoryList))
}

func TestWantedUsecaseListPaginationKeys(t *testing.T) {
	source := new(MockWantedSource)
	usecase, c := newTestUsecase(t, source)
	ctx := context.Background()

	source.On("List", mock.Anything, domain.ListParams{Page: 2, PageSize: 10}).Return(mockListResponse(), nil).Once()
	source.On("List", mock.Anything, domain.ListParams{Page: 1, PageSize: 20}).Return(mockListResponse(), nil).Once()

	_, err := usecase.ListWanted(ctx, 2, 10)
	require.NoError(t, err)
	_, err = usecase.ListWanted(ctx, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, []string{"wanted_list_1_20", "wanted_list_2_10"}, c.Keys(domain.CategoryList))
	source.AssertExpectations(t)
}

func TestWantedUsecaseSearch(t *testing.T) {
	source := new(MockWantedSource)
	usecase, c := newTestUsecase(t, source)
	ctx := context.Background()

	source.On("List", mock.Anything, domain.ListParams{Page: 1, PageSize: 20, Title: "John"}).Return(mockListResponse(), nil).Once()

	result, err := usecase.SearchWanted(ctx, "John", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, "John", result["searchQuery"])
	assert.False(t, result.Cached())

	result, err = usecase.SearchWanted(ctx, "John", 1, 20)
	require.NoError(t, err)
	assert.True(t, result.Cached())
	assert.Equal(t, domain.CategorySearch, result.CacheType())
	assert.Equal(t, "John", result["searchQuery"])

	assert.Equal(t, []string{"wanted_search_John_1_20"}, c.Keys(domain.CategorySearch))
	source.AssertExpectations(t)
}

func TestWantedUsecaseSearchRequiresQuery(t *testing.T) {
	source := new(MockWantedSource)
	usecase, _ := newTestUsecase(t, source)

	for _, q := range []string{"", "   "} {
		_, err := usecase.SearchWanted(context.Background(), q, 1, 20)
		assert.ErrorIs(t, err, domain.ErrEmptyQuery)
	}
	source.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestWantedUsecaseGetPerson(t *testing.T) {
	source := new(MockWantedSource)
	usecase, _ := newTestUsecase(t, source)
	ctx := context.Background()

	source.On("Person", mock.Anything, "abc").Return(domain.Payload{"uid": "abc", "title": "Jane Roe"}, nil).Once()

	result, err := usecase.GetPerson(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "Jane Roe", result["title"])

	result, err = usecase.GetPerson(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, result.Cached())
	assert.Equal(t, domain.CategoryDetail, result.CacheType())
	source.AssertExpectations(t)
}

func TestWantedUsecaseGetPersonNotFoundIsNotCached(t *testing.T) {
	source := new(MockWantedSource)
	usecase, c := newTestUsecase(t, source)
	ctx := context.Background()

	source.On("Person", mock.Anything, "missing").Return(nil, domain.ErrNotFound).Twice()

	_, err := usecase.GetPerson(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = usecase.GetPerson(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Zero(t, c.Stats().Sets)
	source.AssertExpectations(t)
}

func TestWantedUsecaseFilterOptions(t *testing.T) {
	source := new(MockWantedSource)
	usecase, _ := newTestUsecase(t, source)
	ctx := context.Background()

	sample := domain.Payload{
		"items": []interface{}{
			map[string]interface{}{"hair_raw": "Brown", "race_raw": "White"},
			map[string]interface{}{"hair_raw": "Black", "race_raw": "Hispanic"},
			map[string]interface{}{"hair_raw": "Brown", "race_raw": ""},
			map[string]interface{}{"title": "no attributes"},
			"not an object",
		},
	}
	source.On("List", mock.Anything, domain.ListParams{PageSize: 100}).Return(sample, nil).Once()

	result, err := usecase.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Black", "Brown"}, result["hairColors"])
	assert.Equal(t, []string{"Hispanic", "White"}, result["races"])

	result, err = usecase.FilterOptions(ctx)
	require.NoError(t, err)
	assert.True(t, result.Cached())
	assert.Equal(t, domain.CategoryFilter, result.CacheType())
	source.AssertExpectations(t)
}

func TestExtractFilterOptionsEmptySample(t *testing.T) {
	options := ExtractFilterOptions(domain.Payload{})
	assert.Empty(t, options.HairColors)
	assert.Empty(t, options.Races)
	assert.NotNil(t, options.HairColors)
}

// TestWantedUsecaseWithMockCache checks the cache-aside contract against the interface
func TestWantedUsecaseWithMockCache(t *testing.T) {
	source := new(MockWantedSource)
	mockCache := new(MockCache)
	usecase := NewWantedUsecase(source, mockCache, zaptest.NewLogger(t), 2)
	ctx := context.Background()

	hit := domain.Result{"cached": true, "total": 1}
	mockCache.On("Get", "wanted_person_hit", domain.CategoryDetail).Return(hit, true).Once()

	result, err := usecase.GetPerson(ctx, "hit")
	require.NoError(t, err)
	assert.Equal(t, hit, result)
	source.AssertNotCalled(t, "Person", mock.Anything, mock.Anything)

	data := domain.Payload{"uid": "miss"}
	stored := domain.Result{"uid": "miss", "cached": false}
	mockCache.On("Get", "wanted_person_miss", domain.CategoryDetail).Return(nil, false).Once()
	source.On("Person", mock.Anything, "miss").Return(data, nil).Once()
	mockCache.On("Set", "wanted_person_miss", data, domain.CategoryDetail, time.Duration(0)).Return(stored).Once()

	result, err = usecase.GetPerson(ctx, "miss")
	require.NoError(t, err)
	assert.Equal(t, stored, result)

	mockCache.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestWantedUsecaseUpstreamErrorPropagates(t *testing.T) {
	source := new(MockWantedSource)
	usecase, _ := newTestUsecase(t, source)

	expectedError := errors.New("boom")
	source.On("List", mock.Anything, mock.Anything).Return(nil, expectedError).Once()

	result, err := usecase.ListWanted(context.Background(), 1, 20)
	assert.Nil(t, result)
	assert.Equal(t, expectedError, err)
}

// TestWantedUsecaseConcurrentMissesAreNotCoalesced documents that identical misses each reach upstream
func TestWantedUsecaseConcurrentMissesAreNotCoalesced(t *testing.T) {
	source := new(MockWantedSource)
	usecase, _ := newTestUsecase(t, source)

	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	source.On("List", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		mu.Lock()
		calls++
		mu.Unlock()
		<-release
	}).Return(mockListResponse(), nil)

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, _ = usecase.ListWanted(context.Background(), 1, 20)
		}()
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
}

func TestRateLimiterAcquireHonoursContext(t *testing.T) {
	rl := NewRateLimiter(1)
	require.NoError(t, rl.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, rl.Acquire(ctx), context.DeadlineExceeded)

	rl.Release()
	rl.Release() // releasing an empty semaphore must not block
	require.NoError(t, rl.Acquire(context.Background()))
}

func TestWantedUsecaseSlotWaitTimeout(t *testing.T) {
	source := new(MockWantedSource)
	logger := zaptest.NewLogger(t)
	usecase := NewWantedUsecase(source, cache.New(cache.Options{}, logger), logger, 1)

	require.NoError(t, usecase.rateLimiter.Acquire(context.Background()))
	defer usecase.rateLimiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := usecase.ListWanted(ctx, 1, 20)
	assert.ErrorIs(t, err, domain.ErrUpstreamTimeout)
}
