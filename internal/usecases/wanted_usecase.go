package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/cache"
	"github.com/your-org/wanted/internal/domain"
)

// Размер выборки, из которой собираются варианты фильтров.
const filterSampleSize = 100

// WantedUsecase отвечает за бизнес-логику каталога разыскиваемых.
// Он связывает внешний API (FBI) и кэш.
// Главные задачи:
// 1. Кэширование ответов API (Cache-Aside) по категориям list/detail/filter/search.
// 2. Ограничение числа одновременных запросов к API, у которого жесткий rate limit.
//
// Одинаковые промахи кэша не объединяются: каждый запрос сам идет в API.
type WantedUsecase struct {
	source domain.WantedSource
	cache  domain.Cache
	logger *zap.Logger

	// Семафор для ограничения одновременных походов в API
	rateLimiter *RateLimiter
}

// RateLimiter - простой ограничитель нагрузки на семафоре.
// Не дает запустить больше N операций одновременно, защищая внешний API от всплесков.
type RateLimiter struct {
	semaphore     chan struct{}
	maxConcurrent int
}

// NewRateLimiter создает ограничитель с буфером на maxConcurrent запросов.
func NewRateLimiter(maxConcurrent int) *RateLimiter {
	if maxConcurrent < 1 {
		maxConcurrent = 10
	}
	return &RateLimiter{
		semaphore:     make(chan struct{}, maxConcurrent),
		maxConcurrent: maxConcurrent,
	}
}

// Acquire пытается получить разрешение на работу.
// Если лимит исчерпан - блокируется и ждет, пока кто-то не освободит место.
// Если контекст отменен (например, таймаут запроса) - возвращает ошибку.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case rl.semaphore <- struct{}{}:
		return nil
	}
}

// Release освобождает место для следующих запросов.
func (rl *RateLimiter) Release() {
	select {
	case <-rl.semaphore:
	default:
	}
}

// NewWantedUsecase создает usecase.
func NewWantedUsecase(
	source domain.WantedSource,
	cache domain.Cache,
	logger *zap.Logger,
	maxConcurrentOps int,
) *WantedUsecase {
	if maxConcurrentOps < 1 {
		maxConcurrentOps = 10
	}

	return &WantedUsecase{
		source:      source,
		cache:       cache,
		logger:      logger,
		rateLimiter: NewRateLimiter(maxConcurrentOps),
	}
}

// ListWanted возвращает страницу списка разыскиваемых.
func (u *WantedUsecase) ListWanted(ctx context.Context, page, pageSize int) (domain.Result, error) {
	key := cache.ListKey(page, pageSize)

	return u.fetch(ctx, key, domain.CategoryList, func(ctx context.Context) (domain.Payload, error) {
		return u.source.List(ctx, domain.ListParams{Page: page, PageSize: pageSize})
	})
}

// SearchWanted ищет по заголовку (имени).
// Пустой запрос - ошибка клиента, в API не ходим.
func (u *WantedUsecase) SearchWanted(ctx context.Context, query string, page, pageSize int) (domain.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	key := cache.SearchKey(query, page, pageSize)

	return u.fetch(ctx, key, domain.CategorySearch, func(ctx context.Context) (domain.Payload, error) {
		data, err := u.source.List(ctx, domain.ListParams{
			Page:     page,
			PageSize: pageSize,
			Title:    query,
		})
		if err != nil {
			return nil, err
		}
		if data == nil {
			data = domain.Payload{}
		}
		// Клиенту нужно знать, по какому запросу получен результат
		data["searchQuery"] = query
		return data, nil
	})
}

// GetPerson возвращает карточку одного человека.
func (u *WantedUsecase) GetPerson(ctx context.Context, id string) (domain.Result, error) {
	key := cache.PersonKey(id)

	return u.fetch(ctx, key, domain.CategoryDetail, func(ctx context.Context) (domain.Payload, error) {
		return u.source.Person(ctx, id)
	})
}

// FilterOptions собирает варианты для фильтров (цвет волос, раса)
// по выборке из первых filterSampleSize записей.
func (u *WantedUsecase) FilterOptions(ctx context.Context) (domain.Result, error) {
	return u.fetch(ctx, cache.FilterOptionsKey, domain.CategoryFilter, func(ctx context.Context) (domain.Payload, error) {
		sample, err := u.source.List(ctx, domain.ListParams{PageSize: filterSampleSize})
		if err != nil {
			return nil, err
		}
		return ExtractFilterOptions(sample).Payload(), nil
	})
}

// ExtractFilterOptions собирает уникальные отсортированные значения hair_raw и race_raw.
func ExtractFilterOptions(sample domain.Payload) domain.FilterOptions {
	hairColors := make(map[string]struct{})
	races := make(map[string]struct{})

	items, _ := sample["items"].([]interface{})
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if hair, ok := item["hair_raw"].(string); ok && hair != "" {
			hairColors[hair] = struct{}{}
		}
		if race, ok := item["race_raw"].(string); ok && race != "" {
			races[race] = struct{}{}
		}
	}

	return domain.FilterOptions{
		HairColors: sortedKeys(hairColors),
		Races:      sortedKeys(races),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// fetch реализует паттерн Cache-Aside:
// 1. Ищем в кэше. Нашли -> вернули (с пометкой cached=true).
// 2. Не нашли -> идем в API под семафором.
// 3. Кладем ответ в кэш и отдаем то, что вернул Set (cached=false).
func (u *WantedUsecase) fetch(
	ctx context.Context,
	key string,
	category domain.Category,
	load func(ctx context.Context) (domain.Payload, error),
) (domain.Result, error) {
	// 1. Проверка кэша (быстрый путь)
	if cached, ok := u.cache.Get(key, category); ok {
		u.logger.Debug("попадание в кэш",
			zap.String("key", key),
			zap.String("category", string(category)),
		)
		return cached, nil
	}

	// Ограничение нагрузки перед походом в API
	if err := u.rateLimiter.Acquire(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("ожидание слота: %w", domain.ErrUpstreamTimeout)
		}
		return nil, fmt.Errorf("превышен лимит запросов: %w", err)
	}
	defer u.rateLimiter.Release()

	// 2. Запрос в API (медленный путь)
	data, err := load(ctx)
	if err != nil {
		u.logger.Error("не удалось получить данные из API",
			zap.String("key", key),
			zap.String("category", string(category)),
			zap.Error(err),
		)
		return nil, err
	}

	// 3. Сохранение в кэш. Синхронно: ответ клиенту и есть результат Set.
	return u.cache.Set(key, data, category, 0), nil
}
