package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/wanted/internal/auth"
	"github.com/your-org/wanted/internal/cache"
	"github.com/your-org/wanted/internal/config"
	"github.com/your-org/wanted/internal/metrics"
	"github.com/your-org/wanted/internal/upstream"
	"github.com/your-org/wanted/internal/usecases"
	"github.com/your-org/wanted/pkg/logger"
)

const (
	// Пространство имен для метрик Prometheus.
	metricsNamespace = "wanted"

	// Как часто пишем сводку по кэшу в лог.
	statsLogInterval = 30 * time.Second

	// Сколько ждем прогрев кэша при старте.
	startupWarmupTimeout = 15 * time.Second
)

// App держит вместе все зависимости сервиса и управляет их жизненным циклом.
type App struct {
	config   *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	upstream *upstream.Client
	cache    *cache.Cache
	auth     *auth.Service
	usecase  *usecases.WantedUsecase
	server   *http.Server

	// Защита от повторного вызова Initialize().
	initOnce sync.Once
	initErr  error

	// Фоновые задачи останавливаются через cancel.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shutdownOnce sync.Once
}

// NewApp создает заготовку приложения. Настройка в Initialize().
func NewApp() *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize настраивает все компоненты. Повторные вызовы возвращают первый результат.
func (a *App) Initialize() error {
	a.initOnce.Do(func() {
		a.initErr = a.doInitialize()
	})
	return a.initErr
}

// doInitialize собирает приложение снизу вверх:
// конфиг -> логгер -> метрики -> клиент FBI -> кэш -> auth -> usecase -> HTTP.
func (a *App) doInitialize() error {
	// 1. Конфиг. Путь из APP_CONFIG_PATH, иначе config.yaml рядом с бинарником.
	configPath := os.Getenv("APP_CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Файла может не быть - тогда работаем на defaults + ENV.
	configErr := config.Load(configPath)
	if configErr != nil {
		if err := config.Load(""); err != nil {
			return fmt.Errorf("критическая ошибка конфигурации: %w", err)
		}
	}
	a.config = config.Get()

	// 2. Логгер. Уровень берем из конфига.
	if err := logger.Init(a.config.Log.Level, a.config.Log.Development, zap.String("service", "wanted")); err != nil {
		return fmt.Errorf("не удалось инициализировать логгер: %w", err)
	}
	a.logger = logger.Get()

	if configErr != nil {
		a.logger.Warn("не удалось загрузить конфиг-файл, используем значения по умолчанию и ENV",
			zap.String("path", configPath),
			zap.Error(configErr),
		)
	}
	a.logger.Info("конфигурация загружена",
		zap.String("addr", a.config.Server.Addr()),
		zap.String("upstream", a.config.Upstream.BaseURL),
		zap.Int("cache_shards", a.config.Cache.Shards),
	)

	// 3. Метрики.
	a.metrics = metrics.New(metricsNamespace)

	// 4. Клиент FBI API.
	a.upstream = upstream.NewClient(upstream.Config{
		BaseURL:   a.config.Upstream.BaseURL,
		UserAgent: a.config.Upstream.UserAgent,
		Timeout:   a.config.Upstream.Timeout,
	}, a.metrics, a.logger)

	// 5. Кэш по категориям. Уборщики запускаются сразу.
	a.cache = cache.New(cache.Options{
		Policies: a.config.Cache.Policies(),
		Shards:   a.config.Cache.Shards,
		Metrics:  a.metrics,
		Source:   a.upstream,
	}, a.logger)
	a.cache.Start()

	// 6. Авторизация.
	a.auth = auth.NewService(auth.Config{
		Secret:   a.config.Auth.Secret,
		TokenTTL: a.config.Auth.TokenTTL,
		Username: a.config.Auth.Username,
		Password: a.config.Auth.Password,
		Role:     a.config.Auth.Role,
	})

	// 7. Бизнес-логика.
	a.usecase = usecases.NewWantedUsecase(
		a.upstream,
		a.cache,
		a.logger,
		a.config.Upstream.MaxConcurrent,
	)

	// 8. HTTP сервер.
	a.server = &http.Server{
		Addr:         a.config.Server.Addr(),
		Handler:      a.newRouter(),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("приложение готово к работе")
	return nil
}

// StartBackgroundJobs запускает фоновые процессы.
func (a *App) StartBackgroundJobs() {
	if a.config.Cache.WarmupOnStart {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			ctx, cancel := context.WithTimeout(a.ctx, startupWarmupTimeout)
			defer cancel()
			a.cache.Warmup(ctx)
		}()
	}

	a.wg.Add(1)
	go a.periodicStatsLog()
}

// periodicStatsLog раз в statsLogInterval пишет сводку по кэшу.
func (a *App) periodicStatsLog() {
	defer a.wg.Done()

	ticker := time.NewTicker(statsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			a.logger.Info("фоновая сводка по кэшу остановлена")
			return
		case <-ticker.C:
			stats := a.cache.Stats()
			a.logger.Debug("состояние кэша",
				zap.Int64("hits", stats.Hits),
				zap.Int64("misses", stats.Misses),
				zap.Int("hit_rate", stats.HitRate),
				zap.Int("total_keys", stats.TotalKeys),
			)
		}
	}
}

// Start запускает HTTP сервер в отдельной горутине.
func (a *App) Start() error {
	if err := a.Initialize(); err != nil {
		return err
	}

	a.StartBackgroundJobs()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info("запуск HTTP сервера",
			zap.String("адрес", a.server.Addr),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("сервер упал с ошибкой", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown аккуратно останавливает приложение, дожидаясь текущих запросов.
func (a *App) Shutdown() error {
	var shutdownErr error

	a.shutdownOnce.Do(func() {
		a.logger.Info("начинаем остановку приложения...")

		// 1. Сигнал фоновым задачам
		a.cancel()

		timeout := a.config.Server.ShutdownTimeout

		// 2. Перестаем принимать запросы
		if a.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := a.server.Shutdown(ctx); err != nil {
				a.logger.Error("ошибка при остановке сервера", zap.Error(err))
				shutdownErr = err
			}
			cancel()
		}

		// 3. Останавливаем уборщиков кэша
		if a.cache != nil {
			a.cache.Stop()
		}

		// 4. Ждем горутины
		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			a.logger.Info("все фоновые процессы завершены")
		case <-time.After(timeout):
			a.logger.Warn("таймаут ожидания завершения процессов (принудительный выход)")
		}

		a.logger.Info("приложение остановлено успешно")
		_ = a.logger.Sync()
	})

	return shutdownErr
}

func main() {
	app := NewApp()

	if err := app.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Фатальная ошибка запуска: %v\n", err)
		os.Exit(1)
	}

	// Ждем Ctrl+C или docker stop
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := app.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка при остановке: %v\n", err)
		os.Exit(1)
	}
}
