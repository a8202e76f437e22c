package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/event-planner/internal/config"
	"github.com/iliyamo/event-planner/internal/database"
	"github.com/iliyamo/event-planner/internal/handler"
	"github.com/iliyamo/event-planner/internal/logger"
	"github.com/iliyamo/event-planner/internal/middleware"
	"github.com/iliyamo/event-planner/internal/queue"
	"github.com/iliyamo/event-planner/internal/repository"
	"github.com/iliyamo/event-planner/internal/repository/inmem"
	"github.com/iliyamo/event-planner/internal/router"
	"github.com/iliyamo/event-planner/internal/search"
	"github.com/iliyamo/event-planner/internal/service"
	"github.com/iliyamo/event-planner/internal/storage"
)

// stores is the persistence wiring selected by STORE_DRIVER.
type stores struct {
	events service.EventStore
	ledger service.Ledger
	users  handler.UserStore
	tokens handler.TokenStore
	ping   handler.Check
	close  func() error
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory storage; data is lost on restart")
		mem := inmem.NewStore()
		return stores{
			events: mem,
			ledger: mem,
			users:  inmem.NewUsers(),
			tokens: inmem.NewTokens(),
			close:  func() error { return nil },
		}, nil
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{
		events: repository.NewEventRepo(db),
		ledger: repository.NewAttendeeRepo(db),
		users:  repository.NewUserRepo(db),
		tokens: repository.NewTokenRepo(db),
		ping:   db.PingContext,
		close:  db.Close,
	}, nil
}

func main() {
	cfg := config.Load() // Load environment config
	log := logger.Must(cfg.IsProd())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open storage", zap.Error(err))
	}
	defer func() { _ = st.close() }()

	// Redis is optional: without it favorites live in memory and the cache
	// and rate limiter are disabled.
	checks := map[string]handler.Check{}
	if st.ping != nil {
		checks["mysql"] = st.ping
	}
	rdb, err := config.LoadRedisConfig().Connect(ctx)
	var favorites service.FavoriteStore
	if err == nil {
		defer func() { _ = rdb.Close() }()
		favorites = repository.NewFavoriteRepo(rdb, "fav")
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn("redis unavailable; favorites kept in memory, cache and rate limiting off", zap.Error(err))
		favorites = inmem.NewFavorites()
	}

	var pub service.Publisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		pub = queue.NewPublisher(cfg.RabbitURL, log)
		consumer := queue.NewConsumer(cfg.RabbitURL, "logs", log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Info("RABBITMQ_URL not set; domain events are not published")
	}

	assets, err := storage.NewAssets(cfg.Assets)
	if err != nil {
		log.Fatal("asset store", zap.Error(err))
	}

	eventSvc := service.NewEventService(st.events, pub, log)
	ledgerSvc := service.NewLedgerService(st.events, st.ledger, pub, log)
	favoriteSvc := service.NewFavoriteService(favorites, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	// Room for one image at the store's limit plus the multipart framing.
	e.Use(echomw.BodyLimit(strconv.FormatInt(assets.MaxBytes()>>10+1024, 10) + "K"))
	if strings.HasPrefix(assets.BaseURL(), "/") {
		e.Static(assets.BaseURL(), assets.Dir())
	}

	cacheCfg := config.LoadCacheConfig()
	router.Register(e, router.Handlers{
		Health:    handler.NewHealthHandler(checks),
		Auth:      handler.NewAuthHandler(cfg, st.users, st.tokens, log),
		Events:    handler.NewEventHandler(eventSvc, log),
		Attendees: handler.NewAttendeeHandler(ledgerSvc, log),
		Favorites: handler.NewFavoriteHandler(favoriteSvc, log),
		Search:    handler.NewSearchHandler(search.NewClient(cfg.Search, log), log),
		Upload:    handler.NewUploadHandler(eventSvc, assets, log),
	}, router.Middleware{
		JWTSecret:   cfg.JWTSecret,
		EventCache:  middleware.NewRedisCache(cacheCfg.WithTTL("events", cacheCfg.TTL), rdb, log),
		SearchCache: middleware.NewRedisCache(cacheCfg.WithTTL("search", cacheCfg.SearchTTL), rdb, log),
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
