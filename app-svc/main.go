package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "foodcourt/app-svc/internal/api/http"
	"foodcourt/app-svc/internal/service"
	"foodcourt/app-svc/internal/storage"
	"foodcourt/config"

	"github.com/sirupsen/logrus"
)

const sessionTTL = 30 * 24 * time.Hour

// backend is what the selected STORE_BACKEND provides.
type backend struct {
	store    service.Store
	accounts storage.AccountStore
	sessions service.SessionStorage
	close    func()
}

func newBackend(ctx context.Context, settings config.Settings, logger *logrus.Logger) backend {
	switch settings.StoreBackend {
	case config.BackendPostgres:
		db := config.MustInitPostgres(settings, logger)
		rdb := config.MustInitRedis(settings, logger)

		repo := storage.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to ensure schema")
		}
		feed := storage.NewOrderFeed(rdb, repo, logger)
		return backend{
			store:    storage.NewPostgresBackend(repo, feed),
			accounts: repo,
			sessions: storage.NewRedisSessionStorage(rdb, settings.SessionKey, sessionTTL),
			close:    func() { closeAll(logger, db.Close, rdb.Close) },
		}
	case config.BackendMemory:
		mem := storage.NewMemoryStore()
		return backend{
			store:    mem,
			accounts: mem,
			sessions: &storage.MemorySessionStorage{},
			close:    func() {},
		}
	default:
		logger.WithField("backend", settings.StoreBackend).Fatal("unknown STORE_BACKEND")
		return backend{}
	}
}

func closeAll(logger *logrus.Logger, closers ...func() error) {
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.WithError(err).Warn("close")
		}
	}
}

func main() {
	settings := config.Load(".env")
	logger := config.NewLogger(settings.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be := newBackend(ctx, settings, logger)
	defer be.close()

	var publisher service.OrderEventPublisher
	if writer := config.NewKafkaWriter(settings); writer != nil {
		defer writer.Close()
		publisher = storage.NewKafkaPublisher(writer)
	} else {
		logger.Info("KAFKA_BROKER not set, order events are not published")
	}

	provider := storage.NewPasswordIdentityProvider(be.accounts)
	codec := service.NewSessionCodec(settings.SessionSecret, sessionTTL)
	session := service.NewSessionManager(provider, be.store, be.sessions, codec, logger)
	if err := session.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start session")
	}

	catalog := service.NewCatalog(be.store, session, publisher, logger)
	hub := httpapi.NewOrderHub(logger)
	stopOrders := catalog.OnOrders(hub.Publish)
	defer stopOrders()
	go hub.Run(ctx)

	catalog.Start(ctx)
	defer catalog.Close()

	handler := httpapi.NewHandler(session, catalog, service.NewCart(),
		service.DefaultQRGenerator{BaseURL: settings.PublicBaseURL}, hub, logger)

	if err := httpapi.StartServer(ctx, settings.HTTPAddr, httpapi.NewRouter(handler), logger); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
	logger.Info("App Service stopped")
}
