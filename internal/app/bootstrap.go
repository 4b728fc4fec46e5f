package app

import (
	"context"
	"log/slog"

	"github.com/Afonso017/fraud-detector/config"
	"github.com/Afonso017/fraud-detector/internal/domain/repository"
	"github.com/Afonso017/fraud-detector/internal/domain/service"
	ws "github.com/Afonso017/fraud-detector/internal/handlers/websocket"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/cache"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/queue"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/scoring"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/storage"
	"github.com/Afonso017/fraud-detector/internal/infrastructure/store"
)

// Processor is the common interface of the background event consumers.
type Processor interface {
	Run(ctx context.Context) error
}

// AppContext holds all app dependencies
type AppContext struct {
	Config         *config.Config
	ProfileService *service.CacheAsideProfileService
	Analysis       *service.AnalysisPipeline
	Broadcaster    *ws.ProfileBroadcaster
	Publisher      *queue.AsyncPublisher
	ProfileUpdater *ProfileUpdater
	AuditWriter    *AuditWriter

	producer    *queue.KafkaProducer
	consumers   []*queue.KafkaConsumer
	storeCloser func() error
	auditCloser func() error
	log         *slog.Logger
}

// NewApp initializes the app context with all dependencies
func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg, log: log}

	// Durable profile store, backend per config
	profileStore, err := newProfileStore(ctx, cfg, log, app)
	if err != nil {
		return nil, err
	}
	log.Info("profile store initialized", "backend", cfg.ProfileStoreBackend)

	// In-process accelerator cache
	profileCache := cache.NewProfileCache(cfg.ProfileCacheTTL)

	app.ProfileService = service.NewCacheAsideProfileService(profileStore, profileCache, log)

	// Audit trail storage; the audit writer is skipped when ClickHouse is
	// unreachable, the orchestration pipeline keeps serving.
	var auditStore repository.AuditPersistence
	auditRepo, err := storage.NewClickHouseAuditRepository(storage.ClickHouseConfig{
		Addr:     cfg.ClickhouseAddr,
		Username: cfg.ClickhouseUsername,
		Password: cfg.ClickhousePassword,
		Timeout:  cfg.ClickhouseTimeout,
	})
	if err != nil {
		log.Warn("failed to connect to ClickHouse, audit writer disabled", "err", err)
	} else {
		auditStore = auditRepo
		app.auditCloser = auditRepo.Close
		log.Info("ClickHouse audit storage initialized")
	}

	app.Broadcaster = ws.NewProfileBroadcaster(log)

	kafkaConfig := queue.KafkaConfig{
		Brokers:         cfg.KafkaBrokers,
		Topic:           cfg.KafkaTopic,
		BatchSize:       cfg.KafkaBatchSize,
		BatchTimeout:    cfg.KafkaBatchTimeout,
		EventBufferSize: cfg.EventBufferSize,
	}

	// Outbound: async publisher over a Kafka producer
	app.producer = queue.NewKafkaProducer(kafkaConfig)
	app.Publisher = queue.NewAsyncPublisher(app.producer, cfg.PublishBufferSize, log)

	// Orchestration pipeline
	scorer := scoring.NewClient(cfg.ScoringURL, cfg.ScoringTimeout)
	app.Analysis = service.NewAnalysisPipeline(app.ProfileService, scorer, app.Publisher, cfg.ScoringMaxInflight, log)

	// Inbound: one consumer group per subscriber, each sees every event
	profileConsumerCfg := kafkaConfig
	profileConsumerCfg.ConsumerGroup = cfg.ProfileConsumerGroup
	profileConsumer := queue.NewKafkaConsumer(profileConsumerCfg, log)
	app.consumers = append(app.consumers, profileConsumer)
	app.ProfileUpdater = NewProfileUpdater(
		profileConsumer, app.ProfileService, app.Broadcaster,
		cfg.UpdaterShards, cfg.DedupWindowSize, log)

	if auditStore != nil {
		auditConsumerCfg := kafkaConfig
		auditConsumerCfg.ConsumerGroup = cfg.AuditConsumerGroup
		auditConsumer := queue.NewKafkaConsumer(auditConsumerCfg, log)
		app.consumers = append(app.consumers, auditConsumer)
		app.AuditWriter = NewAuditWriter(auditConsumer, auditStore, log)
	}

	return app, nil
}

func newProfileStore(ctx context.Context, cfg *config.Config, log *slog.Logger, app *AppContext) (repository.ProfileStore, error) {
	switch cfg.ProfileStoreBackend {
	case "postgres":
		pg, err := store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		app.storeCloser = pg.Close
		return pg, nil
	case "memory":
		log.Warn("using in-memory profile store, profiles will not survive restarts")
		return store.NewMemoryStore(), nil
	default:
		rs := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			return nil, err
		}
		app.storeCloser = rs.Close
		return rs, nil
	}
}

// Processors returns the background event consumers to run. The audit
// writer is absent when audit storage is unavailable.
func (a *AppContext) Processors() []Processor {
	procs := []Processor{a.ProfileUpdater}
	if a.AuditWriter != nil {
		procs = append(procs, a.AuditWriter)
	}
	return procs
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup() {
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.log.Error("error closing Kafka consumer", "err", err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Error("error closing Kafka producer", "err", err)
		}
	}

	if a.storeCloser != nil {
		if err := a.storeCloser(); err != nil {
			a.log.Error("error closing profile store", "err", err)
		}
	}

	if a.auditCloser != nil {
		if err := a.auditCloser(); err != nil {
			a.log.Error("error closing audit storage", "err", err)
		}
	}

	a.log.Info("all resources cleaned up")
}
