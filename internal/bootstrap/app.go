package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"studynotes/internal/ai"
	appsvc "studynotes/internal/app"
	"studynotes/internal/cache"
	"studynotes/internal/config"
	"studynotes/internal/extract"
	"studynotes/internal/filestore"
	"studynotes/internal/job"
	"studynotes/internal/platform/database"
	rabbitmqClient "studynotes/internal/platform/rabbitmq"
	redisClient "studynotes/internal/platform/redis"
	"studynotes/internal/repository"
	"studynotes/internal/schedule"
	"studynotes/internal/vision"
	"studynotes/internal/vision/tesseract"
	"studynotes/internal/worker"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	Redis     *redis.Client
	MQConn    *amqp.Connection
	QAWorker  *worker.QAPersistWorker
	Scheduler *schedule.CronScheduler
	Files     filestore.Store

	Gateway   *appsvc.Gateway
	Ingest    *appsvc.IngestService
	Notes     *appsvc.NoteService
	Materials *appsvc.MaterialService
	Profiles  *appsvc.ProfileService

	StartedAt time.Time
}

type stores struct {
	notes     appsvc.NoteStore
	materials appsvc.MaterialStore
	profiles  appsvc.ProfileStore
}

// New connects every configured dependency and wires the services. Resources
// opened before a failure are released.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				logger.Warn("release resources after failed start", zap.Error(closeErr))
			}
		}
	}()

	st, err := a.openStores(ctx)
	if err != nil {
		return nil, err
	}

	storeTimeout := seconds(cfg.Timeouts.StoreSeconds)

	var history appsvc.QAHistory
	if cfg.Redis.Enabled {
		a.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		history = cache.NewQAHistoryCache(a.Redis, seconds(cfg.Redis.HistoryTTLSeconds), cfg.Redis.HistoryMaxItems)
	}

	var publisher appsvc.QAPublisher
	if cfg.RabbitMQ.Enabled {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
		a.QAWorker = worker.NewQAPersistWorker(a.MQConn, st.notes, cfg.RabbitMQ.QAPersistQueue, logger)
		if err := a.QAWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start qa persist worker failed: %w", err)
		}
		publisher = rabbitmqClient.NewQAPublisher(a.MQConn, cfg.RabbitMQ.QAPersistQueue)
	}

	a.Files, err = filestore.New(ctx, cfg.FileStore, cfg.App.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("init file store failed: %w", err)
	}

	generator, err := ai.New(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("init llm provider failed: %w", err)
	}
	speech := ai.NewSpeechClient(cfg.Speech, nil)
	a.Gateway = appsvc.NewGateway(generator, speech, appsvc.GatewayOptions{
		Timeout:     seconds(cfg.LLM.TimeoutSeconds),
		MaxAttempts: cfg.LLM.MaxAttempts,
	}, logger.Named("gateway"))

	recognizer := vision.NewRecognizer(tesseract.New(cfg.OCR.Languages), cfg.Upload.TempDir)
	extractor := extract.New(recognizer, seconds(cfg.Timeouts.ExtractSeconds), logger.Named("extract"))

	a.Ingest = appsvc.NewIngestService(a.Gateway, extractor, st.notes, st.materials, a.Files, cfg.Upload.MaxBytes, storeTimeout, logger.Named("ingest"))
	a.Notes = appsvc.NewNoteService(st.notes, a.Gateway, history, publisher, cfg.LLM.MaxHistory, storeTimeout, logger.Named("notes"))
	a.Materials = appsvc.NewMaterialService(a.Ingest, st.materials, a.Files, storeTimeout, logger.Named("materials"))
	a.Profiles = appsvc.NewProfileService(st.profiles, a.Files, cfg.Upload.MaxBytes, storeTimeout, logger.Named("profiles"))

	a.Scheduler = schedule.NewCronScheduler(logger.Named("schedule"))
	if cfg.Jobs.TempSweepSpec != "" {
		sweep := job.NewTempSweepJob(cfg.Upload.TempDir, vision.TempFilePrefix, time.Duration(cfg.Jobs.TempMaxAgeMinutes)*time.Minute, logger)
		if err := a.Scheduler.AddJob(sweep, cfg.Jobs.TempSweepSpec); err != nil {
			return nil, fmt.Errorf("schedule temp sweep failed: %w", err)
		}
	}
	a.Scheduler.Start(ctx)

	logger.Info("application initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("file_store", a.Files.Type()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("rabbitmq", cfg.RabbitMQ.Enabled),
	)
	return a, nil
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	if a.Config.Store.Driver == "memory" {
		a.Logger.Warn("using in-memory document store, data is lost on restart")
		return &stores{
			notes:     repository.NewMemoryNoteRepository(),
			materials: repository.NewMemoryMaterialRepository(),
			profiles:  repository.NewMemoryProfileRepository(),
		}, nil
	}

	db, err := database.New(ctx, a.Config, a.Logger)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return &stores{
		notes:     repository.NewNoteRepository(db),
		materials: repository.NewMaterialRepository(db),
		profiles:  repository.NewProfileRepository(db),
	}, nil
}

func (a *App) Close() error {
	var errs []error
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.QAWorker != nil {
		a.QAWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq failed: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis failed: %w", err))
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close database failed: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
