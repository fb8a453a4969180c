package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	config "github.com/vektalab/embedviz/internal/cfg"
	"github.com/vektalab/embedviz/internal/collector"
	"github.com/vektalab/embedviz/internal/dataset"
	v1Http "github.com/vektalab/embedviz/internal/delivery/v1/http"
	"github.com/vektalab/embedviz/internal/infrastructure/kafka"
	minioInfra "github.com/vektalab/embedviz/internal/infrastructure/minio"
	"github.com/vektalab/embedviz/internal/infrastructure/pipeline"
	"github.com/vektalab/embedviz/internal/model"
	s3Repo "github.com/vektalab/embedviz/internal/repository/minio"
	"github.com/vektalab/embedviz/internal/repository/pgdb"
	qdrantRepo "github.com/vektalab/embedviz/internal/repository/qdrant"
	"github.com/vektalab/embedviz/internal/repository/redis"
	"github.com/vektalab/embedviz/internal/usecase"
	"github.com/vektalab/embedviz/pkg/clients"
	"github.com/vektalab/embedviz/pkg/closer"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/logger"
	"github.com/vektalab/embedviz/pkg/postgres"
)

// Каналов свёртки достаточно для демонстрационного классификатора
const convChannels = 8

// App связывает обучение, сбор визуализационных сэмплов и выгрузку
// на платформу визуализации в один запуск пайплайна.
type App struct {
	cfg    *config.Config
	logger logger.Logger
}

func NewApp(cfg *config.Config, logger logger.Logger) (*App, error) {
	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (a *App) Run() error {
	cfg := a.cfg
	logger := a.logger

	cl := closer.NewCloser(2 * time.Second)

	db, err := initPGDB(logger, cfg)
	if err != nil {
		logger.Errorf(err, "failed to initialize database")
		return err
	}
	cl.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	runRepo := pgdb.NewRunRepo(db.Pool)

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		logger.Errorf(err, "failed to initialize minio client")
		return err
	}

	minioCtx, minioCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		minioCancel()
		logger.Errorf(err, "failed to initialize MinIO bucket")
		return err
	}
	minioCancel()

	spriteRepo := s3Repo.NewSpriteRepo(minioClient, cfg.Minio)

	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		logger.Errorf(err, "failed to initialize qdrant")
		return err
	}
	qdrantCtx, qdrantCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := clients.EnsureCollection(qdrantCtx, qdrantClient); err != nil {
		qdrantCancel()
		logger.Errorf(err, "failed to initialize qdrant")
		return err
	}
	qdrantCancel()
	cl.Add(func(ctx context.Context) error {
		return qdrantClient.Client.Close()
	})

	embRepo := qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		logger.Errorf(err, "failed to connect to redis")
		return err
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})
	cacheRepo := redis.NewCacheRepo(redisClient, cfg.Redis, logger)

	producer, err := kafka.NewProducer(logger, cfg.Kafka)
	if err != nil {
		logger.Errorf(err, "failed to initialize kafka producer")
		return err
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		logger.Errorf(err, "failed to ensure kafka topic")
		return err
	}
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	trainLoader, valLoader, width, height, err := initLoaders(cfg)
	if err != nil {
		logger.Errorf(err, "failed to load dataset")
		return err
	}

	net, err := model.NewConvNet(height, width, convChannels, cfg.Training.EmbeddingDim, 10, cfg.Training.Seed)
	if err != nil {
		logger.Errorf(err, "failed to initialize model")
		return err
	}

	opt := model.NewSGD(cfg.Training.LearningRate, cfg.Training.Momentum)
	trainer := model.NewTrainer(net, opt, trainLoader, logger, cfg.Training.LogEveryBatches)

	visCol, err := collector.NewCollector(cfg.Training.VisSamples, width, height, cfg.Dataset.Mean, cfg.Dataset.Std)
	if err != nil {
		logger.Errorf(err, "failed to initialize collector")
		return err
	}

	// Контекст фоновых компенсаций живёт дольше контекста пайплайна
	shutdownRootCtx, shutdownRootCancel := context.WithCancel(context.Background())
	defer shutdownRootCancel()

	spritesInfra := minioInfra.NewSpriteInfrastructure(spriteRepo, cfg.Minio, logger, shutdownRootCtx)

	runUC := usecase.NewRunUC(
		runRepo,
		embRepo,
		db.Pool,
		trainer,
		pipeline.NewVisCollector(visCol, net, valLoader),
		spritesInfra,
		cacheRepo,
		producer,
		logger,
		cfg.Qdrant.CollectionName,
	)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, logger)
	router.Init(runUC)

	httpSrv := v1Http.NewServer(r, cfg.Http)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(err, "HTTP server failed: %v", err)
			errCh <- err
		}
	}()
	cl.Add(func(ctx context.Context) error {
		return httpSrv.Stop(ctx)
	})

	pipelineCtx, pipelineCancel := context.WithCancel(context.Background())
	defer pipelineCancel()

	pipelineCh := make(chan error, 1)
	go func() {
		res, err := runUC.Execute(pipelineCtx, &usecase.ExecuteRunReq{
			Dataset:      cfg.Dataset.Name,
			ModelVersion: cfg.Training.ModelVersion,
			Epochs:       cfg.Training.Epochs,
			VisSamples:   cfg.Training.VisSamples,
			VectorSize:   cfg.Training.EmbeddingDim,
		})
		if err != nil {
			pipelineCh <- err
			return
		}

		logger.Infof("run %d completed: %d records uploaded to collection %q", res.RunID, res.Records, res.Collection)
		pipelineCh <- nil
	}()

	// === Ожидание завершения пайплайна, сигнала или ошибки ===
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		logger.Errorf(appErr, "HTTP server fatal error")
		pipelineCancel()
	case appErr = <-pipelineCh:
		if appErr != nil {
			logger.Errorf(appErr, "pipeline failed")
		}
	case <-shutdown:
		logger.Infof("Received shutdown signal, stopping gracefully...")
		pipelineCancel()
	}

	// === Graceful shutdown ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	done := make(chan error, 1)
	go func() {
		done <- spritesInfra.WaitForCleanup(shutdownCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Warnf("MinIO cleanup error: %v", err)
		} else {
			logger.Infof("MinIO cleanup completed")
		}
	case <-time.After(5 * time.Second): // локальный таймаут ожидания cleanup
		logger.Warnf("MinIO cleanup did not finish before shutdown, some temporary objects may remain")
	}

	shutdownRootCancel()

	if err := cl.Close(shutdownCtx); err != nil {
		logger.Warnf("Shutdown finished with errors: %v", err)
	}

	logger.Infof("Application shutdown complete")
	return appErr
}

// initLoaders читает IDX-файлы датасета и строит загрузчики обучения и валидации.
// Валидационный загрузчик не перемешивает данные: порядок сбора
// визуализационных сэмплов должен быть стабилен между эпохами.
func initLoaders(cfg *config.Config) (*dataset.DataLoader, *dataset.DataLoader, int, int, error) {
	trainImages, err := dataset.ReadImagesFile(cfg.Dataset.TrainImagesPath)
	if err != nil {
		return nil, nil, 0, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	trainLabels, err := dataset.ReadLabelsFile(cfg.Dataset.TrainLabelsPath)
	if err != nil {
		return nil, nil, 0, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	testImages, err := dataset.ReadImagesFile(cfg.Dataset.TestImagesPath)
	if err != nil {
		return nil, nil, 0, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	testLabels, err := dataset.ReadLabelsFile(cfg.Dataset.TestLabelsPath)
	if err != nil {
		return nil, nil, 0, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	trainSet, err := dataset.NewInMemoryDataset(trainImages, trainLabels, cfg.Dataset.Mean, cfg.Dataset.Std)
	if err != nil {
		return nil, nil, 0, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	testSet, err := dataset.NewInMemoryDataset(testImages, testLabels, cfg.Dataset.Mean, cfg.Dataset.Std)
	if err != nil {
		return nil, nil, 0, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	trainLoader := dataset.NewDataLoader(trainSet, cfg.Training.BatchSize, true, cfg.Training.Seed)
	valLoader := dataset.NewDataLoader(testSet, cfg.Training.BatchSize, false, cfg.Training.Seed)

	return trainLoader, valLoader, trainSet.Width(), trainSet.Height(), nil
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		logger.Errorf(err, "failed to ping database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
