package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jimlawless/whereami"
	"github.com/vektalab/embedviz/pkg/e"
	"github.com/vektalab/embedviz/pkg/logger"
)

type Config struct {
	Training *TrainingCfg
	Dataset  *DatasetCfg
	Minio    *MinIOCfg
	Http     *HTTPConfig
	Db       *PGDBCfg
	Qdrant   *QdrantCfg
	Redis    *RedisCfg
	Kafka    *KafkaCfg
}

// TrainingCfg — параметры цикла обучения и сборщика визуализационных сэмплов.
type TrainingCfg struct {
	Epochs          int
	BatchSize       int
	VisSamples      int // Лимит сэмплов на эпоху для визуализации
	EmbeddingDim    int
	LearningRate    float64
	Momentum        float64
	Seed            int64
	LogEveryBatches int
	ModelVersion    string
}

// DatasetCfg описывает, откуда и как загружается датасет в формате IDX.
type DatasetCfg struct {
	Name            string
	TrainImagesPath string
	TrainLabelsPath string
	TestImagesPath  string
	TestLabelsPath  string
	Mean            float32 // Среднее поканальной нормализации
	Std             float32 // Стандартное отклонение поканальной нормализации
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type MinIOCfg struct {
	MinioEndpoint      string
	BucketName         string
	MinioRootUser      string
	MinioRootPassword  string
	MinioUseSSL        bool
	UploadSpritesLimit int // Лимит на кол-во параллельных загрузок спрайтов в S3
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type QdrantCfg struct {
	Port             int
	Host             string
	ApiKey           string
	CollectionName   string
	UseTLS           bool
	VectorSize       uint64
	ProjectionMethod string // Метод проекции на стороне платформы (umap/tsne/pca)
	KeepAlive        time.Duration
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	RunTTL      time.Duration
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	training, err := loadTrainingCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	dataset, err := loadDatasetCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log, uint64(training.EmbeddingDim))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Training: training,
		Dataset:  dataset,
		Minio:    minio,
		Http:     http,
		Db:       db,
		Qdrant:   qdrant,
		Redis:    redis,
		Kafka:    kafka,
	}, nil
}

func loadTrainingCfg() (*TrainingCfg, error) {
	const (
		defaultEpochs       = 5
		defaultBatchSize    = 64
		defaultVisSamples   = 500
		defaultEmbeddingDim = 64
		defaultLearningRate = 0.01
		defaultMomentum     = 0.9
		defaultSeed         = 42
		defaultLogEvery     = 100
		defaultModelVersion = "convnet-v1"
	)

	epochs, err := parseIntEnv("NUM_EPOCHS", defaultEpochs)
	if err != nil {
		return nil, e.Wrap("NUM_EPOCHS", err)
	}
	if epochs <= 0 {
		return nil, e.Wrap("NUM_EPOCHS", e.ErrEpochsPositive)
	}

	batchSize, err := parseIntEnv("BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, e.Wrap("BATCH_SIZE", err)
	}
	if batchSize <= 0 {
		return nil, e.Wrap("BATCH_SIZE", e.ErrBatchPositive)
	}

	visSamples, err := parseIntEnv("NUM_VIS_SAMPLES", defaultVisSamples)
	if err != nil {
		return nil, e.Wrap("NUM_VIS_SAMPLES", err)
	}
	if visSamples <= 0 {
		return nil, e.Wrap("NUM_VIS_SAMPLES", e.ErrVisCapPositive)
	}

	embeddingDim, err := parseIntEnv("EMBEDDING_DIM", defaultEmbeddingDim)
	if err != nil {
		return nil, e.Wrap("EMBEDDING_DIM", err)
	}

	lr, err := parseFloatEnv("LEARNING_RATE", defaultLearningRate)
	if err != nil {
		return nil, e.Wrap("LEARNING_RATE", err)
	}

	momentum, err := parseFloatEnv("MOMENTUM", defaultMomentum)
	if err != nil {
		return nil, e.Wrap("MOMENTUM", err)
	}

	seed, err := parseIntEnv("TRAIN_SEED", defaultSeed)
	if err != nil {
		return nil, e.Wrap("TRAIN_SEED", err)
	}

	logEvery, err := parseIntEnv("LOG_EVERY_BATCHES", defaultLogEvery)
	if err != nil {
		return nil, e.Wrap("LOG_EVERY_BATCHES", err)
	}

	return &TrainingCfg{
		Epochs:          epochs,
		BatchSize:       batchSize,
		VisSamples:      visSamples,
		EmbeddingDim:    embeddingDim,
		LearningRate:    lr,
		Momentum:        momentum,
		Seed:            int64(seed),
		LogEveryBatches: logEvery,
		ModelVersion:    getEnvOrDefault("MODEL_VERSION", defaultModelVersion),
	}, nil
}

func loadDatasetCfg() (*DatasetCfg, error) {
	const (
		defaultName = "mnist"
		defaultDir  = "data"
		// Стандартная нормализация MNIST
		defaultMean = 0.1307
		defaultStd  = 0.3081
	)

	dir := getEnvOrDefault("DATASET_DIR", defaultDir)

	mean, err := parseFloatEnv("DATASET_MEAN", defaultMean)
	if err != nil {
		return nil, e.Wrap("DATASET_MEAN", err)
	}

	std, err := parseFloatEnv("DATASET_STD", defaultStd)
	if err != nil {
		return nil, e.Wrap("DATASET_STD", err)
	}

	return &DatasetCfg{
		Name:            getEnvOrDefault("DATASET_NAME", defaultName),
		TrainImagesPath: getEnvOrDefault("TRAIN_IMAGES_PATH", dir+"/train-images-idx3-ubyte.gz"),
		TrainLabelsPath: getEnvOrDefault("TRAIN_LABELS_PATH", dir+"/train-labels-idx1-ubyte.gz"),
		TestImagesPath:  getEnvOrDefault("TEST_IMAGES_PATH", dir+"/t10k-images-idx3-ubyte.gz"),
		TestLabelsPath:  getEnvOrDefault("TEST_LABELS_PATH", dir+"/t10k-labels-idx1-ubyte.gz"),
		Mean:            float32(mean),
		Std:             float32(std),
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	networkMode := getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode)

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       networkMode,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:      getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:         getEnv("BUCKET_NAME"),
		MinioRootUser:      getEnv("MINIO_ROOT_USER"),
		MinioRootPassword:  getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:        useSSL,
		UploadSpritesLimit: 10,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadQdrantCfg(logger logger.Logger, vectorSize uint64) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = "6334"
		defaultUseTLS         = false
		defaultProjection     = "umap"
		defaultKeepAlive      = 30 * time.Second
	)

	strPort := getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	port, err := strconv.Atoi(strPort)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	keepAlive, err := parseDurationEnv("QDRANT_KEEPALIVE", defaultKeepAlive)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_KEEPALIVE")
		return nil, err
	}

	// Размер вектора коллекции совпадает с размерностью эмбеддинга модели,
	// если не переопределён явно.
	strVectorSize := getEnvOrDefault("VECTOR_SIZE", strconv.FormatUint(vectorSize, 10))
	size, err := strconv.ParseUint(strVectorSize, 10, 64)
	if err != nil {
		logger.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	return &QdrantCfg{
		Host:             getEnv("QDRANT_HOST"),
		Port:             port,
		ApiKey:           getEnv("QDRANT__SERVICE__API_KEY"),
		CollectionName:   getEnv("COLLECTION_NAME"),
		UseTLS:           useTLS,
		VectorSize:       size,
		ProjectionMethod: getEnvOrDefault("PROJECTION_METHOD", defaultProjection),
		KeepAlive:        keepAlive,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultRunTTL       = 3 * time.Minute
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetriesStr := getEnvOrDefault("MAX_RETRIES", strconv.Itoa(defaultMaxRetries))
	maxRetries, err := strconv.Atoi(maxRetriesStr)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	runTTL, err := parseDurationEnv("RUN_TTL", defaultRunTTL)
	if err != nil {
		log.Errorf(err, "invalid RUN_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    password,
		User:        user,
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		RunTTL:      runTTL,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	floatValue, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return floatValue, nil
}
