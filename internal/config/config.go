package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"StudyMind/pkg/retry"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address        string `yaml:"address"`        // Listen address, e.g. ":8080"
	MaxUploadBytes int64  `yaml:"maxUploadBytes"` // Maximum accepted upload size
}

// AuthConfig configures the transport-side owner extraction. The core treats
// the owner as an opaque string; this only controls how the API layer reads
// it from a bearer token.
type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret"`
}

// MongoConfig holds the corpus store connection settings.
type MongoConfig struct {
	URI         string `yaml:"uri"`
	Database    string `yaml:"database"`
	Collection  string `yaml:"collection"`
	VectorIndex string `yaml:"vectorIndex"` // Atlas Vector Search index name
}

// MySQLConfig holds the folder store connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// MinIOConfig holds the raw-upload object storage settings.
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

// KafkaConfig holds the ingestion event publisher settings.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// GeminiConfig names the Google GenAI models used for generation, audio and
// embeddings. The API key is taken from the environment, never from the file.
type GeminiConfig struct {
	APIKey         string `yaml:"-"`
	ChatModel      string `yaml:"chatModel"`
	AudioModel     string `yaml:"audioModel"`
	EmbeddingModel string `yaml:"embeddingModel"`
}

// ChunkingConfig controls how normalized text is windowed.
type ChunkingConfig struct {
	Size    int `yaml:"size"`    // Target window size in characters
	Overlap int `yaml:"overlap"` // Overlap between consecutive windows
}

// RetrievalConfig controls scoped retrieval defaults.
type RetrievalConfig struct {
	MaxChunks        int `yaml:"maxChunks"`        // Default k for corpus-wide and single-file retrieval
	MaxChunksPerFile int `yaml:"maxChunksPerFile"` // Default per-file k for multi-file retrieval
	PreviewLength    int `yaml:"previewLength"`    // Source preview truncation length
}

// QuizConfig controls quiz context assembly.
type QuizConfig struct {
	MaxContextChunks int `yaml:"maxContextChunks"` // Cap on corpus-probed chunks
	MaxCharsPerFile  int `yaml:"maxCharsPerFile"`  // Cap on file-scoped context; 0 means full text
}

// RetryConfig bounds calls to external collaborators.
type RetryConfig struct {
	Attempts    int `yaml:"attempts"`
	TimeoutSec  int `yaml:"timeoutSec"`
	BaseDelayMS int `yaml:"baseDelayMS"`
}

// Policy converts the configured bounds into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		Attempts:  r.Attempts,
		Timeout:   time.Duration(r.TimeoutSec) * time.Second,
		BaseDelay: time.Duration(r.BaseDelayMS) * time.Millisecond,
	}
}

// AppConfig is the root configuration object.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Mongo     MongoConfig     `yaml:"mongo"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Quiz      QuizConfig      `yaml:"quiz"`
	Retry     RetryConfig     `yaml:"retry"`
}

// LoadConfig reads the YAML file at path, applies defaults for unset values
// and overlays secrets from the environment.
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 16 << 20
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "educational_ai"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "documents"
	}
	if c.Mongo.VectorIndex == "" {
		c.Mongo.VectorIndex = "vector_index"
	}
	if c.Gemini.ChatModel == "" {
		c.Gemini.ChatModel = "gemini-2.5-flash"
	}
	if c.Gemini.AudioModel == "" {
		c.Gemini.AudioModel = "gemini-2.0-flash"
	}
	if c.Gemini.EmbeddingModel == "" {
		c.Gemini.EmbeddingModel = "embedding-001"
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = 1000
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 200
	}
	if c.Retrieval.MaxChunks == 0 {
		c.Retrieval.MaxChunks = 4
	}
	if c.Retrieval.MaxChunksPerFile == 0 {
		c.Retrieval.MaxChunksPerFile = 2
	}
	if c.Retrieval.PreviewLength == 0 {
		c.Retrieval.PreviewLength = 200
	}
	if c.Quiz.MaxContextChunks == 0 {
		c.Quiz.MaxContextChunks = 15
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.TimeoutSec == 0 {
		c.Retry.TimeoutSec = 30
	}
	if c.Retry.BaseDelayMS == 0 {
		c.Retry.BaseDelayMS = 500
	}
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		c.MySQL.Password = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		c.MinIO.SecretKey = v
	}
}
