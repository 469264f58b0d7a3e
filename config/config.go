package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	VectorStorePinecone = "pinecone"
	VectorStoreChroma   = "chroma"
	VectorStoreMemory   = "memory"
)

// Config holds every setting the service reads at startup. It is populated
// once in main and shared read-only afterwards.
type Config struct {
	Port string `yaml:"port"`

	GeminiAPIKey   string `yaml:"gemini_api_key"`
	ChatModel      string `yaml:"chat_model"`
	EmbeddingModel string `yaml:"embedding_model"`

	VectorStore       string `yaml:"vector_store"`
	PineconeAPIKey    string `yaml:"pinecone_api_key"`
	PineconeIndexName string `yaml:"pinecone_index_name"`
	PineconeNamespace string `yaml:"pinecone_namespace"`
	ChromaURL         string `yaml:"chroma_url"`
	ChromaCollection  string `yaml:"chroma_collection"`
	MemoryStorePath   string `yaml:"memory_store_path"`

	PDFPath          string `yaml:"pdf_path"`
	PublicDir        string `yaml:"public_dir"`
	UnidocLicenseKey string `yaml:"unidoc_license_key"`
	WatchPDF         bool   `yaml:"watch_pdf"`

	TopK              int   `yaml:"top_k"`
	ChunkSize         int   `yaml:"chunk_size"`
	ChunkOverlap      int   `yaml:"chunk_overlap"`
	UpsertConcurrency int   `yaml:"upsert_concurrency"`
	MaxBodyBytes      int64 `yaml:"max_body_bytes"`
	RetryAttempts     int   `yaml:"retry_attempts"`

	StrictConfig bool   `yaml:"strict_config"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:              "3000",
		ChatModel:         "gemini-2.5-flash",
		EmbeddingModel:    "text-embedding-004",
		VectorStore:       VectorStorePinecone,
		ChromaCollection:  "pdf-rag",
		PDFPath:           "./dsa.pdf",
		PublicDir:         "./public",
		TopK:              6,
		ChunkSize:         1000,
		ChunkOverlap:      200,
		UpsertConcurrency: 5,
		MaxBodyBytes:      5 << 20,
		RetryAttempts:     1,
		LogLevel:          "info",
		LogFormat:         "console",
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if
// set), then the process environment. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.ChatModel, "CHAT_MODEL")
	setString(&c.EmbeddingModel, "EMBEDDING_MODEL")
	setString(&c.VectorStore, "VECTOR_STORE")
	setString(&c.PineconeAPIKey, "PINECONE_API_KEY")
	setString(&c.PineconeIndexName, "PINECONE_INDEX_NAME")
	setString(&c.PineconeNamespace, "PINECONE_NAMESPACE")
	setString(&c.ChromaURL, "CHROMA_URL")
	setString(&c.ChromaCollection, "CHROMA_COLLECTION")
	setString(&c.MemoryStorePath, "MEMORY_STORE_PATH")
	setString(&c.PDFPath, "PDF_PATH")
	setString(&c.PublicDir, "PUBLIC_DIR")
	setString(&c.UnidocLicenseKey, "UNIDOC_LICENSE_KEY")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	var errs []error
	errs = append(errs,
		setBool(&c.WatchPDF, "WATCH_PDF"),
		setBool(&c.StrictConfig, "STRICT_CONFIG"),
		setInt(&c.TopK, "TOP_K"),
		setInt(&c.ChunkSize, "CHUNK_SIZE"),
		setInt(&c.ChunkOverlap, "CHUNK_OVERLAP"),
		setInt(&c.UpsertConcurrency, "UPSERT_CONCURRENCY"),
		setInt(&c.RetryAttempts, "RETRY_ATTEMPTS"),
	)
	if v, ok := os.LookupEnv("MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("MAX_BODY_BYTES: %w", err))
		} else {
			c.MaxBodyBytes = n
		}
	}
	return errors.Join(errs...)
}

// Validate reports missing credentials as warnings. Those become an error
// only in strict mode. Settings that can never work are always an error.
func (c *Config) Validate() ([]string, error) {
	var warnings []string
	if c.GeminiAPIKey == "" {
		warnings = append(warnings, "GEMINI_API_KEY is not set")
	}
	switch c.VectorStore {
	case VectorStorePinecone:
		if c.PineconeAPIKey == "" {
			warnings = append(warnings, "PINECONE_API_KEY is not set")
		}
		if c.PineconeIndexName == "" {
			warnings = append(warnings, "PINECONE_INDEX_NAME is not set")
		}
	case VectorStoreChroma, VectorStoreMemory:
	default:
		return warnings, fmt.Errorf("unknown VECTOR_STORE %q", c.VectorStore)
	}

	if c.ChunkSize <= 0 {
		return warnings, fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return warnings, fmt.Errorf("CHUNK_OVERLAP must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return warnings, fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.UpsertConcurrency <= 0 {
		return warnings, fmt.Errorf("UPSERT_CONCURRENCY must be positive, got %d", c.UpsertConcurrency)
	}
	if c.RetryAttempts <= 0 {
		return warnings, fmt.Errorf("RETRY_ATTEMPTS must be at least 1, got %d", c.RetryAttempts)
	}
	if c.MaxBodyBytes <= 0 {
		return warnings, fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.MaxBodyBytes)
	}

	if c.StrictConfig && len(warnings) > 0 {
		return warnings, fmt.Errorf("missing required configuration: %s", strings.Join(warnings, "; "))
	}
	return warnings, nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
