package cli

import (
	"context"
	"os"

	"github.com/kioku-app/kioku/pkg/adapter"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/kioku-app/kioku/pkg/usecase/auth"
	"github.com/kioku-app/kioku/pkg/usecase/chat"
	"github.com/kioku-app/kioku/pkg/usecase/memory"
	"github.com/kioku-app/kioku/pkg/usecase/retrieval"
	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Repository
	project  string
	database string

	// Adapters
	geminiProject    string
	geminiLocation   string
	qdrantAddr       string
	qdrantCollection string
	qdrantDimension  int64
	bucket           string

	// Misc
	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("KIOKU_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for LLM and vector index configuration
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "qdrant-addr",
			Usage:       "Qdrant gRPC address",
			Value:       "localhost:6334",
			Sources:     cli.EnvVars("QDRANT_ADDR"),
			Destination: &cfg.qdrantAddr,
		},
		&cli.StringFlag{
			Name:        "qdrant-collection",
			Usage:       "Qdrant collection name",
			Value:       "memories",
			Sources:     cli.EnvVars("QDRANT_COLLECTION"),
			Destination: &cfg.qdrantCollection,
		},
		&cli.IntFlag{
			Name:        "qdrant-dimension",
			Usage:       "Vector dimension of the embedding model",
			Value:       3072,
			Sources:     cli.EnvVars("QDRANT_DIMENSION"),
			Destination: &cfg.qdrantDimension,
		},
	}
}

// storageFlags returns flags for transcript storage
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for chat transcripts",
			Sources:     cli.EnvVars("KIOKU_TRANSCRIPT_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
}

// setupLogger installs the configured default logger
func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation)
}

// newVectorIndex creates a new Qdrant index instance and ensures the
// collection exists before any upsert or query can hit it
func (cfg *config) newVectorIndex(ctx context.Context) (adapter.VectorIndex, error) {
	if cfg.qdrantAddr == "" {
		return nil, goerr.New("qdrant-addr is required")
	}
	if cfg.qdrantCollection == "" {
		return nil, goerr.New("qdrant-collection is required")
	}
	if cfg.qdrantDimension <= 0 {
		return nil, goerr.New("qdrant-dimension must be positive", goerr.V("dimension", cfg.qdrantDimension))
	}

	index, err := adapter.NewQdrant(cfg.qdrantAddr, cfg.qdrantCollection)
	if err != nil {
		return nil, err
	}
	if err := index.EnsureCollection(ctx, uint64(cfg.qdrantDimension)); err != nil {
		return nil, err
	}
	return index, nil
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// usecases bundles the constructed application services
type usecases struct {
	repo      repository.Repository
	memory    *memory.UseCase
	retrieval *retrieval.UseCase
	chat      *chat.UseCase
	auth      *auth.UseCase
}

// newUsecases wires repository and adapters into the application services.
// jwtSecret may be empty for CLI-only paths that never verify tokens.
func (cfg *config) newUsecases(ctx context.Context, jwtSecret string, chatOpts ...chat.Option) (*usecases, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	index, err := cfg.newVectorIndex(ctx)
	if err != nil {
		return nil, err
	}

	retrievalUC := retrieval.New(repo, gemini, index)

	return &usecases{
		repo:      repo,
		memory:    memory.New(repo, gemini, index),
		retrieval: retrievalUC,
		chat:      chat.New(repo, gemini, retrievalUC, chatOpts...),
		auth:      auth.New(repo, []byte(jwtSecret)),
	}, nil
}
