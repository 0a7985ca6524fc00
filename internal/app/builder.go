// Package app wires configuration into the services shared by the API server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"contrackt-ai/internal/blob"
	"contrackt-ai/internal/config"
	"contrackt-ai/internal/contextutil"
	"contrackt-ai/internal/handlers"
	"contrackt-ai/internal/indexer"
	"contrackt-ai/internal/llm"
	"contrackt-ai/internal/observability"
	"contrackt-ai/internal/rag"
	"contrackt-ai/internal/retrieval"
	"contrackt-ai/internal/service"
	"contrackt-ai/internal/storage"
	"contrackt-ai/internal/storage/postgres"
	"contrackt-ai/internal/vectorstore"
)

// Version is reported in traces.
var Version = "dev"

// chunkIndex is what both the retrieval and ingest sides need from a backend.
type chunkIndex interface {
	retrieval.ChunkIndex
	indexer.ChunkIndexer
}

// Services is the wired object graph. Build it once and Close it on exit.
type Services struct {
	Config       *config.Config
	Chat         service.ChatService
	Documents    service.DocumentService
	HealthChecks []handlers.HealthCheck
	// Files serves disk blobs; nil for S3.
	Files http.Handler

	tracer  *observability.TracerProvider
	closers []func() error
}

// Build connects every backend named in cfg and wires the services on top.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	logger := contextutil.LoggerFromContext(ctx)
	s := &Services{Config: cfg}

	tracer, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    cfg.OTelServiceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSamplingRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	s.tracer = tracer

	completer, embedder, err := buildModels(cfg)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	logger.InfoContext(ctx, "model clients ready", "provider", cfg.LLM.Provider, "vector_size", cfg.VectorSize)

	docs, index, err := s.buildStorage(ctx, cfg)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	blobs, err := s.buildBlobs(ctx, cfg)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}

	pipeline := indexer.NewPipeline(
		blobs,
		docs,
		index,
		embedder,
		indexer.NewPDFExtractor(),
		indexer.NewDateExtractor(completer, cfg.LLM.Timeout),
	)

	engine := rag.NewEngine(completer, embedder, index, blobs, rag.Options{
		ContextBudget: cfg.Retrieval.ContextBudget,
		Oversample:    cfg.Retrieval.Oversample,
		MaxTopK:       cfg.Retrieval.MaxTopK,
		LLMTimeout:    cfg.LLM.Timeout,
		DepthTimeout:  cfg.LLM.DepthTimeout,
	})

	s.Chat = service.NewChatService(engine)
	s.Documents = service.NewDocumentService(pipeline, docs, blobs, cfg.MaxUploadMB<<20, nil)

	logger.InfoContext(ctx, "services initialized",
		"store_backend", cfg.StoreBackend,
		"blob_backend", cfg.Blob.Backend,
	)
	return s, nil
}

// Close releases every backend connection in reverse order of creation.
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	if s.tracer != nil {
		if err := s.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down tracing: %w", err))
		}
		s.tracer = nil
	}
	return errors.Join(errs...)
}

// buildModels returns the chat and embedding clients for the configured provider.
func buildModels(cfg *config.Config) (llm.Completer, llm.Embedder, error) {
	retryOpts := cfg.LLM.Retry.ToRetryOptions()

	switch cfg.LLM.Provider {
	case "azure":
		client, err := llm.NewAzureClient(llm.AzureConfig{
			Endpoint:            cfg.Azure.Endpoint,
			APIKey:              cfg.Azure.APIKey,
			APIVersion:          cfg.Azure.APIVersion,
			ChatDeployment:      cfg.Azure.Deployment,
			EmbeddingDeployment: cfg.Azure.EmbeddingDeployment,
			ExpectedSize:        cfg.VectorSize,
		}, retryOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create azure client: %w", err)
		}
		return client, client, nil
	case "openai":
		completer := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, retryOpts...)
		embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLM.APIKey, cfg.EmbeddingModelName, cfg.VectorSize, retryOpts...)
		return completer, embedder, nil
	default:
		return nil, nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
}

// buildStorage opens the document store and chunk index for the configured backend.
func (s *Services) buildStorage(ctx context.Context, cfg *config.Config) (storage.DocumentStore, chunkIndex, error) {
	logger := contextutil.LoggerFromContext(ctx)

	switch cfg.StoreBackend {
	case "postgres":
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		s.closers = append(s.closers, func() error {
			store.Close()
			return nil
		})
		s.HealthChecks = append(s.HealthChecks, handlers.HealthCheck{Name: "database", Check: store.Ping})
		logger.InfoContext(ctx, "postgres store ready")
		return store, store, nil

	case "sqlite":
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		if err := storage.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.InfoContext(ctx, "database initialized", "path", cfg.DBPath)

		vectors, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create qdrant client: %w", err)
		}
		s.closers = append(s.closers, vectors.Close)
		if err := vectors.EnsureCollection(ctx, cfg.QdrantCollection, cfg.VectorSize); err != nil {
			return nil, nil, fmt.Errorf("failed to ensure qdrant collection: %w", err)
		}
		logger.InfoContext(ctx, "qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)

		s.HealthChecks = append(s.HealthChecks,
			handlers.PingCheck("database", db),
			handlers.VectorStoreCheck(vectors, cfg.QdrantCollection),
		)
		index := storage.NewLocalIndex(storage.NewChunkRepo(db), vectors, cfg.QdrantCollection)
		return storage.NewDocumentRepo(db), index, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// buildBlobs opens the file store. Disk stores also expose a file handler.
func (s *Services) buildBlobs(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	switch cfg.Blob.Backend {
	case "s3":
		store, err := blob.NewS3Store(ctx, cfg.Blob.S3Bucket, cfg.Blob.AWSRegion, cfg.Blob.PresignTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "s3 blob store ready", "bucket", cfg.Blob.S3Bucket, "region", cfg.Blob.AWSRegion)
		return store, nil
	case "disk":
		store, err := blob.NewDiskStore(cfg.Blob.Dir, cfg.Blob.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		s.Files = store.Handler()
		contextutil.LoggerFromContext(ctx).InfoContext(ctx, "disk blob store ready", "dir", cfg.Blob.Dir)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
}
