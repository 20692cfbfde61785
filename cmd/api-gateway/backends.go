package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wisdomwork-api/internal/models"
	"github.com/noah-isme/wisdomwork-api/internal/repository"
	"github.com/noah-isme/wisdomwork-api/internal/service"
	"github.com/noah-isme/wisdomwork-api/pkg/cache"
	"github.com/noah-isme/wisdomwork-api/pkg/config"
	"github.com/noah-isme/wisdomwork-api/pkg/database"
	"github.com/noah-isme/wisdomwork-api/pkg/storage"
)

// cleanup releases a backend connection on shutdown.
type cleanup func()

type tokenDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

func openDocumentStore(ctx context.Context, cfg *config.Config, metrics *service.MetricsService) (repository.DocumentStore, cleanup, error) {
	switch cfg.DocStore.Driver {
	case config.DocStoreBolt:
		db, err := database.NewBolt(cfg.DocStore.BoltPath, models.Collections()...)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewBoltDocumentStore(db, metrics), func() { _ = db.Close() }, nil
	case config.DocStorePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repository.NewPostgresDocumentStore(db, metrics), func() { _ = db.Close() }, nil
	case config.DocStoreMongo:
		client, db, err := database.NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		store := repository.NewMongoDocumentStore(db, metrics)
		if err := store.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return store, closeFn, nil
	}
	return nil, nil, fmt.Errorf("unknown DOCSTORE_DRIVER %q", cfg.DocStore.Driver)
}

// blobBackend is the configured blob store plus the local store when media is served by this process.
type blobBackend struct {
	store storage.BlobStore
	local *storage.LocalBlobStore
}

func openBlobStore(ctx context.Context, cfg *config.Config) (blobBackend, error) {
	switch cfg.Blob.Driver {
	case config.BlobStoreLocal:
		files, err := storage.NewLocalStorage(cfg.Blob.LocalDir)
		if err != nil {
			return blobBackend{}, err
		}
		signer := storage.NewSignedURLSigner(cfg.Blob.SignedURLSecret, cfg.Blob.SignedURLTTL)
		local := storage.NewLocalBlobStore(files, signer, cfg.PublicBaseURL+cfg.APIPrefix)
		return blobBackend{store: local, local: local}, nil
	case config.BlobStoreMinio:
		store, err := storage.NewMinioStore(ctx, cfg.Blob.Minio)
		if err != nil {
			return blobBackend{}, err
		}
		return blobBackend{store: store}, nil
	case config.BlobStoreB2:
		store, err := storage.NewB2Store(ctx, cfg.Blob.B2)
		if err != nil {
			return blobBackend{}, err
		}
		return blobBackend{store: store}, nil
	}
	return blobBackend{}, fmt.Errorf("unknown BLOBSTORE_DRIVER %q", cfg.Blob.Driver)
}

// openRedisBackends returns the list cache and the token denylist. Without redis the
// cache stays off and revoked tokens are tracked in memory.
func openRedisBackends(cfg *config.Config, store repository.DocumentStore, metrics *service.MetricsService, logger *zap.Logger) (repository.DocumentStore, tokenDenylist, cleanup) {
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory token denylist", zap.Error(err))
		return store, repository.NewMemoryTokenDenylist(), func() {}
	}

	denylist := repository.NewRedisTokenDenylist(client)
	if cfg.Cache.Enabled {
		cacheRepo := repository.NewCacheRepository(client, "wisdomwork")
		cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logger, true)
		store = repository.NewCachedDocumentStore(store, cacheSvc, cfg.Cache.TTL, logger)
	}
	return store, denylist, func() { _ = client.Close() }
}
