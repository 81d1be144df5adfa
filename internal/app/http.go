package app

import (
	"context"

	"connectid-service/internal/config"
	"connectid-service/internal/identity/provider"
	"connectid-service/internal/identity/provider/connectid"
	"connectid-service/internal/idserver"
	"connectid-service/internal/optout"
	"connectid-service/internal/payload"
	"connectid-service/internal/transport"

	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	payloadStore := payload.NewPostgresStore(infra.DB)
	optOutStore := optout.NewRedisStore(infra.Redis.Client)

	httpClient, err := transport.New()
	if err != nil {
		return nil, nil, err
	}

	connectIDProvider := connectid.New(optOutStore, httpClient)
	if cfg.ConnectIDEndpoint != "" {
		connectIDProvider = connectIDProvider.WithEndpointTemplate(cfg.ConnectIDEndpoint)
	}

	registry := provider.NewRegistry(
		connectIDProvider,
	)

	idHandler := idserver.NewHandler(
		registry,
		payloadStore,
		optOutStore,
		connectid.ProviderName,
	)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	idHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
