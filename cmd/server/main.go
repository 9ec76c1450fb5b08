package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-eyewear-service/config"
	"github.com/fekuna/omnipos-eyewear-service/internal/auth"
	"github.com/fekuna/omnipos-eyewear-service/internal/httpx"
	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/internal/rpc"
	"github.com/fekuna/omnipos-eyewear-service/pkg/broker"
	"github.com/fekuna/omnipos-eyewear-service/pkg/cache"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/fekuna/omnipos-eyewear-service/pkg/postgres"
	"github.com/fekuna/omnipos-eyewear-service/pkg/search"

	invH "github.com/fekuna/omnipos-eyewear-service/internal/inventory/handler"
	invListenerPkg "github.com/fekuna/omnipos-eyewear-service/internal/inventory/listener"
	invRepoPkg "github.com/fekuna/omnipos-eyewear-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-eyewear-service/internal/inventory/usecase"

	mediaPkg "github.com/fekuna/omnipos-eyewear-service/internal/media"
	mediaH "github.com/fekuna/omnipos-eyewear-service/internal/media/handler"

	valH "github.com/fekuna/omnipos-eyewear-service/internal/miscvalue/handler"
	valRepoPkg "github.com/fekuna/omnipos-eyewear-service/internal/miscvalue/repository"
	valUCPkg "github.com/fekuna/omnipos-eyewear-service/internal/miscvalue/usecase"

	prodH "github.com/fekuna/omnipos-eyewear-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-eyewear-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-eyewear-service/internal/product/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	valRepo := valRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 6. Initialize Elasticsearch. The catalog falls back to SQL without it.
	var searchIndex product.SearchIndex
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("could not connect to Elasticsearch, search uses SQL", zap.Error(err))
		} else {
			searchIndex = esClient
			appLogger.Info("connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Initialize media transport
	var mediaSvc *mediaPkg.Service
	if cfg.Cloudinary.URL != "" {
		transport, err := mediaPkg.NewCloudinaryTransport(cfg.Cloudinary.URL)
		if err != nil {
			appLogger.Fatal("invalid cloudinary url", zap.Error(err))
		}
		mediaSvc = mediaPkg.NewService(transport, cfg.Cloudinary.Folder, cfg.Cloudinary.MaxUploadBytes, appLogger)
	} else {
		appLogger.Warn("CLOUDINARY_URL not set, image upload disabled")
	}

	// 8. Initialize UseCases
	valUC := valUCPkg.NewValueUseCase(valRepo, redisClient, time.Duration(cfg.Cache.ValueTTL)*time.Second, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(
		prodRepo,
		valUC,
		redisClient,
		searchIndex,
		time.Duration(cfg.Cache.ProductTTL)*time.Second,
		appLogger,
	)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, redisClient, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Start Listener
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("kafka consumer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		invListener := invListenerPkg.NewInventoryListener(kafkaConsumer, invUC, appLogger)
		go invListener.Start(ctx)
	}

	// 10. gRPC Server
	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.UnaryServerInterceptor()),
	)
	grpcServer.RegisterService(&rpc.CatalogServiceDesc, prodH.NewProductHandler(prodUC, appLogger))
	grpcServer.RegisterService(&rpc.ValueRegistryServiceDesc, valH.NewValueHandler(valUC, appLogger))
	grpcServer.RegisterService(&rpc.InventoryServiceDesc, invH.NewInventoryHandler(invUC, appLogger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", normalizePort(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		appLogger.Info("starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()

	// 11. HTTP Server for the web console
	router := gin.New()
	router.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(appLogger), auth.Middleware())
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	prodH.NewHTTPHandler(prodUC, appLogger).RegisterRoutes(api)
	valH.NewHTTPHandler(valUC, appLogger).RegisterRoutes(api)
	if mediaSvc != nil {
		mediaH.NewHTTPHandler(mediaSvc, appLogger).RegisterRoutes(api)
	}

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server...")
	cancel()
	healthServer.Shutdown()

	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("server stopped")
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
