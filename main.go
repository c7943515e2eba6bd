package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ssd-geocoder/app/config"
	"github.com/ssd-geocoder/app/controllers"
	"github.com/ssd-geocoder/app/services"
	"github.com/ssd-geocoder/internal/external"
	"github.com/ssd-geocoder/internal/geocoder"
	"github.com/ssd-geocoder/internal/search"
	"github.com/ssd-geocoder/internal/spatial"
	"github.com/ssd-geocoder/routes"
)

func main() {
	// .env first, then config file, then real env vars on top.
	_ = godotenv.Load()
	loadConfig()

	if err := config.Load(viper.GetString("resolver.config_path")); err != nil {
		log.Printf("warning: using default resolver config: %v", err)
	}

	logger := initLogger()
	defer logger.Sync()

	env := viper.GetString("app.env")
	logger.Info("starting geocoder service", zap.String("env", env))

	mongoDB := initMongoDB(logger)
	defer func() {
		if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect failed", zap.Error(err))
		}
	}()

	featureStore := search.NewFeatureStore(mongoDB, logger)
	if err := featureStore.EnsureIndexes(context.Background()); err != nil {
		logger.Warn("could not ensure feature store indexes", zap.Error(err))
	}

	index, seeder := initSearchIndex(featureStore, logger)

	resolver := spatial.NewHierarchyResolver(featureStore, logger)
	go resolver.Warm(context.Background())

	cacheService := initCache(mongoDB, logger)
	defer cacheService.Close()

	extractor := initExtractor(logger)

	gc := geocoder.New(index, resolver, cacheService, extractor, logger)

	reviewService := services.NewReviewService(mongoDB, config.C.Thresholds.MediumHigh, logger)
	geocodeService := services.NewGeocodeService(gc, resolver, reviewService, logger)
	adminService := services.NewAdminService(mongoDB, featureStore, seeder, resolver, cacheService, logger)

	geocodeController := controllers.NewGeocodeController(geocodeService, cacheService, logger)
	adminController := controllers.NewAdminController(adminService, reviewService, geocodeService, env, logger)

	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, geocodeController, adminController)

	port := viper.GetString("app.port")
	logger.Info("geocoder service listening", zap.String("port", port))
	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// loadConfig reads app.yaml plus environment overrides.
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017/ssd_geocoder")
	viper.SetDefault("mongo.database", "ssd_geocoder")
	viper.SetDefault("redis.url", "redis://localhost:6379")
	viper.SetDefault("search.backend", "memory") // memory | meili
	viper.SetDefault("meilisearch.url", "http://localhost:7700")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("cache.backend", "memory") // memory | hybrid
	viper.SetDefault("cache.l1_size", 10000)
	viper.SetDefault("extractor.url", "")
	viper.SetDefault("extractor.timeout_ms", 800)
	viper.SetDefault("resolver.config_path", "config/resolver.yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("warning: cannot read config file: %v", err)
	}
}

func initLogger() *zap.Logger {
	var cfg zap.Config
	if viper.GetString("app.env") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("cannot initialize logger:", err)
	}
	return logger
}

func initMongoDB(logger *zap.Logger) *mongo.Database {
	mongoURL := viper.GetString("mongo.url")

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Fatal("mongodb connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("mongodb unreachable", zap.Error(err))
	}

	dbName := viper.GetString("mongo.database")
	logger.Info("connected to mongodb", zap.String("database", dbName))
	return client.Database(dbName)
}

// initSearchIndex picks the search backend. Meilisearch carries a seeder for
// the admin index-build endpoints; the in-memory index loads the stored
// gazetteer once at startup and needs none.
func initSearchIndex(store *search.FeatureStore, logger *zap.Logger) (search.FeatureIndex, services.SearchSeeder) {
	switch viper.GetString("search.backend") {
	case "meili":
		cfg := search.MeiliConfig{
			Host:   viper.GetString("meilisearch.url"),
			APIKey: viper.GetString("meilisearch.master_key"),
		}
		ix, err := search.NewMeiliIndex(cfg, store, logger)
		if err != nil {
			logger.Fatal("meilisearch init failed", zap.Error(err))
		}
		logger.Info("search backend: meilisearch", zap.String("host", cfg.Host))
		return ix, ix
	default:
		ix := search.NewMemoryIndex()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := ix.LoadFrom(ctx, store); err != nil {
			logger.Warn("memory index load failed, starting empty", zap.Error(err))
		}
		logger.Info("search backend: memory", zap.Int("features", ix.Len()))
		return ix, nil
	}
}

func initCache(db *mongo.Database, logger *zap.Logger) services.ResultCache {
	ttl := time.Duration(config.C.Cache.TTLHours) * time.Hour

	switch viper.GetString("cache.backend") {
	case "hybrid":
		redisCache, err := services.NewRedisCacheService(viper.GetString("redis.url"), logger)
		if err != nil {
			logger.Fatal("redis cache init failed", zap.Error(err))
		}
		redisCache.SetTTL(ttl)

		l1Size := viper.GetInt("cache.l1_size")
		mongoCache, err := services.NewMongoCacheService(db, l1Size, logger)
		if err != nil {
			logger.Fatal("mongo cache init failed", zap.Error(err))
		}
		if err := mongoCache.WarmUp(context.Background(), l1Size/2); err != nil {
			logger.Warn("cache warmup failed", zap.Error(err))
		}

		logger.Info("result cache: redis + mongo hybrid")
		return services.NewHybridCacheService(redisCache, mongoCache, logger)
	default:
		logger.Info("result cache: in-process memory", zap.Duration("ttl", ttl))
		return services.NewMemoryCacheService(ttl)
	}
}

// initExtractor wires the optional candidate extractor. Order of preference:
// configured HTTP endpoint, local libpostal when built with cgo, disabled.
func initExtractor(logger *zap.Logger) external.CandidateExtractor {
	if !config.C.UseExtractor {
		return external.Disabled{}
	}

	if url := viper.GetString("extractor.url"); url != "" {
		timeout := time.Duration(viper.GetInt("extractor.timeout_ms")) * time.Millisecond
		logger.Info("candidate extractor: http", zap.String("url", url))
		return external.NewHTTPExtractor(url, timeout, logger)
	}

	if x, err := external.NewLibpostalExtractor(logger); err == nil {
		logger.Info("candidate extractor: libpostal")
		return x
	} else {
		logger.Info("candidate extractor disabled", zap.Error(err))
	}
	return external.Disabled{}
}
