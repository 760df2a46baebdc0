package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	myPostgresRepo "github.com/filevault/auth-service/internal/adapters/db/postgres"
	myRedisRepo "github.com/filevault/auth-service/internal/adapters/db/redis"
	httpapi "github.com/filevault/auth-service/internal/adapters/transport/http"
	httpmw "github.com/filevault/auth-service/internal/adapters/transport/http/middleware"
	"github.com/filevault/auth-service/internal/app/auth/identity"
	"github.com/filevault/auth-service/internal/app/auth/password"
	appsvc "github.com/filevault/auth-service/internal/app/auth/service"
	apptoken "github.com/filevault/auth-service/internal/app/auth/token"
	"github.com/filevault/auth-service/internal/domain/auth/repo"
	"github.com/filevault/auth-service/internal/infra/config"
	lg "github.com/filevault/auth-service/internal/infra/log"
	"github.com/filevault/auth-service/internal/infra/migrate"
	"golang.org/x/sync/errgroup"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	var sessions repo.SessionRepo
	switch cfg.SessionStore {
	case config.StoreRedis:
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		sessions = myRedisRepo.NewRedisSessionRepo(redisCli)
	default:
		sessions = myPostgresRepo.NewPostgresSessionRepo(db)
	}
	users := myPostgresRepo.NewPostgresUserRepo(db)

	validate := validator.New()
	_ = validate.RegisterValidation(appsvc.IdentifierRule, func(fl validator.FieldLevel) bool {
		return identity.Valid(fl.Field().String())
	})

	hasher, err := password.NewHasher(cfg.BcryptCost)
	if err != nil {
		zapLog.Fatal("failed to init password hasher", zap.Error(err))
	}
	codec, err := apptoken.NewJWTCodec(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}

	svc := appsvc.New(users, sessions, hasher, codec, validate)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestLogger(zapLog))

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: cfg.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}))
	}

	httpapi.NewHandler(svc, zapLog).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	rootCtx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(ctxShutdown)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
