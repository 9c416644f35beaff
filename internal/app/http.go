package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ndenisov/todoview/internal/cache"
	"github.com/ndenisov/todoview/internal/config"
	v1 "github.com/ndenisov/todoview/internal/delivery/http/v1"
	"github.com/ndenisov/todoview/internal/services"
	"github.com/ndenisov/todoview/internal/storage"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "Cookie"},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	cfg := config.Global()
	jwtCfg := cfg.JWT
	todosCfg := cfg.Todos

	userStore := storage.NewPostgresUserStore(globalLogger, globalPostgresPool)
	sessionStore := storage.NewPostgresSessionStore(globalLogger, globalPostgresPool)
	authService := services.NewAuthService(
		globalLogger,
		userStore,
		sessionStore,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
	sessionService := services.NewSessionService(globalLogger, sessionStore)

	todoStore := storage.NewPostgresTodoStore(globalLogger, globalPostgresPool)
	todoCache := cache.NewTodoCache(globalRedisClient, cfg.Redis.CacheTTL)
	limits := services.TodoLimits{
		DefaultPageSize:     todosCfg.DefaultPageSize,
		MaxPageSize:         todosCfg.MaxPageSize,
		DefaultDueSoonHours: todosCfg.DefaultDueSoonHours,
		MaxDueSoonHours:     todosCfg.MaxDueSoonHours,
	}
	todoService := services.NewTodoService(globalLogger, todoStore, todoCache, limits)

	v1Handler := v1.New(
		globalLogger,
		authService,
		sessionService,
		todoService,
		limits,
	)
	router = router.Group("/api/v1")

	authRouter := router.Group("/auth")
	authRouter.POST("/login", v1Handler.HandleLogin)
	authRouter.POST("/login/json", v1Handler.HandleLoginJSON)
	authRouter.POST("/refresh", v1Handler.HandleRefresh)
	authRouter.POST("/register", v1Handler.HandleRegister)
	authRouter.POST("/logout", v1Handler.HandleAuthMiddleware, v1Handler.HandleLogout)
	authRouter.GET("/me", v1Handler.HandleAuthMiddleware, v1Handler.HandleGetMe)
	authRouter.PUT("/me", v1Handler.HandleAuthMiddleware, v1Handler.HandleUpdateMe)
	authRouter.POST("/change-password", v1Handler.HandleAuthMiddleware, v1Handler.HandleChangePassword)

	todoRouter := router.Group("/todos", v1Handler.HandleAuthMiddleware)
	todoRouter.POST("", v1Handler.HandleCreateTodo)
	todoRouter.GET("", v1Handler.HandleGetTodos)
	todoRouter.GET("/stats/overview", v1Handler.HandleGetTodoStats)
	todoRouter.GET("/overdue", v1Handler.HandleGetOverdueTodos)
	todoRouter.GET("/due-soon", v1Handler.HandleGetTodosDueSoon)
	todoRouter.GET("/:id", v1Handler.HandleGetTodoByID)
	todoRouter.PUT("/:id", v1Handler.HandleUpdateTodo)
	todoRouter.DELETE("/:id", v1Handler.HandleDeleteTodo)
	todoRouter.POST("/:id/complete", v1Handler.HandleCompleteTodo)
	todoRouter.POST("/:id/pending", v1Handler.HandlePendingTodo)
}
