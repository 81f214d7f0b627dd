package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/mindwell-labs/mindwell/config"
	"github.com/mindwell-labs/mindwell/internal/runtime"
	"github.com/mindwell-labs/mindwell/internal/solve"
	"github.com/mindwell-labs/mindwell/internal/store"
)

// Run wires the whole backend and serves until the listener stops: config in,
// migrations applied, store/redis/orchestrator constructed, routes mounted.
func Run(cfg *appconfig.Config) error {
	e := newEcho()

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	if err := cfg.Storage.Postgres.Validate(); err != nil {
		return err
	}
	dsn := cfg.Storage.Postgres.DSN()
	if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
		log.Printf("[HTTP] migrate: %v (continuing, schema may already be current)", err)
	}

	ctx := context.Background()
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}

	var rdb *redis.Client
	if cfg.Storage.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
	}

	secret := cfg.General.JWTSecret
	if secret == "" {
		return fmt.Errorf("jwt secret not configured (general.jwt_secret)")
	}

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	orch := solve.NewOrchestrator(solve.Options{
		PromptInjectionPolicy: cfg.Safety.PromptInjectionPolicy,
	}, orchLogger, st)

	api := e.Group("/api")

	auth := &AuthHandler{Store: st, Secret: []byte(secret)}
	auth.Register(api.Group("/auth"))

	authMW := runtime.EchoAuthMiddleware([]byte(secret))

	me := api.Group("/me")
	me.Use(authMW)
	me.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"user_id": c.Get("user_id").(string)})
	})

	sh := &SessionsHandler{
		Store:   st,
		Orch:    orch,
		Limiter: NewRateLimiter(rdb, cfg.Safety.RateLimitPerMinute),
	}
	sh.Register(api.Group("/sessions"), authMW)

	addr := cfg.General.Listen
	if addr == "" {
		addr = ":8080"
	}
	if addr[0] != ':' {
		addr = ":" + addr
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho builds the echo instance with the shared middleware and the unified
// JSON error handler. Separated from Run so handler tests assemble the same
// surface without config or storage.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))
	return e
}
