package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fracto-health/fracto/libs/config"
	"github.com/fracto-health/fracto/libs/db"
	"github.com/fracto-health/fracto/libs/httpx"
	"github.com/fracto-health/fracto/libs/kafkax"
	otelx "github.com/fracto-health/fracto/libs/otel"
	"github.com/fracto-health/fracto/libs/runtime"
	"github.com/fracto-health/fracto/services/api-service/internal/handlers"
	"github.com/fracto-health/fracto/services/api-service/internal/model"
	"github.com/fracto-health/fracto/services/api-service/internal/notify"
	"github.com/fracto-health/fracto/services/api-service/internal/outbox"
	"github.com/fracto-health/fracto/services/api-service/internal/slots"
	"github.com/fracto-health/fracto/services/api-service/internal/storage"
	"github.com/fracto-health/fracto/services/api-service/internal/ws"
)

func main() {
	service := config.String("SERVICE_NAME", "api-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		logger.Error("schema bootstrap failed", "err", err)
		panic(err)
	}

	users := storage.NewUserRepository(pool)
	specs := storage.NewSpecializationRepository(pool)
	doctors := storage.NewDoctorRepository(pool)
	appts := storage.NewAppointmentRepository(pool)
	ratings := storage.NewRatingRepository(pool)
	notifs := storage.NewNotificationRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	hub := ws.NewHub(logger)
	dispatcher := notify.NewDispatcher(notifs, hub, logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	calendar := slots.NewCalendar(intEnv("SLOT_DAY_START", 9), intEnv("SLOT_DAY_END", 17))
	adminCode := config.String("ADMIN_INVITATION_CODE", "")

	authHandler := handlers.NewAuthHandler(users, logger, jwtSecret, adminCode)
	userHandler := handlers.NewUserHandler(users, logger, adminCode)
	specHandler := handlers.NewSpecializationHandler(specs, logger)
	doctorHandler := handlers.NewDoctorHandler(doctors, specs, logger)
	apptHandler := handlers.NewAppointmentHandler(appts, doctors, outboxRepo, calendar, dispatcher, logger)
	ratingHandler := handlers.NewRatingHandler(ratings, doctors, outboxRepo, logger)
	notifHandler := handlers.NewNotificationHandler(notifs, logger)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if strings.TrimSpace(kafkaBrokers) != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)

	// Authorization is declared here, once per route. Ownership checks
	// (cancel, mark read) live in the handlers with the claims.
	authed := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, httpx.RequireAuth(jwtSecret))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, httpx.RequireAuth(jwtSecret), httpx.RequireRole(model.RoleAdmin))
	}

	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)

	mux.HandleFunc("GET /doctor", doctorHandler.List)
	mux.HandleFunc("GET /doctor/search", doctorHandler.Search)
	mux.HandleFunc("GET /doctor/{id}", doctorHandler.Get)
	mux.Handle("POST /doctor", admin(doctorHandler.Create))
	mux.Handle("PUT /doctor/{id}", admin(doctorHandler.Update))
	mux.Handle("DELETE /doctor/{id}", admin(doctorHandler.Delete))

	mux.HandleFunc("GET /specialization", specHandler.List)
	mux.HandleFunc("GET /specialization/{id}", specHandler.Get)
	mux.Handle("POST /specialization", admin(specHandler.Create))
	mux.Handle("PUT /specialization/{id}", admin(specHandler.Update))
	mux.Handle("DELETE /specialization/{id}", admin(specHandler.Delete))

	mux.HandleFunc("GET /appointment/doctor/{doctorId}/date/{date}", apptHandler.Slots)
	mux.Handle("POST /appointment/book", authed(apptHandler.Book))
	mux.Handle("GET /appointment/user", authed(apptHandler.ListMine))
	mux.Handle("PUT /appointment/cancel/{id}", authed(apptHandler.Cancel))
	mux.Handle("GET /appointment/admin/all", admin(apptHandler.ListAll))
	mux.Handle("PUT /appointment/admin/approve/{id}", admin(apptHandler.AdminApprove))
	mux.Handle("PUT /appointment/admin/cancel/{id}", admin(apptHandler.AdminCancel))
	mux.Handle("PUT /appointment/admin/reject/{id}", admin(apptHandler.AdminReject))

	mux.Handle("POST /rating", authed(ratingHandler.Submit))

	mux.Handle("GET /notification/user", authed(notifHandler.ListMine))
	mux.Handle("PUT /notification/read/{id}", authed(notifHandler.MarkRead))
	mux.Handle("GET /ws", authed(hub.ServeHTTP))

	mux.Handle("GET /user", admin(userHandler.List))
	mux.Handle("GET /user/{id}", admin(userHandler.Get))
	mux.Handle("POST /user", admin(userHandler.Create))
	mux.Handle("PUT /user/{id}", admin(userHandler.Update))
	mux.Handle("DELETE /user/{id}", admin(userHandler.Delete))

	bodyLimit := int64(intEnv("REQUEST_BODY_LIMIT_BYTES", 1<<20))
	limitPerMinute := intEnv("RATE_LIMIT_PER_MINUTE", 60)

	var rateLimitMW httpx.Middleware
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       intEnv("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, isTruthy(config.String("RATE_LIMIT_FAIL_OPEN", "true")))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	// No httpx.WithTimeout here: http.TimeoutHandler buffers responses,
	// which breaks the websocket upgrade on /ws.
	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id")),
			AllowCredentials: isTruthy(config.String("CORS_ALLOW_CREDENTIALS", "false")),
			MaxAge:           time.Duration(intEnv("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(bodyLimit),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "api")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func isTruthy(s string) bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func intEnv(key string, fallback int) int {
	if v, err := strconv.Atoi(config.String(key, "")); err == nil {
		return v
	}
	return fallback
}
