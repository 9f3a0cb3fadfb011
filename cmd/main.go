package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"collector-engine/internal/clients"
	"collector-engine/internal/config"
	"collector-engine/internal/repository"
	"collector-engine/internal/service"
	"collector-engine/internal/transport/auth"
	"collector-engine/internal/transport/rest"
	"collector-engine/internal/transport/websocket"
	"collector-engine/pkg/database/postgres"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}

	// top-level context which we can cancel on shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.Load()

	db := mustInitPostgres(cfg.Postgres)
	defer postgres.Close(db)

	redisClient := mustInitRedis(cfg.Redis)
	defer redisClient.Close()

	storageClient, err := clients.NewLocalStorage(cfg.ReportDir, cfg.FilesPublicPrefix, cfg.ExternalURL)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}

	var s3Client *clients.S3Client
	if cfg.S3.Enabled {
		s3Client, err = clients.NewS3Client(ctx, clients.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Bucket:          cfg.S3.Bucket,
			UseSSL:          cfg.S3.UseSSL,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
		})
		if err != nil {
			log.Fatalf("s3 init error: %v", err)
		}
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	wsClient := clients.NewWebSocketClient(wsHub)

	ruleRepo := repository.NewRuleRepository(db)
	debtRepo := repository.NewDebtRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	actionRepo := repository.NewActionRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	tokenRepo := repository.NewPersonalAccessTokenRepository(db)

	senders := service.Senders{
		Email:    clients.NewHTTPSender(clients.SenderConfig{URL: cfg.Email.URL, Token: cfg.Email.Token, Channel: "email"}),
		SMS:      clients.NewHTTPSender(clients.SenderConfig{URL: cfg.SMS.URL, Token: cfg.SMS.Token, Channel: "sms"}),
		WhatsApp: clients.NewHTTPSender(clients.SenderConfig{URL: cfg.WhatsApp.URL, Token: cfg.WhatsApp.Token, Channel: "whatsapp"}),
	}

	engine := service.NewEngine(
		ruleRepo,
		debtRepo,
		executionRepo,
		actionRepo,
		taskRepo,
		senders,
		redisClient,
		wsClient,
		storageClient,
		s3Client,
		service.Options{StepTimeout: cfg.Engine.StepTimeout},
	)

	tokenMiddleware := auth.TokenMiddleware(tokenRepo)

	handler := rest.NewHandler(engine)
	router := handler.InitRouterWithAuth(tokenMiddleware)

	// public root router; /files and /health stay open while /engine routes
	// remain behind token auth
	root := chi.NewRouter()

	root.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public: serve generated run reports
	root.Get("/files/{file}", func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		path := filepath.Join(storageClient.BaseDir, file)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to access file", http.StatusInternalServerError)
			return
		}

		// prefer original filename in Content-Disposition (strip random prefix)
		orig := file
		if idx := strings.IndexByte(file, '_'); idx >= 0 {
			orig = file[idx+1:]
		}
		w.Header().Set("Content-Disposition", "attachment; filename=\""+orig+"\"")

		http.ServeFile(w, r, path)
	})

	// protected websocket endpoint for run progress
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		userID, err := auth.GetUserID(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		log.Printf("WS connected: user_id=%d", userID)
		wsHub.HandleWebSocket(w, r, userID)
	})

	root.Mount("/", router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Printf("HTTP server listening on :%s\n", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srvErr <- err
			return
		}
		srvErr <- nil
	}()

	// background cleaner for old report files
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := storageClient.CleanupOlderThan(48 * time.Hour); err != nil {
					log.Printf("storage cleanup error: %v", err)
				}
			}
		}
	}()

	// in-process daily trigger; external cron hitting POST /engine/run is the
	// primary scheduler, this is the fallback when none is configured
	if cfg.Engine.ScheduleEnabled {
		go runDaily(ctx, engine, cfg.Engine.RunHour)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-srvErr:
		if err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	case sig := <-stop:
		log.Printf("Shutdown signal received: %v", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown error: %v", err)
		}

		cancel()

		postgres.Close(db)
		redisClient.Close()

		log.Println("Shutdown complete")
	}
}

// runDaily fires an engine run once per day at the configured local hour. The
// redis run lock inside StartRun keeps it from colliding with cron triggers.
func runDaily(ctx context.Context, engine *service.Engine, hour int) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		runID, err := engine.StartRun(ctx, 0)
		if err != nil {
			if err == service.ErrRunInProgress {
				log.Println("[SCHEDULER] skipping daily run, another run in progress")
				continue
			}
			log.Printf("[SCHEDULER] daily run failed to start: %v", err)
			continue
		}
		log.Printf("[SCHEDULER] daily run started: %s", runID)
	}
}

func mustInitPostgres(cfg config.PostgresConfig) *sql.DB {
	db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.User,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Password: cfg.Password,
	})
	if err != nil {
		log.Fatalf("postgres init error: %v", err)
	}
	return db
}

func mustInitRedis(cfg config.RedisConfig) *clients.RedisClient {
	client, err := clients.NewRedisClient(clients.RedisConfig{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: time.Duration(cfg.DialTimeout) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		Prefix:      cfg.Prefix,
	})
	if err != nil {
		log.Fatalf("redis init error: %v", err)
	}
	return client
}
