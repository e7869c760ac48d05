package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"insurance-service/internal/config"
	"insurance-service/internal/database/postgres"
	"insurance-service/internal/event"
	"insurance-service/internal/handlers"
	"insurance-service/internal/repository"
	"insurance-service/internal/services"

	"github.com/gin-gonic/gin"
)

func setupLogging() (*os.File, error) {
	logDir := getEnvOrDefault("LOG_DIR", filepath.Join("log", "insurance_service"))
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Error setting up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()
	log.Printf("Connecting to PostgreSQL with: host=%s, port=%s, user=%s, dbname=%s",
		cfg.PostgresCfg.Host, cfg.PostgresCfg.Port, cfg.PostgresCfg.Username, cfg.PostgresCfg.DBname)

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Fatalf("Error connecting to RabbitMQ: %v", err)
	}
	auditPublisher, err := event.NewAuditPublisher(rabbitConn, cfg.AuditCfg.Queue)
	if err != nil {
		log.Fatalf("Error setting up audit publisher: %v", err)
	}
	auditLogger := event.NewBatchLogger(auditPublisher, cfg.AuditCfg.BatchSize)

	r := gin.Default()

	// repositories
	tariffRepository := repository.NewTariffRepository(db)
	insuranceCostRepository := repository.NewInsuranceCostRepository(db)

	// services
	insuranceService := services.NewInsuranceService(tariffRepository, insuranceCostRepository)

	// handlers
	tariffHandler := handlers.NewTariffHandler(insuranceService, auditLogger)
	tariffHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Starting insurance-service on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Drain the audit buffer before the process exits so below-threshold
	// events still reach the stream.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down insurance-service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if err := auditLogger.Drain(shutdownCtx); err != nil {
		log.Printf("audit drain: %v", err)
	}
	log.Println("insurance-service stopped")
}
