package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"StudyMind/internal/api"
	"StudyMind/internal/config"
	"StudyMind/internal/dal"
	kafkadb "StudyMind/internal/database/kafka"
	miniodb "StudyMind/internal/database/minio"
	mongodb "StudyMind/internal/database/mongo"
	mysqldb "StudyMind/internal/database/mysql"
	"StudyMind/internal/embedding"
	"StudyMind/internal/events"
	"StudyMind/internal/llm"
	"StudyMind/internal/rag/chunker"
	"StudyMind/internal/rag/extractor"
	"StudyMind/internal/rag/pipeline"
	"StudyMind/internal/rag/quiz"
	"StudyMind/internal/rag/retriever"
	"StudyMind/internal/rag/storages/vectorstore"
	"StudyMind/internal/service"
	"StudyMind/pkg/logger"
)

func main() {
	logger.Init(logrus.InfoLevel)
	appLogger := logger.New("StudyMind")
	appLogger.Info("Starting StudyMind service...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger.Info("Configuration loaded successfully.")

	ctx := context.Background()
	policy := cfg.Retry.Policy()

	mongoClient, err := mongodb.NewClient(ctx, &cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Close(context.Background())

	embedder, err := embedding.NewGoogleModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, policy)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	gemini, err := llm.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.ChatModel, cfg.Gemini.AudioModel, policy)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}

	store, err := vectorstore.NewMongoStore(mongoClient, cfg.Mongo.Collection, cfg.Mongo.VectorIndex, embedder, policy, logger.New("vectorstore"))
	if err != nil {
		log.Fatalf("Failed to create corpus store: %v", err)
	}

	var folders *dal.FolderDAL
	if cfg.MySQL.Address != "" {
		db, err := mysqldb.NewDB(&cfg.MySQL)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer mysqldb.Close(db)
		folders, err = dal.NewFolderDAL(db)
		if err != nil {
			log.Fatalf("Failed to prepare folder tables: %v", err)
		}
	} else {
		appLogger.Warn("MySQL not configured, folder management disabled.")
	}

	var objects pipeline.ObjectStore
	if cfg.MinIO.Enabled {
		minioClient, err := miniodb.NewClient(ctx, &cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		objects = minioClient
	}

	var publisher *events.Publisher
	if cfg.Kafka.Enabled {
		writer, err := kafkadb.NewWriter(&cfg.Kafka)
		if err != nil {
			log.Fatalf("Failed to connect to Kafka: %v", err)
		}
		publisher = events.NewPublisher(writer, logger.New("events"))
		defer publisher.Close()
	}

	svc, err := service.New(service.Deps{
		Extractor: extractor.New(logger.New("extractor")),
		Ingestor: pipeline.NewIngestor(store, chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap),
			objects, publisher, logger.New("pipeline")),
		Retriever: retriever.New(store, cfg.Retrieval.MaxChunks, cfg.Retrieval.MaxChunksPerFile, cfg.Retrieval.PreviewLength, logger.New("retriever")),
		Quiz: quiz.New(store, gemini, quiz.Options{
			MaxContextChunks: cfg.Quiz.MaxContextChunks,
			MaxCharsPerFile:  cfg.Quiz.MaxCharsPerFile,
		}, logger.New("quiz")),
		LLM:     gemini,
		Audio:   gemini,
		Store:   store,
		Folders: folders,
		Log:     logger.New("service"),
	})
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	handler := api.NewHandler(svc, cfg.Server.MaxUploadBytes, logger.New("api"))
	router := api.SetupRouter(handler, cfg.Auth.JWTSecret)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info("HTTP server listening on " + cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithErr(err).Error("Forced shutdown")
	}
	appLogger.Info("Server stopped.")
}
