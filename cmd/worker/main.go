package main

import (
	"database/sql"
	"log"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	config "github.com/calebfds/postline/configs"
	"github.com/calebfds/postline/internal/platform"
	"github.com/calebfds/postline/internal/queue"
	"github.com/calebfds/postline/internal/repository"
	"github.com/calebfds/postline/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	publishAttemptRepo := repository.NewPublishAttemptRepository(db)

	credentials := service.NewCredentialProvider(socialAccountRepo, cfg.EncryptionKey)
	registry := platform.NewRegistry(*cfg)

	worker := queue.NewWorker(postRepo, publishAttemptRepo, credentials, registry, cfg.PublishTimeout)

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisURI},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				queue.PostQueue: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypePublishPost, worker.HandlePublishPostTask)

	// Run blocks until SIGTERM/SIGINT and drains in-flight jobs.
	log.Println("Starting the Asynq server...")
	if err := server.Run(mux); err != nil {
		log.Fatalf("Could not start Asynq server: %v", err)
	}
	log.Println("Worker shutdown complete.")
}
