package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"fms-project/backend/tasks-service/cache"
	"fms-project/backend/tasks-service/handlers"
	"fms-project/backend/tasks-service/logging"
	"fms-project/backend/tasks-service/repositories"
	"fms-project/backend/tasks-service/services"

	http_client "fms-project/backend/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Role")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Tasks Service...")
	err := godotenv.Load(".env")
	if err != nil {
		logging.Logger.Fatalf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tasksClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer tasksClient.Disconnect(ctx)

	if err := tasksClient.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	tasksCollection := tasksClient.Database(mongoDBName).Collection("tasks")
	countersCollection := tasksClient.Database(mongoDBName).Collection("counters")
	outboxCollection := tasksClient.Database(mongoDBName).Collection("outbox")

	rdb := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_URI")})
	taskCache := cache.NewTaskCache(rdb, 30*time.Second)

	httpClient := http_client.NewHTTPClient()

	projectsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ProjectsServiceCB",
		MaxRequests: 1,
		Timeout:     2 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "NotificationsServiceCB",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' state changed from %s to %s", name, from.String(), to.String())
		},
	})

	projectsClient := services.NewHTTPProjectsClient(os.Getenv("PROJECTS_SERVICE_URL"), httpClient, projectsBreaker)
	notificationsClient := services.NewHTTPNotificationsClient(os.Getenv("NOTIFICATIONS_SERVICE_URL"), httpClient, notificationsBreaker)

	taskRepo := repositories.NewMongoTaskRepository(tasksCollection, countersCollection)
	outboxRepo := repositories.NewMongoOutboxRepository(outboxCollection)

	taskService := services.NewTaskService(taskRepo, outboxRepo, projectsClient, taskCache)
	taskHandler := handlers.NewTaskHandler(taskService)

	dispatcher := services.NewOutboxDispatcher(outboxRepo, projectsClient, notificationsClient, 5*time.Second)
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	go dispatcher.Run(dispatcherCtx)

	r := mux.NewRouter()

	r.HandleFunc("/api/tasks/create", taskHandler.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/all", taskHandler.ListTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.GetTask).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{taskID}/complete", taskHandler.CompleteTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}/revision", taskHandler.RequestRevision).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}/resume", taskHandler.Resume).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}/release-hold", taskHandler.ReleaseHold).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}/in-progress", taskHandler.MarkInProgress).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}/checklist/{index}", taskHandler.UpdateChecklistItem).Methods(http.MethodPatch)
	r.HandleFunc("/api/tasks/{taskID}/attachments", taskHandler.AddAttachment).Methods(http.MethodPost)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Tasks service is running"))
	}).Methods(http.MethodGet)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	srv := &http.Server{
		Handler:      corsRouter,
		Addr:         serverAddress,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
