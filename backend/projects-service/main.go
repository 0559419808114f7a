package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"fms-project/backend/projects-service/handlers"
	"fms-project/backend/projects-service/logging"
	"fms-project/backend/projects-service/repositories"
	"fms-project/backend/projects-service/services"

	http_client "fms-project/backend/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
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

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Projects Service...")
	err := godotenv.Load(".env")
	if err != nil {
		logging.Logger.Fatalf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	repo := repositories.NewMongoProjectRepository(
		db.Collection("templates"),
		db.Collection("projects"),
		db.Collection("tasks"),
		db.Collection("counters"),
	)

	httpClient := http_client.NewHTTPClient()
	workflowBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "WorkflowServiceCB",
		MaxRequests: 1,
		Timeout:     2 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	workflowClient := services.NewHTTPWorkflowClient(os.Getenv("WORKFLOW_SERVICE_URL"), httpClient, workflowBreaker)

	projectService := services.NewProjectService(repo, workflowClient)
	projectHandler := handlers.NewProjectHandler(projectService)

	r := mux.NewRouter()

	r.HandleFunc("/api/projects/templates", projectHandler.CreateTemplate).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/templates/all", projectHandler.ListTemplates).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/templates/{templateID}", projectHandler.GetTemplate).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/materialize", projectHandler.MaterializeProject).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/all", projectHandler.ListProjects).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{projectID}", projectHandler.GetProject).Methods(http.MethodGet)
	r.HandleFunc("/api/projects/{projectID}/steps/{stepNo}/materialize", projectHandler.MaterializeNextStep).Methods(http.MethodPost)
	r.HandleFunc("/api/projects/{projectID}/steps/{stepNo}/planned-date", projectHandler.SetStepPlannedDate).Methods(http.MethodPut)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Projects service is running"))
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
