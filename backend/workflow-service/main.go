package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"fms-project/backend/workflow-service/handlers"
	"fms-project/backend/workflow-service/logging"
	"fms-project/backend/workflow-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
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

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Workflow Service...")
	err := godotenv.Load(".env")
	if err != nil {
		logging.Logger.Fatalf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	neo4jURI := os.Getenv("NEO4J_URI")
	neo4jUser := os.Getenv("NEO4J_USERNAME")
	neo4jPassword := os.Getenv("NEO4J_PASSWORD")

	if neo4jURI == "" || neo4jUser == "" || neo4jPassword == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: Neo4j connection details are missing in the environment.")
	}

	driver, err := neo4j.NewDriverWithContext(neo4jURI, neo4j.BasicAuth(neo4jUser, neo4jPassword, ""))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Failed to create Neo4j driver: %v", err)
	}
	defer driver.Close(context.Background())

	workflowService := services.NewWorkflowService(driver)
	workflowHandler := handlers.NewWorkflowHandler(workflowService)

	r := mux.NewRouter()

	r.HandleFunc("/api/workflow/step-node", workflowHandler.EnsureStepNode).Methods(http.MethodPost)
	r.HandleFunc("/api/workflow/dependency", workflowHandler.AddDependency).Methods(http.MethodPost)
	r.HandleFunc("/api/workflow/dependency", workflowHandler.RemoveDependency).Methods(http.MethodDelete)
	r.HandleFunc("/api/workflow/steps/{stepId}/status", workflowHandler.UpdateStepStatus).Methods(http.MethodPut)
	r.HandleFunc("/api/workflow/dependencies/{stepId}", workflowHandler.GetDependencies).Methods(http.MethodGet)
	r.HandleFunc("/api/workflow/graph/{projectId}", workflowHandler.GetWorkflowGraph).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Workflow service is running"))
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
