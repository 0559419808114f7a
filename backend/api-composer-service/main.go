package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"fms-project/backend/api-composer-service/handlers"
	"fms-project/backend/api-composer-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	if err := godotenv.Load(".env"); err != nil {
		logger.Fatalf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	composer := services.NewComposerService(
		os.Getenv("PROJECTS_SERVICE_URL"),
		os.Getenv("WORKFLOW_SERVICE_URL"),
		os.Getenv("OBJECTIONS_SERVICE_URL"),
	)
	boardHandler := handlers.NewBoardHandler(composer)

	r := mux.NewRouter()
	r.HandleFunc("/api/board/{projectId}", boardHandler.GetBoard).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("API composer service is running"))
	}).Methods(http.MethodGet)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logger.Infof("Event ID: SERVER_START_INFO, Description: API composer running on http://localhost%s", serverAddress)

	srv := &http.Server{
		Handler:      r,
		Addr:         serverAddress,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
