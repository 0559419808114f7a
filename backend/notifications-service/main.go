package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"fms-project/backend/notifications-service/handlers"
	"fms-project/backend/notifications-service/logging"
	"fms-project/backend/notifications-service/repositories"
	"fms-project/backend/notifications-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
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

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Notifications Service...")
	err := godotenv.Load(".env")
	if err != nil {
		logging.Logger.Fatalf("Event ID: ENV_LOAD_ERROR, Description: Error loading .env file: %v", err)
	}

	repo, err := repositories.NewNotificationRepo(logging.Logger)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Failed to initialize repository: %v", err)
	}
	defer repo.CloseSession()

	repo.CreateTable()

	service := services.NewNotificationService(repo)
	handler := handlers.NewNotificationHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/api/notifications/add", handler.CreateNotification).Methods(http.MethodPost)
	r.HandleFunc("/api/notifications/read", handler.MarkNotificationAsRead).Methods(http.MethodPut)
	r.HandleFunc("/api/notifications/delete", handler.DeleteNotification).Methods(http.MethodDelete)
	r.HandleFunc("/api/notifications/{userID}", handler.GetNotificationsByUser).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Notifications service is running"))
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
