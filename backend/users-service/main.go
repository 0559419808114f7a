package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"fms-project/backend/users-service/handlers"
	"fms-project/backend/users-service/logging"
	"fms-project/backend/users-service/middleware"
	"fms-project/backend/users-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
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

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Users Service...")
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

	blackList := map[string]bool{}
	if blackListPath := os.Getenv("PASSWORD_BLACKLIST_FILE"); blackListPath != "" {
		blackList, err = services.LoadBlackList(blackListPath)
		if err != nil {
			logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: Could not load password blacklist from %s: %v", blackListPath, err)
		}
	}

	db := client.Database(mongoDBName)
	userService := services.NewUserService(db.Collection("users"), blackList)
	userHandler := &handlers.UserHandler{UserService: userService}

	r := mux.NewRouter()

	r.HandleFunc("/api/users/register", userHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/users/login", userHandler.Login).Methods(http.MethodPost)
	r.Handle("/api/users/members", middleware.JWTAuthMiddleware(http.HandlerFunc(userHandler.ListMembers))).Methods(http.MethodGet)
	r.Handle("/api/users/change-password", middleware.JWTAuthMiddleware(http.HandlerFunc(userHandler.ChangePassword))).Methods(http.MethodPost)
	r.Handle("/api/users/{userID}", middleware.JWTAuthMiddleware(http.HandlerFunc(userHandler.GetProfile))).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Users service is running"))
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
