package main

import (
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
)

func serviceURL(envKey, fallback string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}

func main() {
	mux := http.NewServeMux()

	users := reverseProxyURL(serviceURL("USERS_SERVICE_URL", "http://users-service:8001"))
	tasks := reverseProxyURL(serviceURL("TASKS_SERVICE_URL", "http://tasks-service:8002"))
	projects := reverseProxyURL(serviceURL("PROJECTS_SERVICE_URL", "http://projects-service:8003"))
	notifications := reverseProxyURL(serviceURL("NOTIFICATIONS_SERVICE_URL", "http://notifications-service:8004"))
	workflow := reverseProxyURL(serviceURL("WORKFLOW_SERVICE_URL", "http://workflow-service:8005"))
	composer := reverseProxyURL(serviceURL("COMPOSER_SERVICE_URL", "http://api-composer-service:8006"))
	objections := reverseProxyURL(serviceURL("OBJECTIONS_SERVICE_URL", "http://objections-service:8007"))
	analytics := reverseProxyURL(serviceURL("ANALYTICS_SERVICE_URL", "http://analytics-service:8008"))

	// Users service: register and login are public, the rest needs a token.
	mux.Handle("/api/users/register", users)
	mux.Handle("/api/users/login", users)
	mux.Handle("/api/users/", authMiddleware(users, []string{"manager", "member"}))

	// Tasks service: creation is a manager action, working a task is open to
	// both roles.
	mux.Handle("/api/tasks/create", authMiddleware(tasks, []string{"manager"}))
	mux.Handle("/api/tasks/", authMiddleware(tasks, []string{"manager", "member"}))

	// Projects service: templates and projects are started by managers.
	mux.Handle("/api/projects/templates", authMiddleware(projects, []string{"manager"}))
	mux.Handle("/api/projects/materialize", authMiddleware(projects, []string{"manager"}))
	mux.Handle("/api/projects/", authMiddleware(projects, []string{"manager", "member"}))

	mux.Handle("/api/objections/", authMiddleware(objections, []string{"manager", "member"}))
	mux.Handle("/api/analytics/", authMiddleware(analytics, []string{"manager", "member"}))
	mux.Handle("/api/notifications/", authMiddleware(notifications, []string{"manager", "member"}))
	mux.Handle("/api/workflow/", authMiddleware(workflow, []string{"manager", "member"}))
	mux.Handle("/api/board/", authMiddleware(composer, []string{"manager", "member"}))

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("API gateway listening on :%s", port)
	if err := http.ListenAndServe(":"+port, enableCORS(mux)); err != nil {
		log.Fatalf("Gateway failed: %v", err)
	}
}

func reverseProxyURL(target string) http.Handler {
	url, err := url.Parse(target)
	if err != nil {
		log.Fatalf("Invalid service URL %q: %v", target, err)
	}
	proxy := httputil.NewSingleHostReverseProxy(url)

	proxy.ModifyResponse = func(response *http.Response) error {
		response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Role")
		return nil
	}

	return proxy
}

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
