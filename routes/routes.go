package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mgnrega/dashboard/controllers"
	"github.com/mgnrega/dashboard/middleware"
	"github.com/rs/cors"
)

// Options tunes the proxy routes.
type Options struct {
	// FiltersSampleLimit is the number of records /api/filters requests and
	// the largest page /api/data accepts.
	FiltersSampleLimit int
}

// SetupRoutes configures the application routes.
func SetupRoutes(src controllers.RecordSource, opts Options) *mux.Router {
	if opts.FiltersSampleLimit <= 0 {
		opts.FiltersSampleLimit = 2000
	}

	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	// Recovery runs inside Logging so recovered panics still reach the access log.
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/filters", controllers.GetFiltersHandler(src, opts.FiltersSampleLimit)).Methods("GET")
	api.HandleFunc("/data", controllers.GetDataHandler(src, opts.FiltersSampleLimit)).Methods("GET")
	api.HandleFunc("/health", controllers.HealthHandler()).Methods("GET")

	return r
}

// NewHandler wraps the router with CORS open to any origin.
func NewHandler(src controllers.RecordSource, opts Options) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	})
	return c.Handler(SetupRoutes(src, opts))
}
