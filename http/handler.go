package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/dkarimov/petal"
)

type Service interface {
	List(ctx context.Context) ([]petal.Photo, error)
	Create(ctx context.Context, p petal.CreatePhoto) (petal.Photo, error)
	Delete(ctx context.Context, id string) error
	Login(ctx context.Context, username, password string) (petal.LoginResult, error)
	Probe(ctx context.Context) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	CORS CORSConfig
}

// Handler provides HTTP handlers for the photo catalog API.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with the catalog routes configured.
// The delete route is a wildcard because object-store photo ids contain
// slashes (they are object keys).
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/test-connection", h.handleTestConnection)
		r.Post("/login", h.handleLogin)
		r.Get("/photos", h.handleListPhotos)
		r.Post("/photos", h.handleCreatePhoto)
		r.Delete("/photos/*", h.handleDeletePhoto)
	})

	return r
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Photo catalog API is running",
		"status":  "healthy",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleTestConnection probes the storage backend. Failures are reported
// in the body with a 200 status: an unreachable backend is an expected
// condition during deployment windows, not a request error.
func (h *Handler) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Probe(r.Context()); err != nil {
		_ = WriteJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "Connection failed: " + err.Error(),
			"note":    "This is normal during deployment",
		})
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"message":      "Backend connection successful",
		"current_time": time.Now().UTC().Format(time.RFC3339),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	if req.Username == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Username and password are required")
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := h.service.List(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	if photos == nil {
		photos = []petal.Photo{}
	}

	_ = WriteJSON(w, http.StatusOK, photos)
}

func (h *Handler) handleCreatePhoto(w http.ResponseWriter, r *http.Request) {
	var req petal.CreatePhoto
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return
	}

	photo, err := h.service.Create(r.Context(), req)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, photo)
}

func (h *Handler) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "*")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "invalid_input", "Photo id is required")
		return
	}

	err := h.service.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, petal.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "not_found", "Photo not found")
		} else {
			HandleError(w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"message": "Photo deleted successfully"})
}
