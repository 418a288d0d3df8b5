package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gorilla/mux"

	"github.com/angeloszaimis/target-pool/internal/backend"
	"github.com/angeloszaimis/target-pool/internal/metrics"
	"github.com/angeloszaimis/target-pool/internal/pool"
)

const CurrentVersion = "v1"

// Pool is the membership surface of the target pool the API manages.
type Pool interface {
	Targets() []pool.Target
	Len() int
	Policy() pool.Policy
	AddTarget(address string, weight int) error
	RemoveTarget(address string) error
}

type StatusResponse struct {
	Status  string `json:"status"`
	Policy  string `json:"policy"`
	Targets int    `json:"targets"`
}

type TargetsResponse struct {
	Targets []pool.Target `json:"targets"`
}

type TargetRequest struct {
	Address string `json:"address"`
	Weight  int    `json:"weight"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (r TargetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Address,
			validation.Required,
			validation.By(validateAddress),
		),
		validation.Field(&r.Weight, validation.Min(1)),
	)
}

type controller struct {
	logger    *slog.Logger
	pool      Pool
	collector *metrics.Collector
}

// NewRouter builds the admin router. collector may be nil, in which case
// /metrics is not served.
func NewRouter(logger *slog.Logger, p Pool, collector *metrics.Collector) *mux.Router {
	c := &controller{
		logger:    logger,
		pool:      p,
		collector: collector,
	}

	router := mux.NewRouter()
	router.Use(c.logRequests)
	router.NotFoundHandler = http.HandlerFunc(c.notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(c.methodNotAllowed)

	v1 := router.PathPrefix("/" + CurrentVersion).Subrouter()
	v1.HandleFunc("/status", c.getStatus).Methods(http.MethodGet)
	v1.HandleFunc("/targets", c.getTargets).Methods(http.MethodGet)
	v1.HandleFunc("/targets", c.addTarget).Methods(http.MethodPost)
	v1.HandleFunc("/targets", c.deleteTarget).Methods(http.MethodDelete)

	if collector != nil {
		router.Handle("/metrics", collector.Handler(p.Policy().String())).Methods(http.MethodGet)
	}

	return router
}

func (c *controller) getStatus(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, StatusResponse{
		Status:  "ok",
		Policy:  c.pool.Policy().String(),
		Targets: c.pool.Len(),
	})
}

func (c *controller) getTargets(w http.ResponseWriter, r *http.Request) {
	reply(w, http.StatusOK, TargetsResponse{Targets: c.pool.Targets()})
}

func (c *controller) addTarget(w http.ResponseWriter, r *http.Request) {
	var req TargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		replyError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if req.Weight == 0 {
		req.Weight = 1
	}

	if err := req.Validate(); err != nil {
		replyError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := c.pool.AddTarget(req.Address, req.Weight); err != nil {
		c.replyPoolError(w, req.Address, err)
		return
	}

	if c.collector != nil {
		c.collector.Emit(metrics.MetricEvent{
			Type:      metrics.EventTargetAdded,
			Timestamp: time.Now(),
			Target:    req.Address,
		})
	}

	c.logger.Info("Target added", slog.String("target", req.Address), slog.Int("weight", req.Weight))
	reply(w, http.StatusCreated, req)
}

func (c *controller) deleteTarget(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		replyError(w, http.StatusBadRequest, "address query parameter is required")
		return
	}

	if err := c.pool.RemoveTarget(address); err != nil {
		c.replyPoolError(w, address, err)
		return
	}

	c.logger.Info("Target removed", slog.String("target", address))
	reply(w, http.StatusOK, MessageResponse{Message: "target removed"})
}

func (c *controller) replyPoolError(w http.ResponseWriter, address string, err error) {
	switch {
	case errors.Is(err, pool.ErrTargetNotFound):
		replyError(w, http.StatusNotFound, "target "+address+" not found")
	case errors.Is(err, pool.ErrDuplicateTarget):
		replyError(w, http.StatusConflict, "target "+address+" already exists")
	case errors.Is(err, pool.ErrInvalidAddress), errors.Is(err, pool.ErrInvalidWeight):
		replyError(w, http.StatusBadRequest, err.Error())
	default:
		c.logger.Error("Pool operation failed", slog.String("target", address), slog.Any("error", err))
		replyError(w, http.StatusInternalServerError, "internal error")
	}
}

func (c *controller) notFound(w http.ResponseWriter, r *http.Request) {
	replyError(w, http.StatusNotFound, "object not found")
}

func (c *controller) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	replyError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (c *controller) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.logger.Debug("Admin request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr))
		next.ServeHTTP(w, r)
	})
}

func validateAddress(value interface{}) error {
	address, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := backend.ParseAddress(address); err != nil {
		return validation.NewError("validation_invalid_address", "must be an http(s) URL or host:port")
	}

	return nil
}

func reply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func replyError(w http.ResponseWriter, status int, message string) {
	reply(w, status, MessageResponse{Message: message})
}
