package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
	"github.com/kailas-cloud/dirsearch/internal/logger"
	directoryuc "github.com/kailas-cloud/dirsearch/internal/usecase/directory"
	guidanceuc "github.com/kailas-cloud/dirsearch/internal/usecase/guidance"
	healthuc "github.com/kailas-cloud/dirsearch/internal/usecase/health"
	importeruc "github.com/kailas-cloud/dirsearch/internal/usecase/importer"
	searchuc "github.com/kailas-cloud/dirsearch/internal/usecase/search"
)

// ErrorCode is a machine-readable error identifier returned to clients.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeListNotFound     ErrorCode = "list_not_found"
	CodeSchemaNotFound   ErrorCode = "schema_not_found"
	CodeAccessDenied     ErrorCode = "access_denied"
	CodeImportRejected   ErrorCode = "import_rejected"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SchemaReader exposes the schema registry to the HTTP layer.
type SchemaReader interface {
	Get(entryType string) (schema.Definition, error)
	Types() []string
	Reload() error
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	importer      *importeruc.Service
	search        *searchuc.Service
	guidance      *guidanceuc.Service
	directory     *directoryuc.Service
	health        *healthuc.Service
	schemas       SchemaReader
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	importer *importeruc.Service,
	search *searchuc.Service,
	guidance *guidanceuc.Service,
	directory *directoryuc.Service,
	health *healthuc.Service,
	schemas SchemaReader,
	logger *zap.Logger,
) *Server {
	s := &Server{
		importer:  importer,
		search:    search,
		guidance:  guidance,
		directory: directory,
		health:    health,
		schemas:   schemas,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrListNotFound, http.StatusNotFound, CodeListNotFound),
		sentinelHandler(domain.ErrSchemaNotFound, http.StatusNotFound, CodeSchemaNotFound),
		sentinelHandler(domain.ErrAccessDenied, http.StatusForbidden, CodeAccessDenied),
		sentinelHandler(domain.ErrUnknownFilterField, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownAttributeField, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrMissingRequiredField, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidRow, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnknownMapper, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrEntryTypeMismatch, http.StatusConflict, CodeImportRejected),
		sentinelHandler(domain.ErrImportTooSmall, http.StatusBadRequest, CodeImportRejected),
	}
	return s
}

// Register mounts all API routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/schemas", s.ListSchemas)
		r.Get("/schemas/{entryType}", s.GetSchema)
		r.Get("/schemas/{entryType}/guidance", s.GetGuidance)
		r.Post("/schemas/reload", s.ReloadSchemas)

		r.Route("/tenants/{tenant}/lists", func(r chi.Router) {
			r.Get("/", s.ListLists)
			r.Route("/{list}", func(r chi.Router) {
				r.Get("/", s.GetList)
				r.Delete("/", s.DeleteList)
				r.Post("/import", s.ImportList)
				r.Get("/search", s.SearchList)
			})
		})
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: report.Checks,
	})
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors carry row and field context, so those pass through whole.
func safeDomainMessage(err error) string {
	passthrough := []error{
		domain.ErrUnknownFilterField,
		domain.ErrUnknownAttributeField,
		domain.ErrMissingRequiredField,
		domain.ErrInvalidRow,
		domain.ErrUnknownMapper,
		domain.ErrImportTooSmall,
		domain.ErrEntryTypeMismatch,
	}
	for _, s := range passthrough {
		if errors.Is(err, s) {
			return err.Error()
		}
	}

	sentinels := []error{
		domain.ErrListNotFound,
		domain.ErrSchemaNotFound,
		domain.ErrAccessDenied,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
