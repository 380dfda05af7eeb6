package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/domain/list"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/query"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/result"
	importeruc "github.com/kailas-cloud/dirsearch/internal/usecase/importer"
)

// filterParamPrefix marks query parameters carrying attribute filters,
// e.g. ?filter.specialty=Cardiology.
const filterParamPrefix = "filter."

type importRequest struct {
	EntryType   string              `json:"entry_type"`
	Description string              `json:"description,omitempty"`
	Mapper      string              `json:"mapper,omitempty"`
	AllowEmpty  bool                `json:"allow_empty,omitempty"`
	Rows        []map[string]string `json:"rows"`
}

type importResponse struct {
	List     listResponse `json:"list"`
	Imported int          `json:"imported"`
	Replaced bool         `json:"replaced"`
}

type listResponse struct {
	Tenant      string    `json:"tenant"`
	Name        string    `json:"name"`
	EntryType   string    `json:"entry_type"`
	Description string    `json:"description,omitempty"`
	EntryCount  int       `json:"entry_count"`
	ImportedAt  time.Time `json:"imported_at"`
	Revision    int       `json:"revision"`
}

type listsResponse struct {
	Items []listResponse `json:"items"`
	Total int            `json:"total"`
}

type searchResultItem struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Score       *float64          `json:"score,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	ContactInfo map[string]string `json:"contact_info,omitempty"`
}

type searchResponse struct {
	Items []searchResultItem `json:"items"`
	Total int                `json:"total"`
}

type schemasResponse struct {
	EntryTypes []string `json:"entry_types"`
}

type schemaFieldResponse struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

type schemaResponse struct {
	EntryType        string                         `json:"entry_type"`
	RequiredFields   []string                       `json:"required_fields,omitempty"`
	OptionalFields   []string                       `json:"optional_fields,omitempty"`
	SearchableFields map[string]schemaFieldResponse `json:"searchable_fields,omitempty"`
	TagsUsage        string                         `json:"tags_usage,omitempty"`
}

type guidanceResponse struct {
	EntryType string `json:"entry_type"`
	Guidance  string `json:"guidance"`
}

// ImportList handles POST /tenants/{tenant}/lists/{list}/import.
func (s *Server) ImportList(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.EntryType == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "entry_type is required")
		return
	}

	res, err := s.importer.Import(r.Context(), importeruc.Command{
		Tenant:      chi.URLParam(r, "tenant"),
		ListName:    chi.URLParam(r, "list"),
		EntryType:   req.EntryType,
		Description: req.Description,
		Rows:        req.Rows,
		Mapper:      req.Mapper,
		AllowEmpty:  req.AllowEmpty,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, importResponse{
		List:     listToResponse(res.List),
		Imported: res.Imported,
		Replaced: res.Replaced,
	})
}

// SearchList handles GET /tenants/{tenant}/lists/{list}/search.
func (s *Server) SearchList(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	m := mode.FTS
	if v := params.Get("mode"); v != "" {
		m = mode.Mode(v)
		if !m.IsValid() {
			writeError(w, http.StatusBadRequest, CodeValidationFailed,
				fmt.Sprintf("unsupported mode %q", v))
			return
		}
	}

	maxResults := 0
	if v := params.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "max_results must be a positive integer")
			return
		}
		maxResults = n
	}

	filters := map[string]string{}
	for key, values := range params {
		if strings.HasPrefix(key, filterParamPrefix) && len(values) > 0 {
			filters[strings.TrimPrefix(key, filterParamPrefix)] = values[0]
		}
	}

	q, err := query.New(params.Get("query"), params.Get("tag"), filters, m, maxResults)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	results, err := s.search.Search(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "list"), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]searchResultItem, len(results))
	for i := range results {
		items[i] = resultToResponse(&results[i])
	}

	writeJSON(w, http.StatusOK, searchResponse{Items: items, Total: len(items)})
}

// ListLists handles GET /tenants/{tenant}/lists.
func (s *Server) ListLists(w http.ResponseWriter, r *http.Request) {
	lists, err := s.directory.List(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]listResponse, len(lists))
	for i, l := range lists {
		items[i] = listToResponse(l)
	}

	writeJSON(w, http.StatusOK, listsResponse{Items: items, Total: len(items)})
}

// GetList handles GET /tenants/{tenant}/lists/{list}.
func (s *Server) GetList(w http.ResponseWriter, r *http.Request) {
	l, err := s.directory.Get(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "list"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listToResponse(l))
}

// DeleteList handles DELETE /tenants/{tenant}/lists/{list}.
func (s *Server) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.directory.Delete(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "list")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSchemas handles GET /schemas.
func (s *Server) ListSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schemasResponse{EntryTypes: s.schemas.Types()})
}

// GetSchema handles GET /schemas/{entryType}.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	entryType := chi.URLParam(r, "entryType")

	def, err := s.schemas.Get(entryType)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	fields := make(map[string]schemaFieldResponse, len(def.SearchableFields()))
	for name, spec := range def.SearchableFields() {
		fields[name] = schemaFieldResponse{
			Type:        spec.Type,
			Description: spec.Description,
			Examples:    spec.Examples,
		}
	}

	writeJSON(w, http.StatusOK, schemaResponse{
		EntryType:        def.EntryType(),
		RequiredFields:   def.RequiredFields(),
		OptionalFields:   def.OptionalFields(),
		SearchableFields: fields,
		TagsUsage:        def.TagsUsage(),
	})
}

// GetGuidance handles GET /schemas/{entryType}/guidance.
func (s *Server) GetGuidance(w http.ResponseWriter, r *http.Request) {
	entryType := chi.URLParam(r, "entryType")

	text, err := s.guidance.For(entryType)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, guidanceResponse{EntryType: entryType, Guidance: text})
}

// ReloadSchemas handles POST /schemas/reload.
func (s *Server) ReloadSchemas(w http.ResponseWriter, r *http.Request) {
	if err := s.schemas.Reload(); err != nil {
		s.logger.Error("schema reload failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, schemasResponse{EntryTypes: s.schemas.Types()})
}

func listToResponse(l list.List) listResponse {
	return listResponse{
		Tenant:      l.Tenant(),
		Name:        l.Name(),
		EntryType:   l.EntryType(),
		Description: l.Description(),
		EntryCount:  l.EntryCount(),
		ImportedAt:  time.UnixMilli(l.ImportedAt()).UTC(),
		Revision:    l.Revision(),
	}
}

func resultToResponse(r *result.Result) searchResultItem {
	e := r.Entry()
	item := searchResultItem{
		ID:          e.ID(),
		Name:        e.Name(),
		Tags:        e.Tags(),
		Attributes:  e.Attributes(),
		ContactInfo: e.ContactInfo(),
	}
	if r.Ranked() {
		score := r.Score()
		item.Score = &score
	}
	return item
}
