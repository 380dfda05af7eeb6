package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	logpkg "github.com/kailas-cloud/dirsearch/internal/logger"
	"github.com/kailas-cloud/dirsearch/internal/domain/entry"
	"github.com/kailas-cloud/dirsearch/internal/domain/list"
	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
	"github.com/kailas-cloud/dirsearch/internal/domain/search/result"
	directoryuc "github.com/kailas-cloud/dirsearch/internal/usecase/directory"
	guidanceuc "github.com/kailas-cloud/dirsearch/internal/usecase/guidance"
	healthuc "github.com/kailas-cloud/dirsearch/internal/usecase/health"
	importeruc "github.com/kailas-cloud/dirsearch/internal/usecase/importer"
	searchuc "github.com/kailas-cloud/dirsearch/internal/usecase/search"
)

// --- Fakes ---

type fakeSchemas struct {
	defs      map[string]schema.Definition
	reloadErr error
}

func (f *fakeSchemas) Get(entryType string) (schema.Definition, error) {
	def, ok := f.defs[entryType]
	if !ok {
		return schema.Definition{}, domain.ErrSchemaNotFound
	}
	return def, nil
}

func (f *fakeSchemas) Types() []string {
	types := make([]string, 0, len(f.defs))
	for t := range f.defs {
		types = append(types, t)
	}
	return types
}

func (f *fakeSchemas) Reload() error { return f.reloadErr }

type fakeLists struct {
	lists   map[string]list.List
	deleted []string
}

func (f *fakeLists) key(tenant, name string) string { return tenant + "/" + name }

func (f *fakeLists) Get(_ context.Context, tenant, name string) (list.List, error) {
	l, ok := f.lists[f.key(tenant, name)]
	if !ok {
		return list.List{}, domain.ErrListNotFound
	}
	return l, nil
}

func (f *fakeLists) List(_ context.Context, tenant string) ([]list.List, error) {
	var out []list.List
	for k, l := range f.lists {
		if strings.HasPrefix(k, tenant+"/") {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLists) Delete(_ context.Context, tenant, name string) error {
	k := f.key(tenant, name)
	if _, ok := f.lists[k]; !ok {
		return domain.ErrListNotFound
	}
	delete(f.lists, k)
	f.deleted = append(f.deleted, k)
	return nil
}

func (f *fakeLists) EnsureIndex(context.Context, string, string, map[string]schema.FieldSpec) error {
	return nil
}

type fakeEntries struct {
	replaced int
}

func (f *fakeEntries) ReplaceAll(_ context.Context, _ list.List, entries []entry.Entry) error {
	f.replaced = len(entries)
	return nil
}

type fakeSearchRepo struct {
	results []result.Result
}

func (f *fakeSearchRepo) SearchText(
	context.Context, string, string, string, string, map[string]string, int,
) ([]result.Result, error) {
	return f.results, nil
}

func (f *fakeSearchRepo) Browse(
	context.Context, string, string, string, map[string]string, int,
) ([]result.Result, error) {
	return f.results, nil
}

type fakeMetrics struct{}

func (fakeMetrics) ImportCompleted(string, int) {}
func (fakeMetrics) SearchPerformed(string)      {}
func (fakeMetrics) SearchFellBack()             {}

type fakeDB struct {
	pingErr error
}

func (f *fakeDB) Ping(context.Context) error { return f.pingErr }

// --- Harness ---

type testEnv struct {
	router  chi.Router
	schemas *fakeSchemas
	lists   *fakeLists
	entries *fakeEntries
	search  *fakeSearchRepo
	db      *fakeDB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	def, err := schema.New(
		"medical_professional",
		[]string{"specialty"},
		[]string{"hospital"},
		map[string]schema.FieldSpec{"specialty": {Type: "string"}, "city": {Type: "string"}},
		"languages spoken",
		schema.Strategy{Guidance: "Search by specialty."},
	)
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}

	env := &testEnv{
		schemas: &fakeSchemas{defs: map[string]schema.Definition{"medical_professional": def}},
		lists:   &fakeLists{lists: map[string]list.List{}},
		entries: &fakeEntries{},
		search:  &fakeSearchRepo{},
		db:      &fakeDB{},
	}

	logger := zap.NewNop()
	metrics := fakeMetrics{}

	srv := NewServer(
		importeruc.New(env.schemas, env.lists, env.entries, importeruc.NewMapperRegistry(), metrics, 1, logger),
		searchuc.New(env.search, env.lists, env.schemas, metrics, 100, logger),
		guidanceuc.New(env.schemas),
		directoryuc.New(env.lists, logger),
		healthuc.New(env.db, env.schemas),
		env.schemas,
		logger,
	)

	env.router = chi.NewRouter()
	srv.Register(env.router)
	return env
}

func (env *testEnv) seedList(t *testing.T) {
	t.Helper()
	l, err := list.New("clinic", "doctors", "medical_professional", "", 2, 1)
	if err != nil {
		t.Fatalf("list.New: %v", err)
	}
	env.lists.lists["clinic/doctors"] = l
}

func (env *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func searchResult(t *testing.T, id, name string, score float64, rankedHit bool) result.Result {
	t.Helper()
	e, err := entry.New(id, 0, entry.Draft{
		Name:       name,
		Attributes: map[string]string{"specialty": "Cardiology"},
	})
	if err != nil {
		t.Fatalf("entry.New: %v", err)
	}
	return result.New(e, score, rankedHit)
}

const validImportBody = `{
	"entry_type": "medical_professional",
	"rows": [
		{"name": "Dr. Alvarez", "specialty": "Cardiology", "tags": "spanish"},
		{"name": "Dr. Chen", "specialty": "Dermatology"}
	]
}`

// --- Import ---

func TestImportList(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import", validImportBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp importResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Imported != 2 || resp.Replaced {
		t.Errorf("imported=%d replaced=%v", resp.Imported, resp.Replaced)
	}
	if resp.List.Tenant != "clinic" || resp.List.Name != "doctors" || resp.List.Revision != 1 {
		t.Errorf("unexpected list metadata: %+v", resp.List)
	}
	if env.entries.replaced != 2 {
		t.Errorf("expected 2 entries stored, got %d", env.entries.replaced)
	}
}

func TestImportList_InvalidBody(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import", "{not json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeBadRequest {
		t.Errorf("code: got %s, want %s", resp.Code, CodeBadRequest)
	}
}

func TestImportList_MissingEntryType(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import",
		`{"rows": [{"name": "Dr. A", "specialty": "Cardiology"}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, CodeValidationFailed)
	}
}

func TestImportList_MissingRequiredField(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import", `{
		"entry_type": "medical_professional",
		"rows": [
			{"name": "Dr. Alvarez", "specialty": "Cardiology"},
			{"name": "Dr. Chen"}
		]
	}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}

	resp := decodeError(t, rr)
	if resp.Code != CodeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, CodeValidationFailed)
	}
	if !strings.Contains(resp.Message, "row 2") || !strings.Contains(resp.Message, "specialty") {
		t.Errorf("message must cite row and field, got %q", resp.Message)
	}
	if env.entries.replaced != 0 {
		t.Error("failed import must not write entries")
	}
}

func TestDomainErrorLoggedWithRequestLogger(t *testing.T) {
	env := newTestEnv(t)

	core, observed := observer.New(zap.WarnLevel)
	req := httptest.NewRequest("GET", "/api/v1/tenants/clinic/lists/absent/", nil)
	req = req.WithContext(logpkg.ContextWithLogger(req.Context(), zap.New(core)))

	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
	if observed.FilterMessage("domain error").Len() != 1 {
		t.Errorf("expected the request-scoped logger to record the domain error, got %v", observed.All())
	}
}

func TestImportList_RowWithoutName(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import", `{
		"entry_type": "medical_professional",
		"rows": [{"specialty": "Cardiology"}]
	}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}

	resp := decodeError(t, rr)
	if resp.Code != CodeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, CodeValidationFailed)
	}
	if !strings.Contains(resp.Message, "row 1") {
		t.Errorf("message must cite the row, got %q", resp.Message)
	}
}

func TestImportList_UnknownMapper(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import", `{
		"entry_type": "medical_professional",
		"mapper": "nope",
		"rows": [{"name": "Dr. A", "specialty": "Cardiology"}]
	}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}

	resp := decodeError(t, rr)
	if resp.Code != CodeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, CodeValidationFailed)
	}
	if !strings.Contains(resp.Message, "nope") {
		t.Errorf("message must name the mapper, got %q", resp.Message)
	}
}

func TestImportList_UnknownSchema(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import",
		`{"entry_type": "ghost", "rows": [{"name": "X"}]}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeSchemaNotFound {
		t.Errorf("code: got %s, want %s", resp.Code, CodeSchemaNotFound)
	}
}

func TestImportList_EntryTypeMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)

	def, err := schema.New("community_service", []string{"category"}, nil, nil, "", schema.Strategy{})
	if err != nil {
		t.Fatalf("schema.New: %v", err)
	}
	env.schemas.defs["community_service"] = def

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import",
		`{"entry_type": "community_service", "rows": [{"name": "Food Bank", "category": "food"}]}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeImportRejected {
		t.Errorf("code: got %s, want %s", resp.Code, CodeImportRejected)
	}
}

func TestImportList_TooFewRows(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/tenants/clinic/lists/doctors/import",
		`{"entry_type": "medical_professional", "rows": []}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeImportRejected {
		t.Errorf("code: got %s, want %s", resp.Code, CodeImportRejected)
	}
}

// --- Search ---

func TestSearchList(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)
	env.search.results = []result.Result{searchResult(t, "e1", "Dr. Alvarez", 7.5, true)}

	rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/doctors/search?query=cardiology", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	item := resp.Items[0]
	if item.ID != "e1" || item.Name != "Dr. Alvarez" {
		t.Errorf("unexpected item: %+v", item)
	}
	if item.Score == nil || *item.Score != 7.5 {
		t.Errorf("ranked result must carry its score, got %v", item.Score)
	}
}

func TestSearchList_UnrankedOmitsScore(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)
	env.search.results = []result.Result{searchResult(t, "e1", "Dr. Alvarez", 0, false)}

	rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/doctors/search?mode=substring&query=alva", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), `"score"`) {
		t.Errorf("unranked result must omit score: %s", rr.Body.String())
	}
}

func TestSearchList_InvalidMode(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)

	rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/doctors/search?mode=fuzzy", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, CodeValidationFailed)
	}
}

func TestSearchList_InvalidMaxResults(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)

	for _, v := range []string{"abc", "0", "-3"} {
		rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/doctors/search?max_results="+v, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("max_results=%s: got %d, want 400", v, rr.Code)
		}
	}
}

func TestSearchList_UnknownFilterField(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)

	rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/doctors/search?filter.shoe_size=44", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rr.Code)
	}

	resp := decodeError(t, rr)
	if resp.Code != CodeValidationFailed {
		t.Errorf("code: got %s, want %s", resp.Code, CodeValidationFailed)
	}
	if !strings.Contains(resp.Message, "shoe_size") {
		t.Errorf("message must name the field, got %q", resp.Message)
	}
}

func TestSearchList_UnknownList(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/absent/search?query=x", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeListNotFound {
		t.Errorf("code: got %s, want %s", resp.Code, CodeListNotFound)
	}
}

// --- Lists ---

func TestGetList(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)

	rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/doctors/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp listResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Tenant != "clinic" || resp.Name != "doctors" || resp.EntryType != "medical_professional" {
		t.Errorf("unexpected list: %+v", resp)
	}
}

func TestGetList_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/absent/", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestListLists(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)

	rr := env.do(t, "GET", "/api/v1/tenants/clinic/lists/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp listsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestDeleteList(t *testing.T) {
	env := newTestEnv(t)
	env.seedList(t)

	rr := env.do(t, "DELETE", "/api/v1/tenants/clinic/lists/doctors/", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d, want 204", rr.Code)
	}
	if len(env.lists.deleted) != 1 {
		t.Error("delete must reach the repository")
	}
}

func TestDeleteList_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "DELETE", "/api/v1/tenants/clinic/lists/absent/", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

// --- Schemas ---

func TestListSchemas(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/schemas", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp schemasResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.EntryTypes) != 1 || resp.EntryTypes[0] != "medical_professional" {
		t.Errorf("unexpected entry types: %v", resp.EntryTypes)
	}
}

func TestGetSchema(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/schemas/medical_professional", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp schemaResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.EntryType != "medical_professional" {
		t.Errorf("entry type: got %q", resp.EntryType)
	}
	if len(resp.RequiredFields) != 1 || resp.RequiredFields[0] != "specialty" {
		t.Errorf("required fields: got %v", resp.RequiredFields)
	}
	if _, ok := resp.SearchableFields["specialty"]; !ok {
		t.Errorf("searchable fields missing specialty: %v", resp.SearchableFields)
	}
	if resp.TagsUsage != "languages spoken" {
		t.Errorf("tags usage: got %q", resp.TagsUsage)
	}
}

func TestGetSchema_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/schemas/ghost", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
}

func TestGetGuidance(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/schemas/medical_professional/guidance", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp guidanceResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.EntryType != "medical_professional" {
		t.Errorf("entry type: got %q", resp.EntryType)
	}
	if !strings.Contains(resp.Guidance, "Search by specialty.") {
		t.Errorf("guidance missing strategy text: %q", resp.Guidance)
	}
}

func TestGetGuidance_UnknownSchema(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/schemas/ghost/guidance", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Code != CodeSchemaNotFound {
		t.Errorf("code: got %s, want %s", resp.Code, CodeSchemaNotFound)
	}
}

func TestReloadSchemas(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/api/v1/schemas/reload", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestReloadSchemas_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.schemas.reloadErr = errors.New("yaml: malformed")

	rr := env.do(t, "POST", "/api/v1/schemas/reload", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422", rr.Code)
	}
}

// --- Health ---

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
	}

	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status: got %q, want ok", resp.Status)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	env := newTestEnv(t)
	env.db.pingErr = errors.New("connection refused")

	rr := env.do(t, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("got %d, want 503", rr.Code)
	}
}
