package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/domain"
)

func loadedRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New(filepath.Join("testdata", "schemas.yaml"), zap.NewNop())
	if err := r.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return r
}

func TestLoad_Fixture(t *testing.T) {
	r := loadedRegistry(t)

	types := r.Types()
	if len(types) != 2 || types[0] != "community_service" || types[1] != "medical_professional" {
		t.Fatalf("unexpected types: %v", types)
	}

	def, err := r.Get("medical_professional")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, ok := def.SearchableField("specialty"); !ok {
		t.Error("expected specialty searchable field")
	}
	if len(def.Strategy().SynonymMappings) != 1 {
		t.Errorf("expected 1 synonym mapping, got %d", len(def.Strategy().SynonymMappings))
	}
}

func TestGet_Unknown(t *testing.T) {
	r := loadedRegistry(t)

	_, err := r.Get("robot")
	if !errors.Is(err, domain.ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
}

func TestGuidance(t *testing.T) {
	r := loadedRegistry(t)

	strategy, err := r.Guidance("medical_professional")
	if err != nil {
		t.Fatalf("Guidance: %v", err)
	}
	if strategy.Guidance == "" {
		t.Error("expected non-empty guidance text")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	r := New(filepath.Join("testdata", "absent.yaml"), zap.NewNop())
	if err := r.Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidSchemaIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	// "name" is reserved, so this definition must be rejected whole.
	bad := "people:\n  required_fields:\n    - name\n"
	if err := os.WriteFile(path, []byte(bad), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r := New(path, zap.NewNop())
	err := r.Load()
	if !errors.Is(err, domain.ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
}

func TestReload_KeepsOldDefinitionsOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schemas.yaml")
	good := "people:\n  required_fields:\n    - role\n"
	if err := os.WriteFile(path, []byte(good), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	r := New(path, zap.NewNop())
	if err := r.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := os.WriteFile(path, []byte("{broken yaml"), 0o600); err != nil {
		t.Fatalf("rewrite fixture: %v", err)
	}
	if err := r.Reload(); err == nil {
		t.Fatal("expected reload error")
	}

	if _, err := r.Get("people"); err != nil {
		t.Errorf("previous definitions must survive a failed reload: %v", err)
	}
}
