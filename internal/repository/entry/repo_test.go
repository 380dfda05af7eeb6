package entry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/dirsearch/internal/db"
	domentry "github.com/kailas-cloud/dirsearch/internal/domain/entry"
	domlist "github.com/kailas-cloud/dirsearch/internal/domain/list"
)

// --- Mocks ---

type mockStore struct {
	scan       func(pattern string) ([]string, error)
	replaceAll func(delKeys []string, sets []db.HashSetItem) error
}

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	return m.scan(pattern)
}

func (m *mockStore) ReplaceAll(_ context.Context, delKeys []string, sets []db.HashSetItem) error {
	return m.replaceAll(delKeys, sets)
}

func testList(t *testing.T, count int) domlist.List {
	t.Helper()
	l, err := domlist.New("clinic", "doctors", "medical_professional", "", count, 1)
	if err != nil {
		t.Fatalf("list.New: %v", err)
	}
	return l
}

func testEntry(t *testing.T, id string, seq int, d domentry.Draft) domentry.Entry {
	t.Helper()
	e, err := domentry.New(id, seq, d)
	if err != nil {
		t.Fatalf("entry.New: %v", err)
	}
	return e
}

// --- Tests ---

func TestReplaceAll_DeletesOldAndWritesNew(t *testing.T) {
	var gotDel []string
	var gotSets []db.HashSetItem
	store := &mockStore{
		scan: func(pattern string) ([]string, error) {
			if pattern != "dirsearch:entry:clinic:doctors:*" {
				t.Errorf("unexpected scan pattern %q", pattern)
			}
			return []string{"dirsearch:entry:clinic:doctors:old1"}, nil
		},
		replaceAll: func(delKeys []string, sets []db.HashSetItem) error {
			gotDel = delKeys
			gotSets = sets
			return nil
		},
	}

	e := testEntry(t, "new1", 0, domentry.Draft{
		Name: "Dr. Alvarez",
		Tags: []string{"spanish"},
		Attributes: map[string]string{
			"specialty": "Cardiology",
		},
	})

	err := New(store).ReplaceAll(context.Background(), testList(t, 1), []domentry.Entry{e})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Old entry keys and the meta key are deleted in the same transaction.
	if len(gotDel) != 2 || gotDel[0] != "dirsearch:entry:clinic:doctors:old1" ||
		gotDel[1] != "dirsearch:list:clinic:doctors" {
		t.Errorf("unexpected delete keys: %v", gotDel)
	}

	if len(gotSets) != 2 {
		t.Fatalf("expected meta + 1 entry hash, got %d", len(gotSets))
	}
	meta := gotSets[0]
	if meta.Key != "dirsearch:list:clinic:doctors" || meta.Fields["entry_type"] != "medical_professional" {
		t.Errorf("unexpected meta hash: %+v", meta)
	}
	eh := gotSets[1]
	if eh.Key != "dirsearch:entry:clinic:doctors:new1" {
		t.Errorf("unexpected entry key %q", eh.Key)
	}
	if eh.Fields["__name"] != "Dr. Alvarez" || eh.Fields["__tags"] != "spanish" ||
		eh.Fields["specialty"] != "Cardiology" {
		t.Errorf("unexpected entry hash: %v", eh.Fields)
	}
}

func TestReplaceAll_TenantKeysAreDisjoint(t *testing.T) {
	// Two tenants own a list with the same name. Every key the write path
	// scans or touches embeds the tenant segment, so one tenant's import
	// can never reach the other tenant's entries.
	keysByTenant := map[string][]string{}

	for _, tenant := range []string{"clinic", "lab"} {
		var touched []string
		store := &mockStore{
			scan: func(pattern string) ([]string, error) {
				want := "dirsearch:entry:" + tenant + ":doctors:*"
				if pattern != want {
					t.Errorf("tenant %s scanned %q, want %q", tenant, pattern, want)
				}
				return nil, nil
			},
			replaceAll: func(delKeys []string, sets []db.HashSetItem) error {
				touched = append(touched, delKeys...)
				for _, s := range sets {
					touched = append(touched, s.Key)
				}
				return nil
			},
		}

		l, err := domlist.New(tenant, "doctors", "medical_professional", "", 1, 1)
		if err != nil {
			t.Fatalf("list.New: %v", err)
		}
		e := testEntry(t, "e1", 0, domentry.Draft{Name: "Dr. Alvarez"})
		if err := New(store).ReplaceAll(context.Background(), l, []domentry.Entry{e}); err != nil {
			t.Fatalf("tenant %s: unexpected error: %v", tenant, err)
		}
		keysByTenant[tenant] = touched
	}

	lab := map[string]bool{}
	for _, k := range keysByTenant["lab"] {
		lab[k] = true
		if !strings.Contains(k, ":lab:doctors") {
			t.Errorf("lab key %q not scoped to its tenant", k)
		}
	}
	for _, k := range keysByTenant["clinic"] {
		if !strings.Contains(k, ":clinic:doctors") {
			t.Errorf("clinic key %q not scoped to its tenant", k)
		}
		if lab[k] {
			t.Errorf("key %q shared across tenants", k)
		}
	}
}

func TestReplaceAll_ScanError(t *testing.T) {
	scanErr := errors.New("connection reset")
	store := &mockStore{
		scan: func(string) ([]string, error) { return nil, scanErr },
		replaceAll: func([]string, []db.HashSetItem) error {
			t.Fatal("must not write after scan failure")
			return nil
		},
	}

	err := New(store).ReplaceAll(context.Background(), testList(t, 0), nil)
	if !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestEntryHashRoundTrip(t *testing.T) {
	e := testEntry(t, "e1", 4, domentry.Draft{
		Name:        "Dr. Alvarez",
		Tags:        []string{"spanish", "telehealth"},
		ContactInfo: map[string]string{"phone": "+34 600 000 000"},
		Attributes:  map[string]string{"specialty": "Cardiology", "city": "Madrid"},
	})

	got := EntryFromHash("e1", entryToHash(e))

	if got.ID() != "e1" || got.Name() != "Dr. Alvarez" || got.Seq() != 4 {
		t.Errorf("unexpected entry: %+v", got)
	}
	if !got.HasTag("spanish") || !got.HasTag("telehealth") {
		t.Errorf("unexpected tags: %v", got.Tags())
	}
	if got.ContactInfo()["phone"] != "+34 600 000 000" {
		t.Errorf("unexpected contact info: %v", got.ContactInfo())
	}
	if got.Attributes()["specialty"] != "Cardiology" || got.Attributes()["city"] != "Madrid" {
		t.Errorf("unexpected attributes: %v", got.Attributes())
	}
}

func TestEntryToHash_AttributeTextTier(t *testing.T) {
	e := testEntry(t, "e1", 0, domentry.Draft{
		Name:       "x",
		Attributes: map[string]string{"specialty": "Cardiology", "city": "Madrid"},
	})

	m := entryToHash(e)
	if m["__attrs"] != "Madrid Cardiology" {
		t.Errorf("expected key-sorted attribute text, got %q", m["__attrs"])
	}
}
