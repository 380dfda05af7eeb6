package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/domain"
	"github.com/kailas-cloud/dirsearch/internal/domain/entry"
	"github.com/kailas-cloud/dirsearch/internal/domain/list"
	"github.com/kailas-cloud/dirsearch/internal/domain/schema"
)

// Command describes one import request: the full set of rows that will
// replace the list's current contents.
type Command struct {
	Tenant      string
	ListName    string
	EntryType   string
	Description string
	Rows        []map[string]string
	Mapper      string
	AllowEmpty  bool
}

// Result reports a completed import.
type Result struct {
	List     list.List
	Imported int
	Replaced bool
}

// Service performs delete-and-replace imports. Validation is fail-fast: the
// first bad row aborts the import and the stored list stays untouched.
type Service struct {
	schemas SchemaReader
	lists   ListRepository
	entries EntryRepository
	mappers *MapperRegistry
	metrics Metrics
	minRows int
	logger  *zap.Logger
}

// New creates the import service. minRows guards against accidentally
// replacing a populated list with a near-empty upload.
func New(
	schemas SchemaReader,
	lists ListRepository,
	entries EntryRepository,
	mappers *MapperRegistry,
	metrics Metrics,
	minRows int,
	logger *zap.Logger,
) *Service {
	return &Service{
		schemas: schemas,
		lists:   lists,
		entries: entries,
		mappers: mappers,
		metrics: metrics,
		minRows: minRows,
		logger:  logger,
	}
}

// Import validates every row against the schema for cmd.EntryType, then
// atomically replaces the list's entries and metadata. Entry ids are never
// reused across imports.
func (s *Service) Import(ctx context.Context, cmd Command) (*Result, error) {
	res, err := s.run(ctx, cmd)
	if err != nil {
		s.metrics.ImportCompleted("error", 0)
		return nil, err
	}
	s.metrics.ImportCompleted("success", res.Imported)
	return res, nil
}

func (s *Service) run(ctx context.Context, cmd Command) (*Result, error) {
	def, err := s.schemas.Get(cmd.EntryType)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}

	mapperName := cmd.Mapper
	if mapperName == "" {
		mapperName = GenericMapperName
	}
	mapRow, err := s.mappers.Get(mapperName)
	if err != nil {
		return nil, err
	}

	revision := 1
	replaced := false
	prev, err := s.lists.Get(ctx, cmd.Tenant, cmd.ListName)
	switch {
	case err == nil:
		if prev.EntryType() != cmd.EntryType {
			return nil, fmt.Errorf("%w: list %q holds %q, import carries %q",
				domain.ErrEntryTypeMismatch, cmd.ListName, prev.EntryType(), cmd.EntryType)
		}
		revision = prev.Revision() + 1
		replaced = true
	case errors.Is(err, domain.ErrListNotFound):
		// first import of this list
	default:
		return nil, fmt.Errorf("read list: %w", err)
	}

	if len(cmd.Rows) < s.minRows && !cmd.AllowEmpty {
		return nil, fmt.Errorf("%w: %d rows, minimum %d",
			domain.ErrImportTooSmall, len(cmd.Rows), s.minRows)
	}

	entries := make([]entry.Entry, 0, len(cmd.Rows))
	for i, row := range cmd.Rows {
		e, err := s.buildEntry(def, mapRow, i, row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	l, err := list.New(cmd.Tenant, cmd.ListName, cmd.EntryType, cmd.Description, len(entries), revision)
	if err != nil {
		return nil, err
	}

	if err := s.lists.EnsureIndex(ctx, cmd.Tenant, cmd.ListName, def.SearchableFields()); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}
	if err := s.entries.ReplaceAll(ctx, l, entries); err != nil {
		return nil, fmt.Errorf("replace entries: %w", err)
	}

	s.logger.Info("import completed",
		zap.String("tenant", cmd.Tenant),
		zap.String("list", cmd.ListName),
		zap.String("entry_type", cmd.EntryType),
		zap.Int("entries", len(entries)),
		zap.Int("revision", revision),
	)

	return &Result{List: l, Imported: len(entries), Replaced: replaced}, nil
}

// buildEntry maps and validates one row. Row numbers in errors are 1-based
// so operators can find the offending line in their source data.
func (s *Service) buildEntry(
	def schema.Definition, mapRow Mapper, idx int, row map[string]string,
) (entry.Entry, error) {
	rowNum := idx + 1

	for _, field := range def.RequiredFields() {
		if strings.TrimSpace(row[field]) == "" {
			return entry.Entry{}, &domain.MissingRequiredFieldError{Row: rowNum, Field: field}
		}
	}

	draft, err := mapRow(row)
	if err != nil {
		return entry.Entry{}, &domain.InvalidRowError{Row: rowNum, Cause: err}
	}

	for key := range draft.Attributes {
		if !def.AllowsAttribute(key) {
			return entry.Entry{}, &domain.UnknownAttributeFieldError{Row: rowNum, Field: key}
		}
	}

	e, err := entry.New(uuid.NewString(), idx, draft)
	if err != nil {
		return entry.Entry{}, &domain.InvalidRowError{Row: rowNum, Cause: err}
	}
	return e, nil
}
