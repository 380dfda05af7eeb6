package directory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/dirsearch/internal/domain/list"
)

// Repository provides list metadata access and removal.
type Repository interface {
	Get(ctx context.Context, tenant, name string) (list.List, error)
	List(ctx context.Context, tenant string) ([]list.List, error)
	Delete(ctx context.Context, tenant, name string) error
}

// Service exposes list metadata for operators and transports.
type Service struct {
	lists  Repository
	logger *zap.Logger
}

// New creates the directory service.
func New(lists Repository, logger *zap.Logger) *Service {
	return &Service{lists: lists, logger: logger}
}

// Get returns one list's metadata.
func (s *Service) Get(ctx context.Context, tenant, name string) (list.List, error) {
	return s.lists.Get(ctx, tenant, name)
}

// List returns all lists belonging to a tenant, sorted by name.
func (s *Service) List(ctx context.Context, tenant string) ([]list.List, error) {
	return s.lists.List(ctx, tenant)
}

// Delete removes a list, its entries and its search index.
func (s *Service) Delete(ctx context.Context, tenant, name string) error {
	if err := s.lists.Delete(ctx, tenant, name); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}

	s.logger.Info("list deleted",
		zap.String("tenant", tenant),
		zap.String("list", name),
	)
	return nil
}
