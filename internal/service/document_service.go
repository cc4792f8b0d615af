package service

import (
	"context"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/dto"
	"github.com/penflow/penflow-sync-service/pkg/code"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService manages document metadata. A document is a thin record
// around its changeset id; deleting a document also deletes its change log.
type DocumentService interface {
	// Create mints a document and its changeset id.
	Create(ctx context.Context, uid int64, title string) (*dto.DocumentResponse, error)

	// Get returns one document owned by uid.
	Get(ctx context.Context, uid int64, changesetID string) (*dto.DocumentResponse, error)

	// GetOwned returns the domain record after an ownership check.
	GetOwned(ctx context.Context, uid int64, changesetID string) (*domain.Document, error)

	// Rename updates a document's title.
	Rename(ctx context.Context, uid int64, changesetID string, title string) error

	// List returns the user's documents, most recently updated first.
	List(ctx context.Context, uid int64) ([]*dto.DocumentResponse, error)

	// Delete removes a document and its change log.
	Delete(ctx context.Context, uid int64, changesetID string) error
}

// documentService implements DocumentService.
type documentService struct {
	repo      domain.DocumentRepository
	changelog ChangelogService
	logger    *zap.Logger
}

// NewDocumentService creates a DocumentService instance.
func NewDocumentService(repo domain.DocumentRepository, changelog ChangelogService, logger *zap.Logger) DocumentService {
	return &documentService{
		repo:      repo,
		changelog: changelog,
		logger:    logger,
	}
}

func (s *documentService) Create(ctx context.Context, uid int64, title string) (*dto.DocumentResponse, error) {
	document, err := s.repo.Create(ctx, &domain.Document{
		ChangesetID: uuid.NewString(),
		UID:         uid,
		Title:       title,
	})
	if err != nil {
		return nil, code.ErrorDocumentCreateFailed.WithDetails(err.Error())
	}

	s.logger.Info("document created",
		zap.Int64("uid", uid),
		zap.String("changeset", document.ChangesetID))

	return toDocumentResponse(document, 0), nil
}

func (s *documentService) GetOwned(ctx context.Context, uid int64, changesetID string) (*domain.Document, error) {
	document, err := s.repo.GetByChangesetID(ctx, changesetID)
	if err != nil {
		return nil, code.ErrorStoreRead.WithDetails(err.Error())
	}
	if document == nil || document.UID != uid {
		return nil, code.ErrorDocumentNotFound
	}
	return document, nil
}

func (s *documentService) Get(ctx context.Context, uid int64, changesetID string) (*dto.DocumentResponse, error) {
	document, err := s.GetOwned(ctx, uid, changesetID)
	if err != nil {
		return nil, err
	}

	version, err := s.changelog.GetVersion(ctx, changesetID)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(document, version), nil
}

func (s *documentService) Rename(ctx context.Context, uid int64, changesetID string, title string) error {
	if _, err := s.GetOwned(ctx, uid, changesetID); err != nil {
		return err
	}
	if err := s.repo.UpdateTitle(ctx, changesetID, title); err != nil {
		return code.ErrorStoreWrite.WithDetails(err.Error())
	}
	return nil
}

func (s *documentService) List(ctx context.Context, uid int64) ([]*dto.DocumentResponse, error) {
	documents, err := s.repo.List(ctx, uid)
	if err != nil {
		return nil, code.ErrorDocumentListFailed.WithDetails(err.Error())
	}

	out := make([]*dto.DocumentResponse, 0, len(documents))
	for _, document := range documents {
		out = append(out, toDocumentResponse(document, 0))
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, uid int64, changesetID string) error {
	if _, err := s.GetOwned(ctx, uid, changesetID); err != nil {
		return err
	}

	// Log first: a leftover metadata row without a log is recoverable, the
	// reverse orphans changes a recreated id could collide with.
	if err := s.changelog.DeleteChangeset(ctx, changesetID); err != nil {
		return err
	}
	if err := s.repo.DeleteByChangesetID(ctx, changesetID); err != nil {
		return code.ErrorDocumentDeleteFailed.WithDetails(err.Error())
	}

	s.logger.Info("document deleted",
		zap.Int64("uid", uid),
		zap.String("changeset", changesetID))
	return nil
}

func toDocumentResponse(document *domain.Document, version int64) *dto.DocumentResponse {
	const layout = "2006-01-02 15:04:05"
	return &dto.DocumentResponse{
		ChangesetID: document.ChangesetID,
		Title:       document.Title,
		Version:     version,
		CreatedAt:   document.CreatedAt.Format(layout),
		UpdatedAt:   document.UpdatedAt.Format(layout),
	}
}
