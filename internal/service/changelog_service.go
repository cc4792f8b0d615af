// Package service implements the business logic layer.
package service

import (
	"context"
	"encoding/json"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/dto"
	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/metrics"
	"github.com/penflow/penflow-sync-service/pkg/textmodel"
	"github.com/penflow/penflow-sync-service/pkg/writequeue"

	"go.uber.org/zap"
)

// ChangelogService is the append-only change log of every changeset.
//
// Version is defined as the number of recorded changes, positions run
// contiguously from 1. AddChange assigns head+1 inside the per-changeset
// write queue; the unique index on (changeset, position) is the storage
// backstop when two service instances share one database.
type ChangelogService interface {
	// GetChanges returns the changes with position strictly greater than
	// sinceVersion, oldest first, plus the head version observed at read
	// time. An unknown changeset yields an empty page at version 0.
	GetChanges(ctx context.Context, changesetID string, sinceVersion int64) (*dto.ChangesFetchResponse, error)

	// AddChange appends one change and returns its assigned position.
	AddChange(ctx context.Context, changesetID string, uid int64, clientName string, ops json.RawMessage, timestamp int64) (*dto.ChangePushResponse, error)

	// GetVersion returns the head version of a changeset; 0 when unknown.
	GetVersion(ctx context.Context, changesetID string) (int64, error)

	// DeleteChangeset removes the whole log of a changeset. Deleting an
	// unknown changeset is a no-op.
	DeleteChangeset(ctx context.Context, changesetID string) error
}

const defaultAddChangeMaxRetries = 3

// changelogService implements ChangelogService.
type changelogService struct {
	repo       domain.ChangeRepository
	docRepo    domain.DocumentRepository
	writeQueue *writequeue.Manager
	logger     *zap.Logger
	maxRetries int
}

// NewChangelogService creates a ChangelogService instance.
func NewChangelogService(repo domain.ChangeRepository, docRepo domain.DocumentRepository, writeQueue *writequeue.Manager, logger *zap.Logger, cfg *ServiceConfig) ChangelogService {
	maxRetries := defaultAddChangeMaxRetries
	if cfg != nil && cfg.App.AddChangeMaxRetries > 0 {
		maxRetries = cfg.App.AddChangeMaxRetries
	}
	return &changelogService{
		repo:       repo,
		docRepo:    docRepo,
		writeQueue: writeQueue,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

func (s *changelogService) GetChanges(ctx context.Context, changesetID string, sinceVersion int64) (*dto.ChangesFetchResponse, error) {
	if sinceVersion < 0 {
		sinceVersion = 0
	}

	changes, err := s.repo.ListSincePosition(ctx, changesetID, sinceVersion)
	if err != nil {
		return nil, code.ErrorStoreRead.WithDetails(err.Error())
	}

	// Positions are contiguous from 1, so a non-empty page ends at head. An
	// empty page says nothing about head when sinceVersion overshoots it, so
	// fall back to counting.
	var head int64
	if len(changes) > 0 {
		head = changes[len(changes)-1].Position
	} else {
		head, err = s.repo.Count(ctx, changesetID)
		if err != nil {
			return nil, code.ErrorStoreRead.WithDetails(err.Error())
		}
	}

	resp := &dto.ChangesFetchResponse{
		ChangesetID:  changesetID,
		SinceVersion: sinceVersion,
		HeadVersion:  head,
		Changes:      make([]dto.ChangeResponse, 0, len(changes)),
	}
	for _, change := range changes {
		resp.Changes = append(resp.Changes, toChangeResponse(change))
	}
	return resp, nil
}

func (s *changelogService) AddChange(ctx context.Context, changesetID string, uid int64, clientName string, ops json.RawMessage, timestamp int64) (*dto.ChangePushResponse, error) {
	if len(ops) == 0 || !json.Valid(ops) {
		return nil, code.ErrorInvalidParams.WithDetails("ops must be a JSON payload")
	}
	op, err := textmodel.Unmarshal(ops)
	if err != nil {
		return nil, code.ErrorInvalidParams.WithDetails(err.Error())
	}
	if err := op.Validate(); err != nil {
		return nil, code.ErrorInvalidParams.WithDetails(err.Error())
	}

	var appended *domain.Change

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err := s.writeQueue.Execute(ctx, changesetID, func() error {
			head, err := s.repo.Count(ctx, changesetID)
			if err != nil {
				return code.ErrorStoreRead.WithDetails(err.Error())
			}

			change, err := s.repo.Append(ctx, &domain.Change{
				ChangesetID: changesetID,
				Position:    head + 1,
				Ops:         ops,
				UID:         uid,
				ClientName:  clientName,
				Timestamp:   timestamp,
			})
			if err != nil {
				if s.repo.IsDuplicatePosition(err) {
					return code.ErrorSyncConflict
				}
				return code.ErrorChangeAppendFailed.WithDetails(err.Error())
			}

			appended = change
			return nil
		})

		if err == nil {
			break
		}
		if cerr, ok := err.(*code.Code); ok && cerr.Code() == code.ErrorSyncConflict.Code() {
			// Lost the position race against another instance; re-read the
			// head and try again.
			metrics.SyncConflicts.Inc()
			s.logger.Warn("change append position conflict, retrying",
				zap.String("changeset", changesetID),
				zap.Int("attempt", attempt+1))
			appended = nil
			continue
		}
		if cerr, ok := err.(*code.Code); ok {
			return nil, cerr
		}
		return nil, code.ErrorChangeAppendFailed.WithDetails(err.Error())
	}

	if appended == nil {
		return nil, code.ErrorSyncConflict
	}
	metrics.ChangesAppended.Inc()

	// Keep the document's updated time in step; the log already holds the
	// truth, so a failure here is only logged.
	if s.docRepo != nil {
		if err := s.docRepo.Touch(ctx, changesetID); err != nil {
			s.logger.Warn("document touch failed",
				zap.String("changeset", changesetID), zap.Error(err))
		}
	}

	return &dto.ChangePushResponse{
		ChangesetID: changesetID,
		Position:    appended.Position,
		Version:     appended.Position,
	}, nil
}

func (s *changelogService) GetVersion(ctx context.Context, changesetID string) (int64, error) {
	count, err := s.repo.Count(ctx, changesetID)
	if err != nil {
		return 0, code.ErrorStoreRead.WithDetails(err.Error())
	}
	return count, nil
}

func (s *changelogService) DeleteChangeset(ctx context.Context, changesetID string) error {
	if err := s.repo.DeleteByChangeset(ctx, changesetID); err != nil {
		return code.ErrorChangesetDeleteFailed.WithDetails(err.Error())
	}
	return nil
}

func toChangeResponse(change *domain.Change) dto.ChangeResponse {
	return dto.ChangeResponse{
		Position:   change.Position,
		Ops:        change.Ops,
		UID:        change.UID,
		ClientName: change.ClientName,
		Timestamp:  change.Timestamp,
	}
}
