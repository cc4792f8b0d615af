package service

import (
	"context"
	"fmt"

	"github.com/penflow/penflow-sync-service/internal/domain"
	"github.com/penflow/penflow-sync-service/internal/dto"
	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/textmodel"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SnapshotService reconstructs document state by folding a changeset's
// operations, in position order, over the empty document.
type SnapshotService interface {
	// GetSnapshot returns the text at the head version. An empty or unknown
	// changeset yields version 0 and the empty document, not an error.
	GetSnapshot(ctx context.Context, changesetID string) (*dto.SnapshotResponse, error)
}

// snapshotService implements SnapshotService. Concurrent snapshot requests
// for the same changeset are merged with singleflight; the fold is pure, so
// sharing one result is safe.
type snapshotService struct {
	repo   domain.ChangeRepository
	logger *zap.Logger
	sf     *singleflight.Group
}

// NewSnapshotService creates a SnapshotService instance.
func NewSnapshotService(repo domain.ChangeRepository, logger *zap.Logger) SnapshotService {
	return &snapshotService{
		repo:   repo,
		logger: logger,
		sf:     &singleflight.Group{},
	}
}

func (s *snapshotService) GetSnapshot(ctx context.Context, changesetID string) (*dto.SnapshotResponse, error) {
	key := "snapshot_" + changesetID

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		changes, err := s.repo.ListAll(ctx, changesetID)
		if err != nil {
			return nil, code.ErrorStoreRead.WithDetails(err.Error())
		}
		return s.fold(changesetID, changes)
	})
	if err != nil {
		if cerr, ok := err.(*code.Code); ok {
			return nil, cerr
		}
		return nil, code.ErrorSnapshotFailed.WithDetails(err.Error())
	}

	return result.(*dto.SnapshotResponse), nil
}

func (s *snapshotService) fold(changesetID string, changes []*domain.Change) (*dto.SnapshotResponse, error) {
	doc := textmodel.New()

	for _, change := range changes {
		op, err := textmodel.Unmarshal(change.Ops)
		if err != nil {
			s.logger.Error("snapshot op decode failed",
				zap.String("changeset", changesetID),
				zap.Int64("position", change.Position),
				zap.Error(err))
			return nil, code.ErrorSnapshotFailed.WithDetails(
				fmt.Sprintf("position %d: %v", change.Position, err))
		}
		if err := doc.Apply(op); err != nil {
			s.logger.Error("snapshot op apply failed",
				zap.String("changeset", changesetID),
				zap.Int64("position", change.Position),
				zap.Error(err))
			return nil, code.ErrorSnapshotFailed.WithDetails(
				fmt.Sprintf("position %d: %v", change.Position, err))
		}
	}

	return &dto.SnapshotResponse{
		ChangesetID: changesetID,
		Version:     int64(len(changes)),
		Content:     doc.Text(),
	}, nil
}
