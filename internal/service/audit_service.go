package service

import (
	"context"
	"log"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	CadetID    string `json:"cadet_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditService interface {
	// Record writes an audit entry. Failures are logged, never
	// propagated: auditing must not break the operation it records.
	Record(ctx context.Context, actorID *uuid.UUID, action, entityID, entityName, details string)
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, actorID *uuid.UUID, action, entityID, entityName, details string) {
	entry := &model.AuditLog{
		CadetID:    actorID,
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    details,
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		log.Printf("WARNING: failed to write audit log (%s %s): %v", action, entityID, err)
	}
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		username := "System"
		cadetID := ""
		if l.Cadet != nil {
			username = l.Cadet.Username
		}
		if l.CadetID != nil {
			cadetID = l.CadetID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			CadetID:    cadetID,
			Username:   username,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
