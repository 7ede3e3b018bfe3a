package services

import (
	"context"

	"github.com/sjperalta/fintera-rentals/internal/models"
	"gorm.io/gorm"
)

type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log records an audit entry
func (s *AuditService) Log(ctx context.Context, actor, action, entity, entityID, details string) error {
	logEntry := &models.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
	}
	return s.db.WithContext(ctx).Create(logEntry).Error
}

// List retrieves audit logs, newest first, optionally for one entity id
func (s *AuditService) List(ctx context.Context, entityID string, limit, offset int) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if entityID != "" {
		db = db.Where("entity_id = ?", entityID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := db.Order("created_at desc, id desc").Limit(limit).Offset(offset).Find(&logs)
	return logs, total, result.Error
}
