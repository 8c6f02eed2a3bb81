package repository

import (
	"qpgen_backend/internal/model"

	"gorm.io/gorm"
)

type FeedbackRepository struct {
	DB *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{DB: db}
}

func (r *FeedbackRepository) Create(feedback *model.QuestionFeedback) error {
	return r.DB.Create(feedback).Error
}

func (r *FeedbackRepository) ListByArtifact(artifactType model.ArtifactType, artifactID uint) ([]model.QuestionFeedback, error) {
	var entries []model.QuestionFeedback
	err := r.DB.Where("artifact_type = ? AND artifact_id = ?", artifactType, artifactID).
		Order("created_at asc").
		Find(&entries).Error
	return entries, err
}
