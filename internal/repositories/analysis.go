package repositories

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
)

var ErrAnalysisNotFound = errors.New("analysis not found")

type AnalysisRepository interface {
	Create(analysis *models.Analysis) error
	FindByID(id uuid.UUID) (*models.Analysis, error)
	ClaimQueued(id uuid.UUID) (bool, error)
	UpdateExtraction(id uuid.UUID, resumeText, jobDescriptionText string, sections *models.SectionMap) error
	UpdateReport(id uuid.UUID, report *models.MatchReport) error
	UpdateError(id uuid.UUID, errorMsg string) error
	FindPendingJobs(limit int) ([]models.Analysis, error)
}

type analysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

func (r *analysisRepository) Create(analysis *models.Analysis) error {
	if err := r.db.Create(analysis).Error; err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (r *analysisRepository) FindByID(id uuid.UUID) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := r.db.Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}
	return &analysis, nil
}

// ClaimQueued moves a queued analysis to processing. It reports false when the
// analysis is missing or was already claimed.
func (r *analysisRepository) ClaimQueued(id uuid.UUID) (bool, error) {
	result := r.db.Model(&models.Analysis{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to claim analysis: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *analysisRepository) UpdateExtraction(id uuid.UUID, resumeText, jobDescriptionText string, sections *models.SectionMap) error {
	// Struct updates run the json serializer on Sections and Report.
	result := r.db.Model(&models.Analysis{ID: id}).
		Select("resume_text", "job_description_text", "sections", "updated_at").
		Updates(&models.Analysis{
			ResumeText:         resumeText,
			JobDescriptionText: jobDescriptionText,
			Sections:           sections,
			UpdatedAt:          time.Now(),
		})

	return checkUpdate(result, "extraction")
}

func (r *analysisRepository) UpdateReport(id uuid.UUID, report *models.MatchReport) error {
	result := r.db.Model(&models.Analysis{ID: id}).
		Select("report", "status", "updated_at").
		Updates(&models.Analysis{
			Report:    report,
			Status:    models.StatusCompleted,
			UpdatedAt: time.Now(),
		})

	return checkUpdate(result, "report")
}

func (r *analysisRepository) UpdateError(id uuid.UUID, errorMsg string) error {
	return r.update(id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": errorMsg,
	})
}

func (r *analysisRepository) FindPendingJobs(limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return analyses, nil
}

func (r *analysisRepository) update(id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.Model(&models.Analysis{}).
		Where("id = ?", id).
		Updates(updates)

	return checkUpdate(result, "analysis")
}

func checkUpdate(result *gorm.DB, what string) error {
	if result.Error != nil {
		return fmt.Errorf("failed to update %s: %w", what, result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrAnalysisNotFound
	}

	return nil
}
