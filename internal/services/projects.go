package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/domain"
	"portfolio/internal/metrics"
)

// ProjectInput is the admin project form
type ProjectInput struct {
	Title        string
	Description  string
	Technologies string
	GitHubURL    string
	LiveURL      string
	Category     string
	Featured     bool
}

func (in ProjectInput) normalize() ProjectInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Technologies = strings.TrimSpace(in.Technologies)
	in.GitHubURL = strings.TrimSpace(in.GitHubURL)
	in.LiveURL = strings.TrimSpace(in.LiveURL)
	in.Category = strings.TrimSpace(in.Category)
	return in
}

func (in ProjectInput) validate() error {
	v := &formValidator{fields: map[string]string{}}
	v.maxLength("title", in.Title, 200, true)
	v.required("description", in.Description)
	v.maxLength("technologies", in.Technologies, 500, false)
	v.maxLength("github_url", in.GitHubURL, 500, false)
	v.maxLength("live_url", in.LiveURL, 500, false)
	v.maxLength("category", in.Category, 100, false)
	return v.result("invalid project")
}

func (in ProjectInput) apply(p *domain.Project) {
	p.Title = in.Title
	p.Description = in.Description
	p.Technologies = in.Technologies
	p.GitHubURL = in.GitHubURL
	p.LiveURL = in.LiveURL
	p.Category = in.Category
	p.Featured = in.Featured
}

// ProjectService manages portfolio projects
type ProjectService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewProjectService creates a new project service
func NewProjectService(db *gorm.DB, log *zap.Logger) *ProjectService {
	return &ProjectService{db: db, log: log.Named("projects")}
}

// List returns projects newest first, optionally restricted to one category
func (s *ProjectService) List(ctx context.Context, category string) ([]domain.Project, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var projects []domain.Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, NewInternalError("failed to fetch projects", err)
	}
	return projects, nil
}

// All returns every project in id order, as served by the JSON API
func (s *ProjectService) All(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := s.db.WithContext(ctx).Order("id").Find(&projects).Error; err != nil {
		return nil, NewInternalError("failed to fetch projects", err)
	}
	return projects, nil
}

// Featured returns up to limit featured projects, newest first
func (s *ProjectService) Featured(ctx context.Context, limit int) ([]domain.Project, error) {
	var projects []domain.Project
	err := s.db.WithContext(ctx).
		Where("featured = ?", true).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&projects).Error
	if err != nil {
		return nil, NewInternalError("failed to fetch featured projects", err)
	}
	return projects, nil
}

// Recent returns the newest limit projects
func (s *ProjectService) Recent(ctx context.Context, limit int) ([]domain.Project, error) {
	var projects []domain.Project
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&projects).Error; err != nil {
		return nil, NewInternalError("failed to fetch projects", err)
	}
	return projects, nil
}

// Categories returns the distinct non-empty categories, sorted
func (s *ProjectService) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := s.db.WithContext(ctx).Model(&domain.Project{}).
		Where("category IS NOT NULL AND category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, NewInternalError("failed to fetch categories", err)
	}
	return categories, nil
}

// Get returns one project
func (s *ProjectService) Get(ctx context.Context, id uint) (*domain.Project, error) {
	var p domain.Project
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, lookupError("project", err)
	}
	return &p, nil
}

// View returns one project and increments its view counter by one
func (s *ProjectService) View(ctx context.Context, id uint) (*domain.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(&domain.Project{}).
		Where("id = ?", p.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return nil, NewInternalError("failed to record project view", err)
	}
	p.Views++
	metrics.RecordView("project")
	return p, nil
}

// Create stores a new project. imageURL may be empty.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput, imageURL string) (*domain.Project, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &domain.Project{ImageURL: imageURL}
	in.apply(p)
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, NewInternalError("failed to create project", err)
	}
	s.log.Info("project created", zap.Uint("id", p.ID), zap.String("title", p.Title))
	return p, nil
}

// Update edits a project. A non-empty imageURL replaces the current image.
func (s *ProjectService) Update(ctx context.Context, id uint, in ProjectInput, imageURL string) (*domain.Project, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(p)
	if imageURL != "" {
		p.ImageURL = imageURL
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, NewInternalError("failed to update project", err)
	}
	s.log.Info("project updated", zap.Uint("id", p.ID))
	return p, nil
}

// Delete removes a project
func (s *ProjectService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Project{}, id)
	if res.Error != nil {
		return NewInternalError("failed to delete project", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError("project not found")
	}
	s.log.Info("project deleted", zap.Uint("id", id))
	return nil
}

// Count returns the number of projects
func (s *ProjectService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.Project{}).Count(&n).Error; err != nil {
		return 0, NewInternalError("failed to count projects", err)
	}
	return n, nil
}
