package services

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/domain"
)

// SkillInput is the admin skill form
type SkillInput struct {
	Name        string
	Category    string
	Proficiency int
	Featured    bool
}

// TestimonialInput is the admin testimonial form
type TestimonialInput struct {
	ClientName string
	Company    string
	Content    string
	Rating     int
	Featured   bool
}

// ProfileService manages skills and testimonials
type ProfileService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(db *gorm.DB, log *zap.Logger) *ProfileService {
	return &ProfileService{db: db, log: log.Named("profile")}
}

// Skills returns all skills grouped by category order, then name
func (s *ProfileService) Skills(ctx context.Context) ([]domain.Skill, error) {
	var skills []domain.Skill
	if err := s.db.WithContext(ctx).Order("category, proficiency DESC, name").Find(&skills).Error; err != nil {
		return nil, NewInternalError("failed to fetch skills", err)
	}
	return skills, nil
}

// FeaturedSkills returns featured skills, strongest first
func (s *ProfileService) FeaturedSkills(ctx context.Context) ([]domain.Skill, error) {
	var skills []domain.Skill
	if err := s.db.WithContext(ctx).Where("featured = ?", true).Order("proficiency DESC, name").Find(&skills).Error; err != nil {
		return nil, NewInternalError("failed to fetch skills", err)
	}
	return skills, nil
}

// CreateSkill stores a new skill. A zero proficiency means the default of 50.
func (s *ProfileService) CreateSkill(ctx context.Context, in SkillInput) (*domain.Skill, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Proficiency == 0 {
		in.Proficiency = 50
	}

	v := &formValidator{fields: map[string]string{}}
	v.maxLength("name", in.Name, 100, true)
	v.maxLength("category", in.Category, 100, false)
	v.rangeOf("proficiency", in.Proficiency, 0, 100)
	if err := v.result("invalid skill"); err != nil {
		return nil, err
	}

	skill := &domain.Skill{
		Name:        in.Name,
		Category:    in.Category,
		Proficiency: in.Proficiency,
		Featured:    in.Featured,
	}
	if err := s.db.WithContext(ctx).Create(skill).Error; err != nil {
		return nil, NewInternalError("failed to create skill", err)
	}
	s.log.Info("skill created", zap.Uint("id", skill.ID), zap.String("name", skill.Name))
	return skill, nil
}

// DeleteSkill removes a skill
func (s *ProfileService) DeleteSkill(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Skill{}, id)
	if res.Error != nil {
		return NewInternalError("failed to delete skill", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError("skill not found")
	}
	return nil
}

// Testimonials returns all testimonials, newest first
func (s *ProfileService) Testimonials(ctx context.Context) ([]domain.Testimonial, error) {
	var items []domain.Testimonial
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, NewInternalError("failed to fetch testimonials", err)
	}
	return items, nil
}

// FeaturedTestimonials returns featured testimonials, newest first
func (s *ProfileService) FeaturedTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	var items []domain.Testimonial
	if err := s.db.WithContext(ctx).Where("featured = ?", true).Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, NewInternalError("failed to fetch testimonials", err)
	}
	return items, nil
}

// CreateTestimonial stores a new testimonial. A zero rating means 5.
func (s *ProfileService) CreateTestimonial(ctx context.Context, in TestimonialInput) (*domain.Testimonial, error) {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.Company = strings.TrimSpace(in.Company)
	in.Content = strings.TrimSpace(in.Content)
	if in.Rating == 0 {
		in.Rating = 5
	}

	v := &formValidator{fields: map[string]string{}}
	v.maxLength("client_name", in.ClientName, 100, true)
	v.maxLength("company", in.Company, 100, false)
	v.required("content", in.Content)
	v.rangeOf("rating", in.Rating, 1, 5)
	if err := v.result("invalid testimonial"); err != nil {
		return nil, err
	}

	item := &domain.Testimonial{
		ClientName: in.ClientName,
		Company:    in.Company,
		Content:    in.Content,
		Rating:     in.Rating,
		Featured:   in.Featured,
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, NewInternalError("failed to create testimonial", err)
	}
	s.log.Info("testimonial created", zap.Uint("id", item.ID))
	return item, nil
}

// DeleteTestimonial removes a testimonial
func (s *ProfileService) DeleteTestimonial(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.Testimonial{}, id)
	if res.Error != nil {
		return NewInternalError("failed to delete testimonial", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError("testimonial not found")
	}
	return nil
}
