package services

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"portfolio/internal/domain"
	"portfolio/internal/metrics"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// BlogInput is the admin blog post form
type BlogInput struct {
	Title     string
	Slug      string
	Content   string
	Excerpt   string
	Published bool
}

func (in BlogInput) normalize() BlogInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.TrimSpace(in.Slug)
	in.Content = strings.TrimSpace(in.Content)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	return in
}

func (in BlogInput) validate() error {
	v := &formValidator{fields: map[string]string{}}
	v.maxLength("title", in.Title, 200, true)
	v.maxLength("slug", in.Slug, 200, true)
	v.pattern("slug", in.Slug, slugPattern, "may only contain letters, numbers, hyphens and underscores")
	v.required("content", in.Content)
	return v.result("invalid blog post")
}

// BlogService manages blog posts
type BlogService struct {
	db       *gorm.DB
	markdown goldmark.Markdown
	log      *zap.Logger
}

// NewBlogService creates a new blog service
func NewBlogService(db *gorm.DB, log *zap.Logger) *BlogService {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &BlogService{db: db, markdown: md, log: log.Named("blog")}
}

// Published returns published posts, newest first. A limit of zero means all.
func (s *BlogService) Published(ctx context.Context, limit int) ([]domain.BlogPost, error) {
	q := s.db.WithContext(ctx).Where("published = ?", true).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var posts []domain.BlogPost
	if err := q.Find(&posts).Error; err != nil {
		return nil, NewInternalError("failed to fetch blog posts", err)
	}
	return posts, nil
}

// List returns every post including drafts, newest first
func (s *BlogService) List(ctx context.Context) ([]domain.BlogPost, error) {
	var posts []domain.BlogPost
	if err := s.db.WithContext(ctx).Preload("Author").Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, NewInternalError("failed to fetch blog posts", err)
	}
	return posts, nil
}

// Recent returns the newest limit posts including drafts
func (s *BlogService) Recent(ctx context.Context, limit int) ([]domain.BlogPost, error) {
	var posts []domain.BlogPost
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&posts).Error; err != nil {
		return nil, NewInternalError("failed to fetch blog posts", err)
	}
	return posts, nil
}

// Get returns one post by id
func (s *BlogService) Get(ctx context.Context, id uint) (*domain.BlogPost, error) {
	var post domain.BlogPost
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, lookupError("blog post", err)
	}
	return &post, nil
}

// Read returns a published post by slug and increments its view counter.
// Drafts are reported as not found.
func (s *BlogService) Read(ctx context.Context, slug string) (*domain.BlogPost, error) {
	var post domain.BlogPost
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("slug = ? AND published = ?", slug, true).
		First(&post).Error
	if err != nil {
		return nil, lookupError("blog post", err)
	}
	err = s.db.WithContext(ctx).Model(&domain.BlogPost{}).
		Where("id = ?", post.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return nil, NewInternalError("failed to record blog view", err)
	}
	post.Views++
	metrics.RecordView("blog")
	return &post, nil
}

// Render converts a post body from Markdown to HTML
func (s *BlogService) Render(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	// goldmark drops raw HTML unless html.WithUnsafe is set
	return template.HTML(buf.String()), nil
}

// Create stores a new post authored by authorID
func (s *BlogService) Create(ctx context.Context, in BlogInput, authorID uint) (*domain.BlogPost, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, in.Slug, 0); err != nil {
		return nil, err
	}

	post := &domain.BlogPost{
		Title:     in.Title,
		Slug:      in.Slug,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		Published: in.Published,
	}
	if authorID != 0 {
		post.AuthorID = &authorID
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		if s.slugTaken(ctx, in.Slug, 0) {
			return nil, duplicateSlugError()
		}
		return nil, NewInternalError("failed to create blog post", err)
	}
	s.log.Info("blog post created", zap.Uint("id", post.ID), zap.String("slug", post.Slug))
	return post, nil
}

// Update edits a post. The slug stays unique across all posts.
func (s *BlogService) Update(ctx context.Context, id uint, in BlogInput) (*domain.BlogPost, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, in.Slug, id); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Slug = in.Slug
	post.Content = in.Content
	post.Excerpt = in.Excerpt
	post.Published = in.Published
	if err := s.db.WithContext(ctx).Save(post).Error; err != nil {
		return nil, NewInternalError("failed to update blog post", err)
	}
	s.log.Info("blog post updated", zap.Uint("id", post.ID))
	return post, nil
}

// Delete removes a post
func (s *BlogService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&domain.BlogPost{}, id)
	if res.Error != nil {
		return NewInternalError("failed to delete blog post", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFoundError("blog post not found")
	}
	s.log.Info("blog post deleted", zap.Uint("id", id))
	return nil
}

// Count returns the number of posts including drafts
func (s *BlogService) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.BlogPost{}).Count(&n).Error; err != nil {
		return 0, NewInternalError("failed to count blog posts", err)
	}
	return n, nil
}

func (s *BlogService) ensureSlugFree(ctx context.Context, slug string, exceptID uint) error {
	var existing domain.BlogPost
	err := s.db.WithContext(ctx).Where("slug = ? AND id <> ?", slug, exceptID).First(&existing).Error
	switch {
	case err == nil:
		return duplicateSlugError()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return NewInternalError("failed to check slug", err)
	}
}

func (s *BlogService) slugTaken(ctx context.Context, slug string, exceptID uint) bool {
	var n int64
	s.db.WithContext(ctx).Model(&domain.BlogPost{}).Where("slug = ? AND id <> ?", slug, exceptID).Count(&n)
	return n > 0
}

// duplicateSlugError is a CONFLICT that still carries a field message for
// the admin form.
func duplicateSlugError() error {
	err := NewConflictError("a blog post with this slug already exists")
	err.Fields = map[string]string{"slug": "is already in use"}
	return err
}
