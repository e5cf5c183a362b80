package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/klass-lk/restblog"
	"github.com/klass-lk/restblog/internal/model"
	"github.com/microcosm-cc/bluemonday"
)

// PostsCacheTag tags every cached page that renders post data.
const PostsCacheTag = "posts"

type PostStore interface {
	Create(ctx context.Context, post model.Post) (model.Post, error)
	List(ctx context.Context) ([]model.Post, error)
	Get(ctx context.Context, id string) (model.Post, error)
	Replace(ctx context.Context, id string, form model.PostForm) (model.Post, error)
	Remove(ctx context.Context, id string) error
}

type PostService struct {
	store     PostStore
	cache     restblog.CacheService
	sanitizer *bluemonday.Policy
	now       func() time.Time
}

// NewPostService takes an optional cache; when present it is invalidated
// after every successful write.
func NewPostService(store PostStore, cache restblog.CacheService) *PostService {
	return &PostService{
		store:     store,
		cache:     cache,
		sanitizer: bluemonday.UGCPolicy(),
		now:       time.Now,
	}
}

// Sanitize strips markup that could run script in a browser and keeps
// ordinary formatting.
func (s *PostService) Sanitize(body string) string {
	return s.sanitizer.Sanitize(body)
}

func (s *PostService) CreatePost(ctx context.Context, form model.PostForm) (model.Post, error) {
	post := model.Post{
		Title:   form.Title,
		Image:   form.Image,
		Body:    s.Sanitize(form.Body),
		Created: s.now().UTC().Truncate(time.Millisecond),
	}
	created, err := s.store.Create(ctx, post)
	if err != nil {
		return model.Post{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

func (s *PostService) GetPosts(ctx context.Context) ([]model.Post, error) {
	return s.store.List(ctx)
}

func (s *PostService) GetPostById(ctx context.Context, id string) (model.Post, error) {
	return s.store.Get(ctx, id)
}

func (s *PostService) UpdatePost(ctx context.Context, id string, form model.PostForm) (model.Post, error) {
	form.Body = s.Sanitize(form.Body)
	post, err := s.store.Replace(ctx, id, form)
	if err != nil {
		return model.Post{}, err
	}
	s.invalidate(ctx)
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *PostService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, PostsCacheTag); err != nil {
		slog.WarnContext(ctx, "post cache invalidation failed", slog.String("error", err.Error()))
	}
}
