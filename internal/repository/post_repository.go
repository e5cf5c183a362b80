package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/klass-lk/restblog"
	"github.com/klass-lk/restblog/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidID = errors.New("invalid post id")
	ErrNotFound  = errors.New("post not found")
)

type PostRepository struct {
	*restblog.MongoRepository[model.Post]
}

func NewPostRepository(database *mongo.Database) *PostRepository {
	return &PostRepository{
		MongoRepository: restblog.NewMongoRepository[model.Post](database),
	}
}

func (r *PostRepository) Create(ctx context.Context, post model.Post) (model.Post, error) {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if err := r.Save(ctx, post); err != nil {
		return model.Post{}, fmt.Errorf("insert post: %w", err)
	}
	return post, nil
}

func (r *PostRepository) List(ctx context.Context) ([]model.Post, error) {
	posts, err := r.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *PostRepository) Get(ctx context.Context, id string) (model.Post, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Post{}, err
	}
	post, err := r.FindById(ctx, oid)
	if err != nil {
		return model.Post{}, wrapNotFound("find post", id, err)
	}
	return post, nil
}

// Replace overwrites the mutable fields of a post and returns the stored
// result. created is never part of the update.
func (r *PostRepository) Replace(ctx context.Context, id string, form model.PostForm) (model.Post, error) {
	oid, err := parseID(id)
	if err != nil {
		return model.Post{}, err
	}
	post, err := r.UpdateFields(ctx, oid, map[string]interface{}{
		"title": form.Title,
		"image": form.Image,
		"body":  form.Body,
	})
	if err != nil {
		return model.Post{}, wrapNotFound("update post", id, err)
	}
	return post, nil
}

func (r *PostRepository) Remove(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := r.Delete(ctx, oid); err != nil {
		return wrapNotFound("delete post", id, err)
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w %q", ErrInvalidID, id)
	}
	return oid, nil
}

func wrapNotFound(op, id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}
