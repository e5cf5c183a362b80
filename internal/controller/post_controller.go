package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/restblog"
	"github.com/klass-lk/restblog/internal/model"
	"github.com/klass-lk/restblog/internal/repository"
	"github.com/klass-lk/restblog/internal/service"
)

type PostController struct {
	postService *service.PostService
	cache       []gin.HandlerFunc
}

// NewPostController serves the blog pages. Middleware in cache is applied to
// the list and show pages only.
func NewPostController(postService *service.PostService, cache ...gin.HandlerFunc) *PostController {
	return &PostController{
		postService: postService,
		cache:       cache,
	}
}

func (c *PostController) Register(group *restblog.ControllerGroup) {
	group.GET("", c.ListPosts, c.cache...)
	group.GET("/new", c.NewPost)
	group.POST("", c.CreatePost)
	group.GET("/:id", c.ShowPost, c.cache...)
	group.GET("/:id/edit", c.EditPost)
	group.PUT("/:id", c.UpdatePost)
	group.DELETE("/:id", c.DeletePost)
}

// ListPosts never fails towards the client: a store error renders an empty list.
func (c *PostController) ListPosts(ctx *restblog.Context) {
	posts, err := c.postService.GetPosts(ctx.Request.Context())
	if err != nil {
		logFailure(ctx, "list posts", err)
		restblog.SkipCache(ctx.Context)
		posts = nil
	}
	slog.InfoContext(ctx.Request.Context(), "page visited", slog.String("ip", ctx.ClientIP()))
	ctx.Render("index", gin.H{"Blogs": posts})
}

func (c *PostController) NewPost(ctx *restblog.Context) {
	ctx.Render("new", gin.H{"Title": "New Blog"})
}

func (c *PostController) CreatePost(ctx *restblog.Context) {
	form, err := bindPostForm(ctx)
	if err != nil {
		logFailure(ctx, "bind new post", err)
		ctx.RedirectAfter("/blogs/new")
		return
	}

	post, err := c.postService.CreatePost(ctx.Request.Context(), form)
	if err != nil {
		logFailure(ctx, "create post", err)
		ctx.RedirectAfter("/blogs/new")
		return
	}

	slog.InfoContext(ctx.Request.Context(), "new post added", slog.String("id", post.ID.Hex()))
	ctx.RedirectAfter("/blogs")
}

func (c *PostController) ShowPost(ctx *restblog.Context) {
	post, err := c.postService.GetPostById(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		logFailure(ctx, "show post", err)
		ctx.Redirect(http.StatusFound, "/")
		return
	}
	ctx.Render("show", gin.H{"Title": post.Title, "Blog": post})
}

func (c *PostController) EditPost(ctx *restblog.Context) {
	post, err := c.postService.GetPostById(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		logFailure(ctx, "edit post", err)
		ctx.Redirect(http.StatusFound, "/")
		return
	}
	ctx.Render("edit", gin.H{"Title": "Edit " + post.Title, "Blog": post})
}

func (c *PostController) UpdatePost(ctx *restblog.Context) {
	id := ctx.Param("id")
	form, err := bindPostForm(ctx)
	if err != nil {
		logFailure(ctx, "bind post update", err)
		ctx.RedirectAfter("/")
		return
	}

	post, err := c.postService.UpdatePost(ctx.Request.Context(), id, form)
	if err != nil {
		logFailure(ctx, "update post", err)
		ctx.RedirectAfter("/")
		return
	}

	slog.InfoContext(ctx.Request.Context(), "post updated", slog.String("id", post.ID.Hex()))
	ctx.RedirectAfter("/blogs/" + id)
}

// DeletePost redirects home whether or not the delete succeeded.
func (c *PostController) DeletePost(ctx *restblog.Context) {
	id := ctx.Param("id")
	if err := c.postService.DeletePost(ctx.Request.Context(), id); err != nil {
		logFailure(ctx, "delete post", err)
	} else {
		slog.InfoContext(ctx.Request.Context(), "post deleted", slog.String("id", id))
	}
	ctx.RedirectAfter("/")
}

func bindPostForm(ctx *restblog.Context) (model.PostForm, error) {
	if ctx.ContentType() == gin.MIMEJSON {
		req, err := restblog.BindRequest[model.PostRequest](ctx.Context)
		return req.Blog, err
	}
	return restblog.BindRequest[model.PostForm](ctx.Context)
}

func logFailure(ctx *restblog.Context, op string, err error) {
	level := slog.LevelError
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
		level = slog.LevelWarn
	}
	slog.Log(ctx.Request.Context(), level, op+" failed", slog.String("error", err.Error()))
}
