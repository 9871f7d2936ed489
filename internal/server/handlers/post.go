package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/metrics"
	"github.com/iudanet/gophgram/internal/server/service"
	"github.com/iudanet/gophgram/pkg/api"
)

// PostService is the post business logic used by PostHandler
type PostService interface {
	Create(ctx context.Context, caller models.Identity, req api.CreatePostRequest, image io.Reader) (*models.PostWithMeta, error)
	List(ctx context.Context) ([]*models.PostWithMeta, error)
	Get(ctx context.Context, postID string) (*models.PostWithMeta, error)
	Authorize(ctx context.Context, caller models.Identity, postID string) error
	Update(ctx context.Context, caller models.Identity, postID string, req api.UpdatePostRequest, image io.Reader) (*models.PostWithMeta, error)
	Delete(ctx context.Context, caller models.Identity, postID string) error
	ToggleLike(ctx context.Context, caller models.Identity, postID string) (*service.LikeResult, error)
}

// PostHandler обрабатывает запросы к постам
type PostHandler struct {
	base
	posts   PostService
	present *Presenter
	metrics *metrics.Metrics
}

// NewPostHandler создает handler постов
func NewPostHandler(logger *slog.Logger, posts PostService, present *Presenter, m *metrics.Metrics, maxBody int64) *PostHandler {
	return &PostHandler{
		base:    base{logger: logger, maxBody: maxBody},
		posts:   posts,
		present: present,
		metrics: m,
	}
}

// Create обрабатывает POST /posts
// multipart: title, content, image; или JSON без картинки
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	var req api.CreatePostRequest
	body, err := h.decode(w, r, &req, "image")
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	defer body.Close()

	post, err := h.posts.Create(r.Context(), caller, req, body.File())
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.metrics.Event(metrics.EventPostCreated)
	h.sendJSON(w, api.PostResponse{Post: h.present.Post(post)}, http.StatusCreated)
}

// List обрабатывает GET /posts
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSON(w, api.PostListResponse{Posts: h.present.Posts(posts)}, http.StatusOK)
}

// Get обрабатывает GET /posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSON(w, api.PostResponse{Post: h.present.Post(post)}, http.StatusOK)
}

// Update обрабатывает PUT /posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	// чужой пост отклоняется до разбора тела
	if err := h.posts.Authorize(r.Context(), caller, r.PathValue("id")); err != nil {
		h.sendError(w, r, err)
		return
	}

	var req api.UpdatePostRequest
	body, err := h.decode(w, r, &req, "image")
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	defer body.Close()

	post, err := h.posts.Update(r.Context(), caller, r.PathValue("id"), req, body.File())
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSON(w, api.PostResponse{Post: h.present.Post(post)}, http.StatusOK)
}

// Delete обрабатывает DELETE /posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	if err := h.posts.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		h.sendError(w, r, err)
		return
	}

	h.metrics.Event(metrics.EventPostDeleted)
	h.sendJSON(w, api.MessageResponse{Message: "post deleted"}, http.StatusOK)
}

// Like обрабатывает POST /posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	postID := r.PathValue("id")
	res, err := h.posts.ToggleLike(r.Context(), caller, postID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.metrics.Event(metrics.EventLikeToggled)
	h.sendJSON(w, likeResponse(postID, res), http.StatusOK)
}

func likeResponse(id string, res *service.LikeResult) api.LikeResponse {
	likes := nonNil(res.Likes)
	return api.LikeResponse{
		ID:        id,
		Likes:     likes,
		LikeCount: len(likes),
		Liked:     res.Liked,
	}
}
