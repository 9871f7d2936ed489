package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/metrics"
	"github.com/iudanet/gophgram/internal/server/service"
	"github.com/iudanet/gophgram/pkg/api"
)

// CommentService is the comment business logic used by CommentHandler
type CommentService interface {
	Create(ctx context.Context, caller models.Identity, postID string, req api.CreateCommentRequest) (*models.CommentWithAuthor, error)
	List(ctx context.Context, postID string) ([]*models.CommentWithAuthor, error)
	Count(ctx context.Context, postID string) (int, error)
	Authorize(ctx context.Context, caller models.Identity, commentID string) error
	Update(ctx context.Context, caller models.Identity, commentID string, req api.UpdateCommentRequest) (*models.CommentWithAuthor, error)
	Delete(ctx context.Context, caller models.Identity, commentID string) error
	ToggleLike(ctx context.Context, caller models.Identity, commentID string) (*service.LikeResult, error)
}

// CommentHandler обрабатывает запросы к комментариям
type CommentHandler struct {
	base
	comments CommentService
	present  *Presenter
	metrics  *metrics.Metrics
}

// NewCommentHandler создает handler комментариев
func NewCommentHandler(logger *slog.Logger, comments CommentService, present *Presenter, m *metrics.Metrics, maxBody int64) *CommentHandler {
	return &CommentHandler{
		base:     base{logger: logger, maxBody: maxBody},
		comments: comments,
		present:  present,
		metrics:  m,
	}
}

// List обрабатывает GET /posts/{postId}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context(), r.PathValue("postId"))
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSON(w, api.CommentListResponse{Comments: h.present.Comments(comments)}, http.StatusOK)
}

// Count обрабатывает GET /posts/{postId}/comments/count
func (h *CommentHandler) Count(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postId")
	n, err := h.comments.Count(r.Context(), postID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSON(w, api.CountResponse{PostID: postID, Count: n}, http.StatusOK)
}

// Create обрабатывает POST /posts/{postId}/comments
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	var req api.CreateCommentRequest
	body, err := h.decode(w, r, &req, "")
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	defer body.Close()

	comment, err := h.comments.Create(r.Context(), caller, r.PathValue("postId"), req)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.metrics.Event(metrics.EventCommentCreated)
	h.sendJSON(w, api.CommentResponse{Comment: h.present.Comment(comment)}, http.StatusCreated)
}

// Update обрабатывает PUT /comments/{id}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	if err := h.comments.Authorize(r.Context(), caller, r.PathValue("id")); err != nil {
		h.sendError(w, r, err)
		return
	}

	var req api.UpdateCommentRequest
	body, err := h.decode(w, r, &req, "")
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	defer body.Close()

	comment, err := h.comments.Update(r.Context(), caller, r.PathValue("id"), req)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSON(w, api.CommentResponse{Comment: h.present.Comment(comment)}, http.StatusOK)
}

// Delete обрабатывает DELETE /comments/{id}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	if err := h.comments.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		h.sendError(w, r, err)
		return
	}

	h.metrics.Event(metrics.EventCommentDeleted)
	h.sendJSON(w, api.MessageResponse{Message: "comment deleted"}, http.StatusOK)
}

// Like обрабатывает POST /comments/{id}/like
func (h *CommentHandler) Like(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	commentID := r.PathValue("id")
	res, err := h.comments.ToggleLike(r.Context(), caller, commentID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.metrics.Event(metrics.EventLikeToggled)
	h.sendJSON(w, likeResponse(commentID, res), http.StatusOK)
}
