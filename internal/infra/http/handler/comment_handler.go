package handler

import (
	"net/http"
	"time"

	"github.com/incidenthq/api/internal/app"
	httpx "github.com/incidenthq/api/internal/infra/http"
	"github.com/incidenthq/api/internal/infra/http/middleware"
	"github.com/incidenthq/api/pkg/apierror"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/logger"
	"github.com/incidenthq/api/pkg/validator"
)

// CommentHandler handles report comment requests.
type CommentHandler struct {
	commentService *app.CommentService
	validator      *validator.Validator
	logger         *logger.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService *app.CommentService, log *logger.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		validator:      validator.New(),
		logger:         log.With("handler", "comment"),
	}
}

// CommentResponse is the API representation of a comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	ReportID   string    `json:"report_id"`
	AuthorID   string    `json:"author_id"`
	Body       string    `json:"body"`
	Visibility string    `json:"visibility"`
	IsMarkdown bool      `json:"is_markdown"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toCommentResponse(c *report.Comment) CommentResponse {
	return CommentResponse{
		ID:         c.ID().String(),
		ReportID:   c.ReportID().String(),
		AuthorID:   c.AuthorID().String(),
		Body:       c.Body(),
		Visibility: string(c.Visibility()),
		IsMarkdown: c.IsMarkdown(),
		CreatedAt:  c.CreatedAt(),
		UpdatedAt:  c.UpdatedAt(),
	}
}

// AddCommentRequest is the request body for adding a comment.
type AddCommentRequest struct {
	Body       string `json:"body" validate:"required,min=1,max=10000"`
	Visibility string `json:"visibility" validate:"required,comment_visibility"`
	IsMarkdown bool   `json:"is_markdown"`
}

// Add adds a comment to a report.
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req AddCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	c, err := h.commentService.AddComment(r.Context(), actorID, app.AddCommentInput{
		ReportID:   httpx.PathParam(r, "reportID"),
		Body:       req.Body,
		Visibility: req.Visibility,
		IsMarkdown: req.IsMarkdown,
	})
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCommentResponse(c))
}

// List lists a report's comments visible to the caller.
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	comments, err := h.commentService.ListComments(r.Context(), actorID, httpx.PathParam(r, "reportID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	data := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		data = append(data, toCommentResponse(c))
	}

	respondJSON(w, http.StatusOK, ListResponse[CommentResponse]{
		Data:  data,
		Count: len(data),
	})
}

// UpdateCommentRequest is the request body for editing a comment. Both
// fields are optional; omitted fields are left unchanged.
type UpdateCommentRequest struct {
	Body       string `json:"body" validate:"omitempty,min=1,max=10000"`
	Visibility string `json:"visibility" validate:"omitempty,comment_visibility"`
}

// Update edits a comment's body and/or visibility.
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	var req UpdateCommentRequest
	if err := decodeJSON(r, &req); err != nil {
		apierror.BadRequest("Invalid request body").WriteJSON(w)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	c, err := h.commentService.UpdateComment(r.Context(), actorID, app.UpdateCommentInput{
		CommentID:  httpx.PathParam(r, "commentID"),
		Body:       req.Body,
		Visibility: req.Visibility,
	})
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toCommentResponse(c))
}

// Delete removes a comment.
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	if err := h.commentService.DeleteComment(r.Context(), actorID, httpx.PathParam(r, "commentID")); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
