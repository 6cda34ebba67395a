package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/commands"
	"github.com/kryoon/backend/application/commands/bus"
	"github.com/kryoon/backend/application/queries"
	"github.com/kryoon/backend/domain/contribution"
	"github.com/kryoon/backend/pkg/auth"
	"github.com/kryoon/backend/pkg/common"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
	"github.com/kryoon/backend/pkg/utils"
)

// multipartMemoryLimit is how much of an upload is buffered in memory
// before spilling to disk. Uploads themselves are capped by command
// validation, not by this.
const multipartMemoryLimit = 8 << 20

// ContributionHandler serves the write endpoints: submissions, votes,
// likes, and comments.
type ContributionHandler struct {
	commandBus *bus.CommandBus
	submit     *commands.SubmitContributionHandler
	comments   *commands.AddCommentHandler
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewContributionHandler creates a new contribution handler
func NewContributionHandler(
	commandBus *bus.CommandBus,
	submit *commands.SubmitContributionHandler,
	comments *commands.AddCommentHandler,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *ContributionHandler {
	return &ContributionHandler{
		commandBus: commandBus,
		submit:     submit,
		comments:   comments,
		errors:     errorHandler,
		logger:     logger,
	}
}

// Submit handles POST /contribute/{ownerUserID}/{postID}: a multipart
// form with the media file and its metadata fields.
func (h *ContributionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	// Bound the request body; the command enforces the exact media cap.
	r.Body = http.MaxBytesReader(w, r.Body, commands.MaxUploadBytes+multipartMemoryLimit)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("a media file is required"))
		return
	}
	defer file.Close()

	ownerUserID := chi.URLParam(r, "ownerUserID")
	postID := chi.URLParam(r, "postID")

	cmd := commands.SubmitContributionCommand{
		OwnerUserID:     ownerUserID,
		PostID:          postID,
		SubmitterUserID: user.UserID,
		ParentNodeID:    r.FormValue("parentNodeId"),
		CrossTargetID:   r.FormValue("crossTargetId"),
		Prompt:          r.FormValue("prompt"),
		ModelName:       r.FormValue("modelName"),
		ChatLink:        r.FormValue("chatLink"),
		File:            file,
		FileName:        header.Filename,
		FileSize:        header.Size,
		ContentType:     header.Header.Get("Content-Type"),
	}

	node, err := h.submit.Handle(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	shareLink, err := queries.BuildShareLink(ownerUserID, postID, node.ID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"node":      node,
		"shareLink": shareLink,
	})
}

type voteRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// ToggleVote handles POST .../nodes/{nodeID}/votes
func (h *ContributionHandler) ToggleVote(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	err = h.commandBus.Send(r.Context(), commands.ToggleVoteCommand{
		OwnerUserID: chi.URLParam(r, "ownerUserID"),
		PostID:      chi.URLParam(r, "postID"),
		NodeID:      chi.URLParam(r, "nodeID"),
		UserID:      user.UserID,
		Direction:   contribution.VoteDirection(req.Direction),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, nil)
}

// ToggleLike handles POST .../likes
func (h *ContributionHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	err = h.commandBus.Send(r.Context(), commands.TogglePostLikeCommand{
		OwnerUserID: chi.URLParam(r, "ownerUserID"),
		PostID:      chi.URLParam(r, "postID"),
		UserID:      user.UserID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, nil)
}

type commentRequest struct {
	Text             string `json:"text" validate:"required,max=2000"`
	Username         string `json:"username,omitempty"`
	ReplyToCommentID string `json:"replyToCommentId,omitempty"`
}

// AddComment handles POST .../nodes/{nodeID}/comments
func (h *ContributionHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body"))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError(err.Error()))
		return
	}

	comment, err := h.comments.Handle(r.Context(), commands.AddCommentCommand{
		OwnerUserID:      chi.URLParam(r, "ownerUserID"),
		PostID:           chi.URLParam(r, "postID"),
		NodeID:           chi.URLParam(r, "nodeID"),
		UserID:           user.UserID,
		Username:         req.Username,
		Text:             req.Text,
		ReplyToCommentID: req.ReplyToCommentID,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, comment)
}
