package commands

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/domain/contribution"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
	"github.com/kryoon/backend/pkg/utils"
)

// MaxCommentLength bounds comment and reply text.
const MaxCommentLength = 2000

// AddCommentCommand posts a comment on a contribution node. When
// ReplyToCommentID is set the text is nested under that comment instead.
type AddCommentCommand struct {
	OwnerUserID      string
	PostID           string
	NodeID           string
	UserID           string
	Username         string
	Text             string
	ReplyToCommentID string
}

// Validate validates the command
func (cmd AddCommentCommand) Validate() error {
	if cmd.OwnerUserID == "" {
		return pkgerrors.NewValidationError("owner user ID is required")
	}
	if cmd.PostID == "" {
		return pkgerrors.NewValidationError("post ID is required")
	}
	if cmd.NodeID == "" {
		return pkgerrors.NewValidationError("node ID is required")
	}
	if cmd.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	if strings.TrimSpace(cmd.Text) == "" {
		return pkgerrors.NewValidationError("comment text cannot be empty")
	}
	if len(cmd.Text) > MaxCommentLength {
		return pkgerrors.NewValidationError("comment text is too long")
	}
	return nil
}

// AddCommentHandler handles the AddCommentCommand
type AddCommentHandler struct {
	treeRepo ports.TreeRepository
	notifier ports.ChangeNotifier
	logger   *zap.Logger
}

// NewAddCommentHandler creates a new handler instance
func NewAddCommentHandler(treeRepo ports.TreeRepository, notifier ports.ChangeNotifier, logger *zap.Logger) *AddCommentHandler {
	return &AddCommentHandler{
		treeRepo: treeRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle executes the comment write and returns the stored comment
func (h *AddCommentHandler) Handle(ctx context.Context, cmd AddCommentCommand) (*contribution.Comment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	comment := contribution.Comment{
		ID:        uuid.New().String(),
		UserID:    cmd.UserID,
		Username:  cmd.Username,
		Text:      cmd.Text,
		CreatedAt: utils.NowRFC3339(),
	}

	_, err := h.treeRepo.Update(ctx, cmd.OwnerUserID, cmd.PostID, func(t *contribution.Tree) error {
		if cmd.ReplyToCommentID != "" {
			return t.AddReply(cmd.NodeID, cmd.ReplyToCommentID, comment)
		}
		return t.AddComment(cmd.NodeID, comment)
	})
	if err != nil {
		return nil, err
	}

	if err := h.notifier.NotifyTreeChanged(ctx, cmd.PostID); err != nil {
		h.logger.Warn("change notification failed",
			zap.String("postId", cmd.PostID),
			zap.Error(err))
	}

	return &comment, nil
}
