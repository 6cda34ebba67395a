package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/domain/contribution"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// TogglePostLikeCommand flips a user's like on the original post.
type TogglePostLikeCommand struct {
	OwnerUserID string
	PostID      string
	UserID      string
}

// Validate validates the command
func (cmd TogglePostLikeCommand) Validate() error {
	if cmd.OwnerUserID == "" {
		return pkgerrors.NewValidationError("owner user ID is required")
	}
	if cmd.PostID == "" {
		return pkgerrors.NewValidationError("post ID is required")
	}
	if cmd.UserID == "" {
		return pkgerrors.NewValidationError("user ID is required")
	}
	return nil
}

// TogglePostLikeHandler handles the TogglePostLikeCommand
type TogglePostLikeHandler struct {
	postRepo ports.PostRepository
	notifier ports.ChangeNotifier
	logger   *zap.Logger
}

// NewTogglePostLikeHandler creates a new handler instance
func NewTogglePostLikeHandler(postRepo ports.PostRepository, notifier ports.ChangeNotifier, logger *zap.Logger) *TogglePostLikeHandler {
	return &TogglePostLikeHandler{
		postRepo: postRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle executes the like toggle
func (h *TogglePostLikeHandler) Handle(ctx context.Context, cmd TogglePostLikeCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	_, err := h.postRepo.UpdatePost(ctx, cmd.OwnerUserID, cmd.PostID, func(p *contribution.Post) error {
		return p.ToggleLike(cmd.UserID)
	})
	if err != nil {
		return err
	}

	if err := h.notifier.NotifyTreeChanged(ctx, cmd.PostID); err != nil {
		h.logger.Warn("change notification failed",
			zap.String("postId", cmd.PostID),
			zap.Error(err))
	}

	return nil
}
