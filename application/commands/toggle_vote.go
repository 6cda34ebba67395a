package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/domain/contribution"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// ToggleVoteCommand flips a user's vote on a contribution node.
type ToggleVoteCommand struct {
	OwnerUserID string
	PostID      string
	NodeID      string
	UserID      string
	Direction   contribution.VoteDirection
}

// Validate validates the command
func (cmd ToggleVoteCommand) Validate() error {
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
	if _, err := contribution.ParseVoteDirection(string(cmd.Direction)); err != nil {
		return err
	}
	return nil
}

// ToggleVoteHandler applies vote toggles with a conditional write.
//
// Voting on the root node is really voting on the post itself: an upvote
// toggles the post like, and downvoting the root is rejected.
type ToggleVoteHandler struct {
	treeRepo ports.TreeRepository
	postRepo ports.PostRepository
	notifier ports.ChangeNotifier
	logger   *zap.Logger
}

// NewToggleVoteHandler creates a new handler instance
func NewToggleVoteHandler(
	treeRepo ports.TreeRepository,
	postRepo ports.PostRepository,
	notifier ports.ChangeNotifier,
	logger *zap.Logger,
) *ToggleVoteHandler {
	return &ToggleVoteHandler{
		treeRepo: treeRepo,
		postRepo: postRepo,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle executes the vote toggle
func (h *ToggleVoteHandler) Handle(ctx context.Context, cmd ToggleVoteCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if cmd.NodeID == contribution.RootNodeID {
		if cmd.Direction == contribution.VoteDown {
			return pkgerrors.NewValidationError("the original post cannot be downvoted")
		}
		_, err := h.postRepo.UpdatePost(ctx, cmd.OwnerUserID, cmd.PostID, func(p *contribution.Post) error {
			return p.ToggleLike(cmd.UserID)
		})
		if err != nil {
			return err
		}
	} else {
		_, err := h.treeRepo.Update(ctx, cmd.OwnerUserID, cmd.PostID, func(t *contribution.Tree) error {
			return t.ToggleVote(cmd.NodeID, cmd.UserID, cmd.Direction)
		})
		if err != nil {
			return err
		}
	}

	if err := h.notifier.NotifyTreeChanged(ctx, cmd.PostID); err != nil {
		h.logger.Warn("change notification failed",
			zap.String("postId", cmd.PostID),
			zap.Error(err))
	}

	return nil
}
