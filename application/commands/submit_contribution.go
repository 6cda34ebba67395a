// Package commands holds the write-side operations of the contribution
// service: submitting contributions, toggling votes and likes, and
// commenting. Each command validates itself before any side effect runs.
package commands

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/domain/contribution"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
	"github.com/kryoon/backend/pkg/utils"
)

// Upload limits for contribution media
const (
	MaxUploadBytes = 20 << 20 // 20 MB
)

// SubmitContributionCommand carries everything needed to add one
// contribution: the media stream plus its metadata and graph placement.
type SubmitContributionCommand struct {
	OwnerUserID     string
	PostID          string
	SubmitterUserID string

	ParentNodeID  string
	CrossTargetID string

	Prompt    string
	ModelName string
	ChatLink  string

	File        io.Reader
	FileName    string
	FileSize    int64
	ContentType string
}

// Validate checks the command before any upload happens. Size and type
// limits are enforced here so an oversized or non-media file is rejected
// without touching the blob store.
func (cmd SubmitContributionCommand) Validate() error {
	if cmd.OwnerUserID == "" {
		return pkgerrors.NewValidationError("owner user ID is required")
	}
	if cmd.PostID == "" {
		return pkgerrors.NewValidationError("post ID is required")
	}
	if cmd.SubmitterUserID == "" {
		return pkgerrors.NewValidationError("submitter user ID is required")
	}
	if strings.TrimSpace(cmd.Prompt) == "" {
		return pkgerrors.NewValidationError("prompt is required")
	}
	if strings.TrimSpace(cmd.ModelName) == "" {
		return pkgerrors.NewValidationError("model name is required")
	}
	if cmd.File == nil {
		return pkgerrors.NewValidationError("a media file is required")
	}
	if cmd.FileSize <= 0 {
		return pkgerrors.NewValidationError("file size must be positive")
	}
	if cmd.FileSize > MaxUploadBytes {
		return pkgerrors.NewValidationError(fmt.Sprintf("file exceeds the %d MB limit", MaxUploadBytes>>20))
	}
	if !isAllowedMediaType(cmd.ContentType) {
		return pkgerrors.NewValidationError("only image and video files are accepted")
	}
	return nil
}

func isAllowedMediaType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}

// SubmitContributionHandler uploads the media, appends the node and its
// edges to the tree, and broadcasts the change.
type SubmitContributionHandler struct {
	treeRepo ports.TreeRepository
	blob     ports.BlobStore
	notifier ports.ChangeNotifier
	logger   *zap.Logger
}

// NewSubmitContributionHandler creates a new handler instance
func NewSubmitContributionHandler(
	treeRepo ports.TreeRepository,
	blob ports.BlobStore,
	notifier ports.ChangeNotifier,
	logger *zap.Logger,
) *SubmitContributionHandler {
	return &SubmitContributionHandler{
		treeRepo: treeRepo,
		blob:     blob,
		notifier: notifier,
		logger:   logger,
	}
}

// Handle executes the submission. The media is uploaded first; if the
// tree write then fails the orphaned object is left for storage lifecycle
// cleanup rather than risking a node that points at nothing.
func (h *SubmitContributionHandler) Handle(ctx context.Context, cmd SubmitContributionCommand) (*contribution.Node, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	nodeID := uuid.New().String()
	key := fmt.Sprintf("posts/%s/contrib/%s%s", cmd.PostID, nodeID, path.Ext(cmd.FileName))

	storedKey, err := h.blob.Upload(ctx, key, cmd.File, cmd.FileSize, cmd.ContentType)
	if err != nil {
		return nil, pkgerrors.NewExternalError("media upload failed", err)
	}

	parentID := cmd.ParentNodeID
	if parentID == "" {
		parentID = contribution.RootNodeID
	}

	node := contribution.Node{
		ID:          nodeID,
		ParentID:    parentID,
		MediaRef:    storedKey,
		Prompt:      cmd.Prompt,
		ModelName:   cmd.ModelName,
		OwnerUserID: cmd.SubmitterUserID,
		ChatLink:    cmd.ChatLink,
		CreatedAt:   utils.NowRFC3339(),
	}

	_, err = h.treeRepo.Update(ctx, cmd.OwnerUserID, cmd.PostID, func(t *contribution.Tree) error {
		return t.AppendContribution(node, cmd.CrossTargetID)
	})
	if err != nil {
		return nil, err
	}

	if err := h.notifier.NotifyTreeChanged(ctx, cmd.PostID); err != nil {
		h.logger.Warn("change notification failed",
			zap.String("postId", cmd.PostID),
			zap.Error(err))
	}

	return &node, nil
}
