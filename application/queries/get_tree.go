// Package queries holds the read-side operations: assembling a resolved,
// laid-out view of a post's contribution tree.
package queries

import (
	"context"

	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/application/resolver"
	"github.com/kryoon/backend/domain/contribution"
	"github.com/kryoon/backend/domain/layout"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// GetTreeQuery requests the laid-out contribution tree for one post.
// FocusNodeID comes from share-link deep links; HoveredNodeID drives
// highlight state for the requesting client.
type GetTreeQuery struct {
	OwnerUserID   string
	PostID        string
	ViewerUserID  string
	FocusNodeID   string
	HoveredNodeID string
}

// Validate validates the query
func (q GetTreeQuery) Validate() error {
	if q.OwnerUserID == "" {
		return pkgerrors.NewValidationError("owner user ID is required")
	}
	if q.PostID == "" {
		return pkgerrors.NewValidationError("post ID is required")
	}
	return nil
}

// TreeView is the assembled read model: resolved nodes with positions,
// classified edges, and the share-link focus if it still exists.
type TreeView struct {
	PostID      string        `json:"postId"`
	OwnerUserID string        `json:"ownerUserId"`
	Layout      layout.Result `json:"layout"`
	FocusNodeID string        `json:"focusNodeId,omitempty"`
	Version     int           `json:"version"`
}

// GetTreeHandler loads the post and tree, resolves node media and
// identities, merges the synthetic root, and runs layout.
type GetTreeHandler struct {
	postRepo ports.PostRepository
	treeRepo ports.TreeRepository
	resolver *resolver.Resolver
	cfg      layout.Config
	logger   *zap.Logger
}

// NewGetTreeHandler creates a new handler instance
func NewGetTreeHandler(
	postRepo ports.PostRepository,
	treeRepo ports.TreeRepository,
	res *resolver.Resolver,
	logger *zap.Logger,
) *GetTreeHandler {
	return &GetTreeHandler{
		postRepo: postRepo,
		treeRepo: treeRepo,
		resolver: res,
		cfg:      layout.DefaultConfig(),
		logger:   logger,
	}
}

// Handle executes the query
func (h *GetTreeHandler) Handle(ctx context.Context, q GetTreeQuery) (*TreeView, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	post, err := h.postRepo.GetPost(ctx, q.OwnerUserID, q.PostID)
	if err != nil {
		return nil, err
	}

	tree, err := h.treeRepo.Get(ctx, q.OwnerUserID, q.PostID)
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			return nil, err
		}
		// A post with no contributions yet renders as just its root.
		tree = contribution.NewTree(q.PostID)
	}

	merged := tree.NodesWithRoot(post.RootNode())
	resolved := h.resolver.Resolve(ctx, merged, post.OwnerUserID)
	result := layout.Compute(resolved, tree.Edges, q.HoveredNodeID, h.cfg)

	// A stale share link pointing at a removed node degrades to no focus.
	focus := q.FocusNodeID
	if focus != "" && !tree.HasNode(focus) {
		h.logger.Debug("focus node no longer exists",
			zap.String("postId", q.PostID),
			zap.String("focusNodeId", focus))
		focus = ""
	}

	return &TreeView{
		PostID:      q.PostID,
		OwnerUserID: q.OwnerUserID,
		Layout:      result,
		FocusNodeID: focus,
		Version:     tree.Version,
	}, nil
}
