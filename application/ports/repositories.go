// Package ports defines the interfaces the application layer depends on.
// Infrastructure provides the implementations; handlers and services only
// ever see these contracts.
package ports

import (
	"context"

	"github.com/kryoon/backend/domain/contribution"
)

// TreeRepository persists one contributions document per post.
//
// Update runs a read-modify-write cycle with optimistic concurrency: the
// implementation reloads the tree, applies fn, and writes conditionally on
// the version it read, retrying a bounded number of times on conflict. fn
// must be safe to call more than once.
type TreeRepository interface {
	Get(ctx context.Context, ownerUserID, postID string) (*contribution.Tree, error)
	Create(ctx context.Context, ownerUserID string, tree *contribution.Tree) error
	Update(ctx context.Context, ownerUserID, postID string, fn func(*contribution.Tree) error) (*contribution.Tree, error)
}

// PostRepository reads and updates the original post a tree hangs off.
// UpdatePost follows the same conditional-write contract as TreeRepository.
type PostRepository interface {
	GetPost(ctx context.Context, ownerUserID, postID string) (*contribution.Post, error)
	UpdatePost(ctx context.Context, ownerUserID, postID string, fn func(*contribution.Post) error) (*contribution.Post, error)
}
