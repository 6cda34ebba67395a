package queries

import (
	"fmt"
	"net/url"

	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// BuildShareLink returns the canonical deep-link path for a node in a
// post's contribution tree. The node segment is omitted for root links.
func BuildShareLink(ownerUserID, postID, nodeID string) (string, error) {
	if ownerUserID == "" || postID == "" {
		return "", pkgerrors.NewValidationError("owner user ID and post ID are required")
	}
	base := fmt.Sprintf("/contribute/%s/%s",
		url.PathEscape(ownerUserID), url.PathEscape(postID))
	if nodeID == "" {
		return base, nil
	}
	return base + "/" + url.PathEscape(nodeID), nil
}
