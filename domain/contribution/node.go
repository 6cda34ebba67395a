package contribution

import (
	"strings"

	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// RootNodeID is the conventional identifier of the original post's node.
const RootNodeID = "1"

// VoteDirection identifies one side of the mutually exclusive vote pair.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// ParseVoteDirection validates a raw direction string
func ParseVoteDirection(s string) (VoteDirection, error) {
	switch VoteDirection(s) {
	case VoteUp, VoteDown:
		return VoteDirection(s), nil
	default:
		return "", pkgerrors.NewValidationError("vote direction must be 'up' or 'down'")
	}
}

// Node is a single contribution in a post's remix graph.
//
// MediaRef is either an absolute URL or an unresolved storage key; the
// resolver substitutes a playable URL before layout. OwnerUsername and
// OwnerAvatarURL are resolved display fields and are never persisted.
type Node struct {
	ID             string    `json:"id" dynamodbav:"ID"`
	ParentID       string    `json:"parentId,omitempty" dynamodbav:"ParentID,omitempty"`
	MediaRef       string    `json:"mediaRef" dynamodbav:"MediaRef"`
	Prompt         string    `json:"prompt" dynamodbav:"Prompt"`
	ModelName      string    `json:"modelName" dynamodbav:"ModelName"`
	OwnerUserID    string    `json:"ownerUserId,omitempty" dynamodbav:"OwnerUserID,omitempty"`
	OwnerUsername  string    `json:"ownerUsername,omitempty" dynamodbav:"-"`
	OwnerAvatarURL string    `json:"ownerAvatarUrl,omitempty" dynamodbav:"-"`
	UpvoterIDs     []string  `json:"upvoterIds" dynamodbav:"UpvoterIDs"`
	DownvoterIDs   []string  `json:"downvoterIds,omitempty" dynamodbav:"DownvoterIDs,omitempty"`
	CreatedAt      string    `json:"createdAt" dynamodbav:"CreatedAt"`
	ChatLink       string    `json:"chatLink,omitempty" dynamodbav:"ChatLink,omitempty"`
	Comments       []Comment `json:"comments,omitempty" dynamodbav:"Comments,omitempty"`
}

// IsRoot reports whether the node is the tree's root
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// HasUpvote reports whether the user has an active upvote
func (n *Node) HasUpvote(userID string) bool {
	return containsID(n.UpvoterIDs, userID)
}

// HasDownvote reports whether the user has an active downvote
func (n *Node) HasDownvote(userID string) bool {
	return containsID(n.DownvoterIDs, userID)
}

// NetVotes returns upvotes minus downvotes
func (n *Node) NetVotes() int {
	return len(n.UpvoterIDs) - len(n.DownvoterIDs)
}

// ToggleVote applies a vote toggle for the user.
//
// Up and down votes are mutually exclusive per user: voting one direction
// removes any vote in the other, and re-voting the same direction toggles
// it off.
func (n *Node) ToggleVote(userID string, direction VoteDirection) error {
	if userID == "" {
		return pkgerrors.NewValidationError("userID cannot be empty")
	}

	switch direction {
	case VoteUp:
		n.DownvoterIDs = removeID(n.DownvoterIDs, userID)
		if n.HasUpvote(userID) {
			n.UpvoterIDs = removeID(n.UpvoterIDs, userID)
		} else {
			n.UpvoterIDs = append(n.UpvoterIDs, userID)
		}
	case VoteDown:
		n.UpvoterIDs = removeID(n.UpvoterIDs, userID)
		if n.HasDownvote(userID) {
			n.DownvoterIDs = removeID(n.DownvoterIDs, userID)
		} else {
			n.DownvoterIDs = append(n.DownvoterIDs, userID)
		}
	default:
		return pkgerrors.NewValidationError("invalid vote direction")
	}

	return nil
}

// AddComment appends a comment to the node
func (n *Node) AddComment(c Comment) error {
	if err := c.validate(); err != nil {
		return err
	}
	n.Comments = append(n.Comments, c)
	return nil
}

// AddReply appends a reply under an existing comment
func (n *Node) AddReply(commentID string, reply Comment) error {
	if err := reply.validate(); err != nil {
		return err
	}
	for i := range n.Comments {
		if n.Comments[i].ID == commentID {
			n.Comments[i].Replies = append(n.Comments[i].Replies, reply)
			return nil
		}
	}
	return pkgerrors.NewNotFoundError("comment")
}

// Clone returns a deep copy of the node
func (n *Node) Clone() Node {
	out := *n
	out.UpvoterIDs = append([]string(nil), n.UpvoterIDs...)
	out.DownvoterIDs = append([]string(nil), n.DownvoterIDs...)
	out.Comments = cloneComments(n.Comments)
	return out
}

// HasResolvedMedia reports whether MediaRef is already an absolute URL
func (n *Node) HasResolvedMedia() bool {
	return strings.HasPrefix(n.MediaRef, "http://") || strings.HasPrefix(n.MediaRef, "https://")
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
