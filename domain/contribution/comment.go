package contribution

import (
	"strings"

	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// Comment is a threaded comment on a contribution node.
// Replies nest one level deep; a reply's Replies slice is always empty.
type Comment struct {
	ID        string    `json:"id" dynamodbav:"ID"`
	UserID    string    `json:"userId" dynamodbav:"UserID"`
	Username  string    `json:"username,omitempty" dynamodbav:"Username,omitempty"`
	Text      string    `json:"text" dynamodbav:"Text"`
	CreatedAt string    `json:"createdAt" dynamodbav:"CreatedAt"`
	Replies   []Comment `json:"replies,omitempty" dynamodbav:"Replies,omitempty"`
}

func (c *Comment) validate() error {
	if c.ID == "" {
		return pkgerrors.NewValidationError("comment ID cannot be empty")
	}
	if c.UserID == "" {
		return pkgerrors.NewValidationError("comment userID cannot be empty")
	}
	if strings.TrimSpace(c.Text) == "" {
		return pkgerrors.NewValidationError("comment text cannot be empty")
	}
	return nil
}

func cloneComments(comments []Comment) []Comment {
	if comments == nil {
		return nil
	}
	out := make([]Comment, len(comments))
	for i, c := range comments {
		out[i] = c
		out[i].Replies = cloneComments(c.Replies)
	}
	return out
}
