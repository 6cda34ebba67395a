package contribution

import (
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// Post is the original media post a contribution tree hangs off.
// It lives in the owner's user document, not in the contributions
// document; the tree's root node is synthesized from it on every read.
type Post struct {
	ID          string   `json:"id" dynamodbav:"ID"`
	OwnerUserID string   `json:"ownerUserId" dynamodbav:"OwnerUserID"`
	MediaURL    string   `json:"mediaUrl" dynamodbav:"MediaURL"`
	Prompt      string   `json:"prompt" dynamodbav:"Prompt"`
	ModelName   string   `json:"modelName" dynamodbav:"ModelName"`
	LikerIDs    []string `json:"likerIds" dynamodbav:"LikerIDs"`
	ChatLink    string   `json:"chatLink,omitempty" dynamodbav:"ChatLink,omitempty"`
	CreatedAt   string   `json:"createdAt" dynamodbav:"CreatedAt"`
	Version     int      `json:"-" dynamodbav:"Version"`
}

// HasLike reports whether the user has liked the post
func (p *Post) HasLike(userID string) bool {
	return containsID(p.LikerIDs, userID)
}

// ToggleLike flips the user's like on the post
func (p *Post) ToggleLike(userID string) error {
	if userID == "" {
		return pkgerrors.NewValidationError("userID cannot be empty")
	}
	if p.HasLike(userID) {
		p.LikerIDs = removeID(p.LikerIDs, userID)
	} else {
		p.LikerIDs = append(p.LikerIDs, userID)
	}
	return nil
}

// RootNode synthesizes the tree's root node from the post's own fields.
// The root carries the post's likes as its vote set and is never written
// into the contributions document.
func (p *Post) RootNode() Node {
	return Node{
		ID:          RootNodeID,
		MediaRef:    p.MediaURL,
		Prompt:      p.Prompt,
		ModelName:   p.ModelName,
		OwnerUserID: p.OwnerUserID,
		UpvoterIDs:  append([]string(nil), p.LikerIDs...),
		CreatedAt:   p.CreatedAt,
		ChatLink:    p.ChatLink,
	}
}
