package ports

import (
	"context"
	"io"
)

// BlobStore stores contribution media and resolves storage keys to
// browser-playable URLs.
type BlobStore interface {
	// Upload writes the object and returns the storage key it was
	// written under.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// ResolveURL exchanges a storage key for a time-limited URL.
	ResolveURL(ctx context.Context, key string) (string, error)
}

// Profile is the public display identity of a user.
type Profile struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// IdentityStore looks up user display profiles.
type IdentityStore interface {
	GetProfile(ctx context.Context, userID string) (Profile, error)
}

// ChangeNotifier fans out tree-change signals between server instances.
// Subscribers receive a tick per change; the payload carries no data, the
// receiver is expected to re-read the tree.
type ChangeNotifier interface {
	NotifyTreeChanged(ctx context.Context, postID string) error
	// SubscribeTreeChanged returns a channel that ticks on every change
	// to the post's tree and a cancel func that releases the
	// subscription and closes the channel.
	SubscribeTreeChanged(ctx context.Context, postID string) (<-chan struct{}, func(), error)
}
