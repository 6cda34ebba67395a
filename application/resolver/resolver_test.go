package resolver

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/domain/contribution"
)

type fakeBlobStore struct {
	failKeys map[string]bool
	calls    atomic.Int64
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return key, nil
}

func (f *fakeBlobStore) ResolveURL(ctx context.Context, key string) (string, error) {
	f.calls.Add(1)
	if f.failKeys[key] {
		return "", errors.New("object not found")
	}
	return "https://cdn.example.com/" + key, nil
}

type fakeIdentityStore struct {
	profiles map[string]ports.Profile
	calls    atomic.Int64
}

func (f *fakeIdentityStore) GetProfile(ctx context.Context, userID string) (ports.Profile, error) {
	f.calls.Add(1)
	p, ok := f.profiles[userID]
	if !ok {
		return ports.Profile{}, errors.New("user not found")
	}
	return p, nil
}

func newTestResolver(blob *fakeBlobStore, identity *fakeIdentityStore) *Resolver {
	return NewResolver(blob, identity, zap.NewNop())
}

func TestResolveSettlesEveryNode(t *testing.T) {
	blob := &fakeBlobStore{failKeys: map[string]bool{"posts/p1/contrib/broken.png": true}}
	identity := &fakeIdentityStore{profiles: map[string]ports.Profile{
		"user-1": {Username: "ada", AvatarURL: "https://cdn.example.com/ada.png"},
	}}
	r := newTestResolver(blob, identity)

	nodes := []contribution.Node{
		{ID: "a", ParentID: "1", MediaRef: "posts/p1/contrib/a.png", OwnerUserID: "user-1"},
		{ID: "b", ParentID: "1", MediaRef: "posts/p1/contrib/broken.png", OwnerUserID: "ghost"},
		{ID: "c", ParentID: "a", MediaRef: "https://already.example.com/c.png", OwnerUserID: "user-1"},
	}

	out := r.Resolve(context.Background(), nodes, "viewer-1")

	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "https://cdn.example.com/posts/p1/contrib/a.png", out[0].MediaRef)
	assert.Equal(t, "ada", out[0].OwnerUsername)

	// A failed blob lookup degrades that node only.
	assert.Equal(t, PlaceholderMediaURL, out[1].MediaRef)
	assert.Equal(t, UnknownUsername, out[1].OwnerUsername)
	assert.Equal(t, PlaceholderAvatarURL, out[1].OwnerAvatarURL)

	// Already-resolved media is left alone.
	assert.Equal(t, "https://already.example.com/c.png", out[2].MediaRef)
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	blob := &fakeBlobStore{}
	identity := &fakeIdentityStore{profiles: map[string]ports.Profile{
		"user-1": {Username: "ada", AvatarURL: "https://cdn.example.com/ada.png"},
	}}
	r := newTestResolver(blob, identity)

	nodes := []contribution.Node{
		{ID: "a", ParentID: "1", MediaRef: "posts/p1/contrib/a.png", OwnerUserID: "user-1"},
	}

	_ = r.Resolve(context.Background(), nodes, "")

	assert.Equal(t, "posts/p1/contrib/a.png", nodes[0].MediaRef)
	assert.Empty(t, nodes[0].OwnerUsername)
}

func TestResolveMissingOwnerDefaultsToSubject(t *testing.T) {
	blob := &fakeBlobStore{}
	identity := &fakeIdentityStore{profiles: map[string]ports.Profile{
		"viewer-1": {Username: "viewer", AvatarURL: "https://cdn.example.com/v.png"},
	}}
	r := newTestResolver(blob, identity)

	out := r.Resolve(context.Background(), []contribution.Node{
		{ID: "a", ParentID: "1", MediaRef: "k"},
	}, "viewer-1")

	assert.Equal(t, "viewer-1", out[0].OwnerUserID)
	assert.Equal(t, "viewer", out[0].OwnerUsername)
}

func TestResolveCachesProfiles(t *testing.T) {
	blob := &fakeBlobStore{}
	identity := &fakeIdentityStore{profiles: map[string]ports.Profile{
		"user-1": {Username: "ada", AvatarURL: "https://cdn.example.com/ada.png"},
	}}
	r := newTestResolver(blob, identity)

	nodes := make([]contribution.Node, 20)
	for i := range nodes {
		nodes[i] = contribution.Node{ID: string(rune('a' + i)), ParentID: "1", MediaRef: "k", OwnerUserID: "user-1"}
	}

	_ = r.Resolve(context.Background(), nodes, "")
	first := identity.calls.Load()
	_ = r.Resolve(context.Background(), nodes, "")

	// Concurrent workers may race the first fill, but the second batch
	// is fully served from cache.
	assert.GreaterOrEqual(t, first, int64(1))
	assert.Equal(t, first, identity.calls.Load())
}

func TestResolveEmptyMediaRefGetsPlaceholder(t *testing.T) {
	blob := &fakeBlobStore{}
	identity := &fakeIdentityStore{}
	r := newTestResolver(blob, identity)

	out := r.Resolve(context.Background(), []contribution.Node{{ID: "a", ParentID: "1"}}, "")

	assert.Equal(t, PlaceholderMediaURL, out[0].MediaRef)
	assert.Equal(t, int64(0), blob.calls.Load())
}
