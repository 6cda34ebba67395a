// Package memory provides in-memory implementations of the application
// ports. They back local development and tests; the conditional-write
// semantics mirror the DynamoDB implementations.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/domain/contribution"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

func treeKey(ownerUserID, postID string) string {
	return ownerUserID + "/" + postID
}

// TreeRepository is an in-memory ports.TreeRepository.
type TreeRepository struct {
	mu    sync.Mutex
	trees map[string]*contribution.Tree

	// FailWrites makes every Update fail after fn ran, for exercising
	// rollback paths.
	FailWrites bool
}

// NewTreeRepository creates an empty in-memory tree repository
func NewTreeRepository() *TreeRepository {
	return &TreeRepository{trees: make(map[string]*contribution.Tree)}
}

// Get implements ports.TreeRepository
func (r *TreeRepository) Get(ctx context.Context, ownerUserID, postID string) (*contribution.Tree, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trees[treeKey(ownerUserID, postID)]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("contribution tree")
	}
	return t.Clone(), nil
}

// Create implements ports.TreeRepository
func (r *TreeRepository) Create(ctx context.Context, ownerUserID string, tree *contribution.Tree) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := treeKey(ownerUserID, tree.PostID)
	if _, exists := r.trees[key]; exists {
		return pkgerrors.NewConflictError("contribution tree already exists")
	}
	r.trees[key] = tree.Clone()
	return nil
}

// Update implements ports.TreeRepository
func (r *TreeRepository) Update(ctx context.Context, ownerUserID, postID string, fn func(*contribution.Tree) error) (*contribution.Tree, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := treeKey(ownerUserID, postID)
	stored, ok := r.trees[key]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("contribution tree")
	}

	updated := stored.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	if r.FailWrites {
		return nil, pkgerrors.NewDatabaseError("write", fmt.Errorf("simulated write failure"))
	}

	updated.Version = stored.Version + 1
	r.trees[key] = updated
	return updated.Clone(), nil
}

// PostRepository is an in-memory ports.PostRepository.
type PostRepository struct {
	mu    sync.Mutex
	posts map[string]*contribution.Post

	FailWrites bool
}

// NewPostRepository creates an empty in-memory post repository
func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]*contribution.Post)}
}

// Put seeds a post, for tests and local bootstrap
func (r *PostRepository) Put(p *contribution.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	cp.LikerIDs = append([]string(nil), p.LikerIDs...)
	r.posts[treeKey(p.OwnerUserID, p.ID)] = &cp
}

// GetPost implements ports.PostRepository
func (r *PostRepository) GetPost(ctx context.Context, ownerUserID, postID string) (*contribution.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[treeKey(ownerUserID, postID)]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("post")
	}
	cp := *p
	cp.LikerIDs = append([]string(nil), p.LikerIDs...)
	return &cp, nil
}

// UpdatePost implements ports.PostRepository
func (r *PostRepository) UpdatePost(ctx context.Context, ownerUserID, postID string, fn func(*contribution.Post) error) (*contribution.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := treeKey(ownerUserID, postID)
	stored, ok := r.posts[key]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("post")
	}

	updated := *stored
	updated.LikerIDs = append([]string(nil), stored.LikerIDs...)
	if err := fn(&updated); err != nil {
		return nil, err
	}
	if r.FailWrites {
		return nil, pkgerrors.NewDatabaseError("write", fmt.Errorf("simulated write failure"))
	}

	updated.Version = stored.Version + 1
	r.posts[key] = &updated
	cp := updated
	cp.LikerIDs = append([]string(nil), updated.LikerIDs...)
	return &cp, nil
}

// IdentityStore is an in-memory ports.IdentityStore.
type IdentityStore struct {
	mu       sync.RWMutex
	profiles map[string]ports.Profile
}

// NewIdentityStore creates an empty in-memory identity store
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{profiles: make(map[string]ports.Profile)}
}

// Put seeds a profile
func (s *IdentityStore) Put(userID string, p ports.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = p
}

// GetProfile implements ports.IdentityStore
func (s *IdentityStore) GetProfile(ctx context.Context, userID string) (ports.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return ports.Profile{}, pkgerrors.NewNotFoundError("profile")
	}
	return p, nil
}

// BlobStore is an in-memory ports.BlobStore that records uploads.
type BlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	FailUploads bool
}

// NewBlobStore creates an empty in-memory blob store
func NewBlobStore() *BlobStore {
	return &BlobStore{objects: make(map[string][]byte)}
}

// Upload implements ports.BlobStore
func (s *BlobStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if s.FailUploads {
		return "", pkgerrors.NewExternalError("upload rejected", fmt.Errorf("simulated upload failure"))
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return key, nil
}

// ResolveURL implements ports.BlobStore
func (s *BlobStore) ResolveURL(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return "", pkgerrors.NewNotFoundError("object")
	}
	return "https://blobs.local/" + key, nil
}

// UploadCount returns how many objects have been stored
func (s *BlobStore) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// Notifier is an in-process ports.ChangeNotifier backed by channels.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[int]chan struct{}
	next int
}

// NewNotifier creates an in-process change notifier
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[int]chan struct{})}
}

// NotifyTreeChanged implements ports.ChangeNotifier
func (n *Notifier) NotifyTreeChanged(ctx context.Context, postID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[postID] {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber is behind; it re-reads on the next tick anyway.
		}
	}
	return nil
}

// CloseAll force-closes every subscription for a post, simulating a
// broker-side disconnect.
func (n *Notifier) CloseAll(postID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, ch := range n.subs[postID] {
		delete(n.subs[postID], id)
		close(ch)
	}
}

// SubscribeTreeChanged implements ports.ChangeNotifier
func (n *Notifier) SubscribeTreeChanged(ctx context.Context, postID string) (<-chan struct{}, func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs[postID] == nil {
		n.subs[postID] = make(map[int]chan struct{})
	}
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[postID][id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[postID][id]; ok {
			delete(n.subs[postID], id)
			close(sub)
		}
	}
	return ch, cancel, nil
}
