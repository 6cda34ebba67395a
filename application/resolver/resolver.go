// Package resolver turns stored node records into displayable ones:
// storage keys become playable URLs and owner IDs become usernames and
// avatars. Resolution is concurrent and degrades per node, never failing
// the whole batch.
package resolver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/domain/contribution"
)

// Fallbacks used when a node's media or identity cannot be resolved.
const (
	PlaceholderMediaURL  = "https://placehold.co/400x300?text=Media+Unavailable"
	PlaceholderAvatarURL = "https://placehold.co/64x64?text=%3F"
	UnknownUsername      = "Unknown"
)

const (
	profileCacheTTL = 5 * time.Minute
	maxConcurrency  = 8
	perNodeTimeout  = 10 * time.Second
)

// Resolver resolves media references and owner identities for node
// batches. Safe for concurrent use.
type Resolver struct {
	blob     ports.BlobStore
	identity ports.IdentityStore
	cache    *profileCache
	logger   *zap.Logger
}

// NewResolver creates a Resolver with a shared profile cache
func NewResolver(blob ports.BlobStore, identity ports.IdentityStore, logger *zap.Logger) *Resolver {
	return &Resolver{
		blob:     blob,
		identity: identity,
		cache:    newProfileCache(profileCacheTTL),
		logger:   logger,
	}
}

// Resolve returns a fully settled copy of nodes: every element has a
// playable media URL and owner display fields, with placeholders standing
// in wherever a lookup failed. Input order is preserved and the input
// slice is never mutated.
//
// Nodes with no recorded owner are attributed to subjectUserID, matching
// how legacy records were written before owner tracking.
func (r *Resolver) Resolve(ctx context.Context, nodes []contribution.Node, subjectUserID string) []contribution.Node {
	out := make([]contribution.Node, len(nodes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for i := range nodes {
		i := i
		g.Go(func() error {
			nodeCtx, cancel := context.WithTimeout(gctx, perNodeTimeout)
			defer cancel()
			out[i] = r.resolveNode(nodeCtx, nodes[i], subjectUserID)
			return nil
		})
	}

	// Workers never return errors; degradation is per node.
	_ = g.Wait()

	return out
}

func (r *Resolver) resolveNode(ctx context.Context, n contribution.Node, subjectUserID string) contribution.Node {
	resolved := n.Clone()

	if !resolved.HasResolvedMedia() {
		resolved.MediaRef = r.resolveMedia(ctx, resolved.ID, resolved.MediaRef)
	}

	ownerID := resolved.OwnerUserID
	if ownerID == "" {
		ownerID = subjectUserID
		resolved.OwnerUserID = subjectUserID
	}
	profile := r.resolveProfile(ctx, ownerID)
	resolved.OwnerUsername = profile.Username
	resolved.OwnerAvatarURL = profile.AvatarURL

	return resolved
}

func (r *Resolver) resolveMedia(ctx context.Context, nodeID, mediaRef string) string {
	if mediaRef == "" {
		return PlaceholderMediaURL
	}

	url, err := r.blob.ResolveURL(ctx, mediaRef)
	if err != nil {
		r.logger.Warn("media resolution failed, using placeholder",
			zap.String("nodeId", nodeID),
			zap.String("mediaRef", mediaRef),
			zap.Error(err))
		return PlaceholderMediaURL
	}
	return url
}

func (r *Resolver) resolveProfile(ctx context.Context, userID string) ports.Profile {
	fallback := ports.Profile{Username: UnknownUsername, AvatarURL: PlaceholderAvatarURL}
	if userID == "" {
		return fallback
	}

	if cached, ok := r.cache.get(userID); ok {
		return cached
	}

	profile, err := r.identity.GetProfile(ctx, userID)
	if err != nil {
		r.logger.Warn("identity resolution failed, using placeholder",
			zap.String("userId", userID),
			zap.Error(err))
		return fallback
	}
	if profile.Username == "" {
		profile.Username = UnknownUsername
	}
	if profile.AvatarURL == "" {
		profile.AvatarURL = PlaceholderAvatarURL
	}

	r.cache.set(userID, profile)
	return profile
}
