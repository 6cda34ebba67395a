// Package sync keeps a live, laid-out view of one post's contribution
// tree: it subscribes to change notifications, rebuilds the view on every
// tick, and applies vote toggles optimistically with rollback.
package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kryoon/backend/application/commands"
	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/application/queries"
	"github.com/kryoon/backend/domain/contribution"
	"github.com/kryoon/backend/domain/layout"
)

// ErrSubscriptionClosed is reported by Err when the change feed ends
// without Stop being called. The last good view stays readable.
var ErrSubscriptionClosed = errors.New("tree change subscription closed")

const refreshTimeout = 15 * time.Second

// Controller maintains the live view for a single post. Readers get a
// consistent snapshot via View; the snapshot is replaced atomically and
// never mutated in place.
type Controller struct {
	ownerUserID string
	postID      string

	getTree  *queries.GetTreeHandler
	notifier ports.ChangeNotifier
	votes    *commands.ToggleVoteHandler
	logger   *zap.Logger

	view atomic.Pointer[queries.TreeView]

	errMu   sync.Mutex
	halted  error
	cancel  func()
	stopped chan struct{}

	subMu   sync.Mutex
	subs    map[int]func(*queries.TreeView)
	nextSub int

	votesMu    sync.Mutex
	voteStates map[string]*voteState
}

// voteState serializes toggles per node: at most one write in flight and
// at most one queued behind it, latest queued wins.
type voteState struct {
	pending bool
	queued  *voteRequest
}

type voteRequest struct {
	userID    string
	direction contribution.VoteDirection
}

// NewController creates a controller for one post's tree
func NewController(
	ownerUserID, postID string,
	getTree *queries.GetTreeHandler,
	notifier ports.ChangeNotifier,
	votes *commands.ToggleVoteHandler,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		ownerUserID: ownerUserID,
		postID:      postID,
		getTree:     getTree,
		notifier:    notifier,
		votes:       votes,
		logger:      logger,
		stopped:     make(chan struct{}),
		subs:        make(map[int]func(*queries.TreeView)),
		voteStates:  make(map[string]*voteState),
	}
}

// Start builds the initial view and begins following change
// notifications. A subscription failure is returned immediately and the
// controller stays halted.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.refresh(ctx); err != nil {
		return err
	}

	ch, cancel, err := c.notifier.SubscribeTreeChanged(ctx, c.postID)
	if err != nil {
		c.halt(err)
		return err
	}
	c.cancel = cancel

	go c.follow(ch)
	return nil
}

// Stop ends the subscription. The last view remains readable.
func (c *Controller) Stop() {
	c.errMu.Lock()
	select {
	case <-c.stopped:
		c.errMu.Unlock()
		return
	default:
	}
	close(c.stopped)
	cancel := c.cancel
	c.errMu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// View returns the current snapshot, or nil before the first refresh
func (c *Controller) View() *queries.TreeView {
	return c.view.Load()
}

// Err reports why live updates halted, or nil while they are flowing
func (c *Controller) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.halted
}

// OnUpdate registers a callback invoked with every new snapshot. The
// returned func unregisters it.
func (c *Controller) OnUpdate(fn func(*queries.TreeView)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Controller) follow(ch <-chan struct{}) {
	for {
		select {
		case <-c.stopped:
			return
		case _, ok := <-ch:
			if !ok {
				select {
				case <-c.stopped:
				default:
					c.halt(ErrSubscriptionClosed)
				}
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			if err := c.refresh(ctx); err != nil {
				// Keep the stale view; the next tick retries.
				c.logger.Warn("view refresh failed",
					zap.String("postId", c.postID),
					zap.Error(err))
			}
			cancel()
		}
	}
}

func (c *Controller) halt(err error) {
	c.errMu.Lock()
	if c.halted == nil {
		c.halted = err
	}
	c.errMu.Unlock()
	c.logger.Error("live updates halted",
		zap.String("postId", c.postID),
		zap.Error(err))
}

// refresh rebuilds the snapshot from storage and swaps it in atomically
func (c *Controller) refresh(ctx context.Context) error {
	view, err := c.getTree.Handle(ctx, queries.GetTreeQuery{
		OwnerUserID: c.ownerUserID,
		PostID:      c.postID,
	})
	if err != nil {
		return err
	}
	c.swap(view)
	return nil
}

func (c *Controller) swap(view *queries.TreeView) {
	c.view.Store(view)

	c.subMu.Lock()
	fns := make([]func(*queries.TreeView), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(view)
	}
}

// ToggleVote applies the toggle to the local view immediately, then
// writes it through. If the write fails the view is rebuilt from storage,
// undoing the optimistic change, and the error is returned.
//
// Writes are serialized per node. A toggle arriving while one is in
// flight is queued behind it; a newer queued toggle replaces the older
// one, since toggles are idempotent flips the newest intent wins.
func (c *Controller) ToggleVote(ctx context.Context, nodeID, userID string, direction contribution.VoteDirection) error {
	if _, err := contribution.ParseVoteDirection(string(direction)); err != nil {
		return err
	}

	c.votesMu.Lock()
	state := c.voteStates[nodeID]
	if state == nil {
		state = &voteState{}
		c.voteStates[nodeID] = state
	}
	if state.pending {
		state.queued = &voteRequest{userID: userID, direction: direction}
		c.votesMu.Unlock()
		c.applyOptimistic(nodeID, userID, direction)
		return nil
	}
	state.pending = true
	c.votesMu.Unlock()

	c.applyOptimistic(nodeID, userID, direction)
	err := c.writeVote(ctx, nodeID, userID, direction)

	for {
		c.votesMu.Lock()
		queued := state.queued
		state.queued = nil
		if queued == nil {
			state.pending = false
			c.votesMu.Unlock()
			break
		}
		c.votesMu.Unlock()

		if wErr := c.writeVote(ctx, nodeID, queued.userID, queued.direction); wErr != nil && err == nil {
			err = wErr
		}
	}
	return err
}

func (c *Controller) writeVote(ctx context.Context, nodeID, userID string, direction contribution.VoteDirection) error {
	err := c.votes.Handle(ctx, commands.ToggleVoteCommand{
		OwnerUserID: c.ownerUserID,
		PostID:      c.postID,
		NodeID:      nodeID,
		UserID:      userID,
		Direction:   direction,
	})
	if err != nil {
		c.logger.Warn("vote write failed, rolling back optimistic view",
			zap.String("postId", c.postID),
			zap.String("nodeId", nodeID),
			zap.Error(err))
		if rErr := c.refresh(ctx); rErr != nil {
			c.logger.Error("rollback refresh failed",
				zap.String("postId", c.postID),
				zap.Error(rErr))
		}
		return err
	}
	return nil
}

// applyOptimistic flips the vote on a copy of the current snapshot.
// Positions are untouched; vote toggles never move nodes.
func (c *Controller) applyOptimistic(nodeID, userID string, direction contribution.VoteDirection) {
	current := c.view.Load()
	if current == nil {
		return
	}

	next := *current
	next.Layout.Nodes = make([]layout.PositionedNode, len(current.Layout.Nodes))
	copy(next.Layout.Nodes, current.Layout.Nodes)

	for i := range next.Layout.Nodes {
		if next.Layout.Nodes[i].ID != nodeID {
			continue
		}
		node := next.Layout.Nodes[i].Node.Clone()
		if err := node.ToggleVote(userID, direction); err != nil {
			return
		}
		next.Layout.Nodes[i].Node = node
		c.swap(&next)
		return
	}
}
