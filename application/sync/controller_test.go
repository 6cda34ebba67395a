package sync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/commands"
	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/application/queries"
	"github.com/kryoon/backend/application/resolver"
	"github.com/kryoon/backend/domain/contribution"
	"github.com/kryoon/backend/infrastructure/persistence/memory"
)

type fixture struct {
	treeRepo *memory.TreeRepository
	postRepo *memory.PostRepository
	notifier *memory.Notifier
	getTree  *queries.GetTreeHandler
	votes    *commands.ToggleVoteHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	treeRepo := memory.NewTreeRepository()
	postRepo := memory.NewPostRepository()
	notifier := memory.NewNotifier()
	blob := memory.NewBlobStore()
	identity := memory.NewIdentityStore()
	identity.Put("owner-1", ports.Profile{Username: "ada", AvatarURL: "https://cdn.example.com/ada.png"})

	postRepo.Put(&contribution.Post{
		ID:          "post-1",
		OwnerUserID: "owner-1",
		MediaURL:    "https://cdn.example.com/root.mp4",
		Prompt:      "origin",
		ModelName:   "gen-v3",
	})
	tree := contribution.NewTree("post-1")
	require.NoError(t, tree.AppendContribution(contribution.Node{ID: "n1", ParentID: contribution.RootNodeID}, ""))
	require.NoError(t, treeRepo.Create(context.Background(), "owner-1", tree))

	res := resolver.NewResolver(blob, identity, zap.NewNop())
	getTree := queries.NewGetTreeHandler(postRepo, treeRepo, res, zap.NewNop())
	votes := commands.NewToggleVoteHandler(treeRepo, postRepo, notifier, zap.NewNop())

	return &fixture{
		treeRepo: treeRepo,
		postRepo: postRepo,
		notifier: notifier,
		getTree:  getTree,
		votes:    votes,
	}
}

func (f *fixture) controller(t *testing.T) *Controller {
	t.Helper()
	c := NewController("owner-1", "post-1", f.getTree, f.notifier, f.votes, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Stop)
	return c
}

func viewNode(t *testing.T, v *queries.TreeView, id string) contribution.Node {
	t.Helper()
	for _, n := range v.Layout.Nodes {
		if n.ID == id {
			return n.Node
		}
	}
	t.Fatalf("node %q not in view", id)
	return contribution.Node{}
}

func TestControllerInitialView(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t)

	view := c.View()
	require.NotNil(t, view)
	assert.Len(t, view.Layout.Nodes, 2)
	assert.NoError(t, c.Err())
}

func TestControllerRefreshesOnNotification(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t)

	var updates atomic.Int64
	unsubscribe := c.OnUpdate(func(*queries.TreeView) { updates.Add(1) })
	defer unsubscribe()

	_, err := f.treeRepo.Update(context.Background(), "owner-1", "post-1", func(tr *contribution.Tree) error {
		return tr.AppendContribution(contribution.Node{ID: "n2", ParentID: "n1"}, "")
	})
	require.NoError(t, err)
	require.NoError(t, f.notifier.NotifyTreeChanged(context.Background(), "post-1"))

	require.Eventually(t, func() bool {
		v := c.View()
		return v != nil && len(v.Layout.Nodes) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Greater(t, updates.Load(), int64(0))
}

func TestControllerOptimisticVote(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t)

	err := c.ToggleVote(context.Background(), "n1", "user-1", contribution.VoteUp)
	require.NoError(t, err)

	voted := viewNode(t, c.View(), "n1")
	assert.True(t, voted.HasUpvote("user-1"))

	tree, err := f.treeRepo.Get(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	assert.True(t, tree.FindNode("n1").HasUpvote("user-1"))
}

func TestControllerVoteRollbackOnWriteFailure(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t)

	before := viewNode(t, c.View(), "n1")
	require.False(t, before.HasUpvote("user-1"))

	f.treeRepo.FailWrites = true
	err := c.ToggleVote(context.Background(), "n1", "user-1", contribution.VoteUp)
	require.Error(t, err)

	// The optimistic change is undone from storage truth.
	after := viewNode(t, c.View(), "n1")
	assert.False(t, after.HasUpvote("user-1"))
	assert.Equal(t, 0, after.NetVotes())
}

func TestControllerVoteInvalidDirection(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t)

	err := c.ToggleVote(context.Background(), "n1", "user-1", "sideways")
	require.Error(t, err)
	unchanged := viewNode(t, c.View(), "n1")
	assert.False(t, unchanged.HasUpvote("user-1"))
}

func TestControllerHaltsWhenSubscriptionCloses(t *testing.T) {
	f := newFixture(t)
	c := f.controller(t)

	// A broker-side disconnect halts updates and surfaces the error;
	// the last view stays readable.
	f.notifier.CloseAll("post-1")
	require.Eventually(t, func() bool {
		return c.Err() != nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, c.Err(), ErrSubscriptionClosed)
	assert.NotNil(t, c.View())
}

func TestManagerSharesControllers(t *testing.T) {
	f := newFixture(t)
	m := NewManager(f.getTree, f.notifier, f.votes, zap.NewNop())

	a, err := m.Acquire(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	b, err := m.Acquire(context.Background(), "owner-1", "post-1")
	require.NoError(t, err)
	assert.Same(t, a, b)

	m.Release("owner-1", "post-1")
	assert.NoError(t, a.Err())

	m.Release("owner-1", "post-1")

	// A released controller keeps its last view but is stopped.
	assert.NotNil(t, a.View())
}

func TestHoverDebouncerCoalesces(t *testing.T) {
	var committed atomic.Value
	var commits atomic.Int64
	d := NewHoverDebouncer(30*time.Millisecond, func(id string) {
		committed.Store(id)
		commits.Add(1)
	})
	defer d.Stop()

	// A quick sweep across nodes commits only the final target.
	d.Set("a")
	d.Set("b")
	d.Set("c")

	require.Eventually(t, func() bool {
		return commits.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "c", committed.Load())

	// Exit is debounced the same way and the debouncer is reusable.
	d.Set("")
	require.Eventually(t, func() bool {
		return commits.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "", committed.Load())
}

func TestHoverDebouncerStopCancelsPending(t *testing.T) {
	var commits atomic.Int64
	d := NewHoverDebouncer(20*time.Millisecond, func(string) { commits.Add(1) })

	d.Set("a")
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(0), commits.Load())
}
