package sync

import (
	"context"
	gosync "sync"

	"go.uber.org/zap"

	"github.com/kryoon/backend/application/commands"
	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/application/queries"
)

// Manager hands out one shared Controller per post, refcounted by the
// clients watching it. The controller starts with the first watcher and
// stops when the last one releases it.
type Manager struct {
	getTree  *queries.GetTreeHandler
	notifier ports.ChangeNotifier
	votes    *commands.ToggleVoteHandler
	logger   *zap.Logger

	mu          gosync.Mutex
	controllers map[string]*managedController
}

type managedController struct {
	controller *Controller
	refs       int
}

// NewManager creates a controller manager
func NewManager(
	getTree *queries.GetTreeHandler,
	notifier ports.ChangeNotifier,
	votes *commands.ToggleVoteHandler,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		getTree:     getTree,
		notifier:    notifier,
		votes:       votes,
		logger:      logger,
		controllers: make(map[string]*managedController),
	}
}

func managerKey(ownerUserID, postID string) string {
	return ownerUserID + "/" + postID
}

// Acquire returns the post's controller, starting it on first use.
// Every successful Acquire must be paired with a Release.
func (m *Manager) Acquire(ctx context.Context, ownerUserID, postID string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := managerKey(ownerUserID, postID)
	if mc, ok := m.controllers[key]; ok {
		mc.refs++
		return mc.controller, nil
	}

	c := NewController(ownerUserID, postID, m.getTree, m.notifier, m.votes, m.logger)
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	m.controllers[key] = &managedController{controller: c, refs: 1}
	return c, nil
}

// Release drops one reference, stopping the controller when none remain
func (m *Manager) Release(ownerUserID, postID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := managerKey(ownerUserID, postID)
	mc, ok := m.controllers[key]
	if !ok {
		return
	}
	mc.refs--
	if mc.refs > 0 {
		return
	}
	delete(m.controllers, key)
	mc.controller.Stop()
}
