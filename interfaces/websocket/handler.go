// Package websocket streams live contribution-tree views to connected
// clients and accepts their hover and vote messages.
package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/queries"
	appsync "github.com/kryoon/backend/application/sync"
	"github.com/kryoon/backend/domain/contribution"
	"github.com/kryoon/backend/pkg/auth"
)

const hoverQueryTimeout = 10 * time.Second

// Handler upgrades tree-watch connections and bridges them to the shared
// per-post controllers.
type Handler struct {
	manager  *appsync.Manager
	getTree  *queries.GetTreeHandler
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a websocket handler
func NewHandler(manager *appsync.Manager, getTree *queries.GetTreeHandler, logger *zap.Logger) *Handler {
	return &Handler{
		manager: manager,
		getTree: getTree,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 << 10,
			WriteBufferSize: 32 << 10,
			// Auth happens in middleware before the upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Serve handles GET /contribute/{ownerUserID}/{postID}/ws
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ownerUserID := chi.URLParam(r, "ownerUserID")
	postID := chi.URLParam(r, "postID")

	controller, err := h.manager.Acquire(r.Context(), ownerUserID, postID)
	if err != nil {
		h.logger.Error("tree watch failed to start",
			zap.String("postId", postID),
			zap.Error(err))
		http.Error(w, "tree unavailable", http.StatusBadGateway)
		return
	}
	defer h.manager.Release(ownerUserID, postID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(conn, h.logger)
	go c.writePump()

	// Shared updates carry no hover; this client's hover view is
	// recomputed for it alone when the debounce commits.
	unsubscribe := controller.OnUpdate(func(view *queries.TreeView) {
		c.enqueue(outboundMessage{Type: "tree", View: view})
	})
	defer unsubscribe()

	debouncer := appsync.NewHoverDebouncer(appsync.DefaultHoverDelay, func(nodeID string) {
		h.pushHoverView(c, ownerUserID, postID, user.UserID, nodeID)
	})
	defer debouncer.Stop()

	if view := controller.View(); view != nil {
		c.enqueue(outboundMessage{Type: "tree", View: view})
	}
	if err := controller.Err(); err != nil {
		c.enqueue(outboundMessage{Type: "error", Message: "live updates unavailable"})
	}

	h.logger.Info("tree watch connected",
		zap.String("postId", postID),
		zap.String("userId", user.UserID))

	c.readPump(func(msg inboundMessage) {
		switch msg.Type {
		case "hover":
			debouncer.Set(msg.NodeID)
		case "vote":
			ctx, cancel := context.WithTimeout(context.Background(), hoverQueryTimeout)
			err := controller.ToggleVote(ctx, msg.NodeID, user.UserID, contribution.VoteDirection(msg.Direction))
			cancel()
			if err != nil {
				c.enqueue(outboundMessage{Type: "error", Message: "vote failed"})
			}
		default:
			h.logger.Debug("unknown websocket message", zap.String("type", msg.Type))
		}
	})

	h.logger.Info("tree watch disconnected",
		zap.String("postId", postID),
		zap.String("userId", user.UserID))
}

// pushHoverView recomputes the view with this client's hover applied and
// sends it to that client only
func (h *Handler) pushHoverView(c *client, ownerUserID, postID, userID, nodeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), hoverQueryTimeout)
	defer cancel()

	view, err := h.getTree.Handle(ctx, queries.GetTreeQuery{
		OwnerUserID:   ownerUserID,
		PostID:        postID,
		ViewerUserID:  userID,
		HoveredNodeID: nodeID,
	})
	if err != nil {
		h.logger.Warn("hover view refresh failed",
			zap.String("postId", postID),
			zap.Error(err))
		return
	}
	c.enqueue(outboundMessage{Type: "tree", View: view})
}
