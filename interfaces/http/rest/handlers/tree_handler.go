// Package handlers contains the HTTP handlers for the contribution API.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/queries"
	querybus "github.com/kryoon/backend/application/queries/bus"
	"github.com/kryoon/backend/pkg/auth"
	"github.com/kryoon/backend/pkg/common"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// TreeHandler serves read requests for contribution trees
type TreeHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *TreeHandler {
	return &TreeHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// GetTree handles GET /contribute/{ownerUserID}/{postID} and the
// deep-link variant with a focus node segment. The hover query parameter
// carries the caller's hovered node for highlight computation.
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	q := queries.GetTreeQuery{
		OwnerUserID:   chi.URLParam(r, "ownerUserID"),
		PostID:        chi.URLParam(r, "postID"),
		FocusNodeID:   chi.URLParam(r, "focusNodeID"),
		HoveredNodeID: r.URL.Query().Get("hover"),
		ViewerUserID:  user.UserID,
	}

	result, err := h.queryBus.Ask(r.Context(), q)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// GetShareLink handles GET .../nodes/{nodeID}/share-link
func (h *TreeHandler) GetShareLink(w http.ResponseWriter, r *http.Request) {
	link, err := queries.BuildShareLink(
		chi.URLParam(r, "ownerUserID"),
		chi.URLParam(r, "postID"),
		chi.URLParam(r, "nodeID"),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"shareLink": link})
}
