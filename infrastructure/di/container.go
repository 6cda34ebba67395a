package di

import (
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/commands/bus"
	"github.com/kryoon/backend/application/ports"
	querybus "github.com/kryoon/backend/application/queries/bus"
	appsync "github.com/kryoon/backend/application/sync"
	"github.com/kryoon/backend/infrastructure/config"
	"github.com/kryoon/backend/interfaces/http/rest"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	TreeRepo    ports.TreeRepository
	PostRepo    ports.PostRepository
	Identity    ports.IdentityStore
	BlobStore   ports.BlobStore
	Notifier    ports.ChangeNotifier
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	SyncManager *appsync.Manager
	Router      *rest.Router
}
