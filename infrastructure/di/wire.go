//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/kryoon/backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideTreeRepository,
	ProvidePostRepository,
	ProvideIdentityStore,
	ProvideRedisClient,
	ProvideChangeNotifier,
	ProvideBlobStore,
	ProvideResolver,
	ProvideJWTValidator,
	ProvideErrorHandler,
	ProvideGetTreeHandler,
	ProvideSubmitHandler,
	ProvideToggleVoteHandler,
	ProvideTogglePostLikeHandler,
	ProvideAddCommentHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideSyncManager,
	ProvideWebSocketHandler,
	ProvideTreeHandler,
	ProvideContributionHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
