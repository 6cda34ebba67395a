// Package di wires the application together with google/wire.
package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/commands"
	"github.com/kryoon/backend/application/commands/bus"
	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/application/queries"
	querybus "github.com/kryoon/backend/application/queries/bus"
	"github.com/kryoon/backend/application/resolver"
	appsync "github.com/kryoon/backend/application/sync"
	"github.com/kryoon/backend/infrastructure/blob"
	"github.com/kryoon/backend/infrastructure/config"
	dynamorepo "github.com/kryoon/backend/infrastructure/persistence/dynamodb"
	"github.com/kryoon/backend/infrastructure/pubsub"
	"github.com/kryoon/backend/interfaces/http/rest"
	"github.com/kryoon/backend/interfaces/http/rest/handlers"
	ws "github.com/kryoon/backend/interfaces/websocket"
	"github.com/kryoon/backend/pkg/auth"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideTreeRepository creates the contributions repository
func ProvideTreeRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.TreeRepository {
	return dynamorepo.NewTreeRepository(client, cfg.DynamoDBTable, logger)
}

// ProvidePostRepository creates the post repository
func ProvidePostRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.PostRepository {
	return dynamorepo.NewPostRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideIdentityStore creates the user profile store
func ProvideIdentityStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.IdentityStore {
	return dynamorepo.NewProfileRepository(client, cfg.DynamoDBTable, logger)
}

// ProvideRedisClient creates a Redis client
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// ProvideChangeNotifier creates the cross-instance change notifier
func ProvideChangeNotifier(ctx context.Context, client *redis.Client, logger *zap.Logger) (ports.ChangeNotifier, error) {
	return pubsub.NewRedisNotifier(ctx, client, logger)
}

// ProvideBlobStore creates the media object store
func ProvideBlobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.BlobStore, error) {
	return blob.NewMinioStore(ctx, blob.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	}, logger)
}

// ProvideResolver creates the node resolver
func ProvideResolver(blobStore ports.BlobStore, identity ports.IdentityStore, logger *zap.Logger) *resolver.Resolver {
	return resolver.NewResolver(blobStore, identity, logger)
}

// ProvideJWTValidator creates the token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: secret,
		Issuer:    cfg.JWTIssuer,
	})
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger)
}

// ProvideGetTreeHandler creates the tree query handler
func ProvideGetTreeHandler(
	postRepo ports.PostRepository,
	treeRepo ports.TreeRepository,
	res *resolver.Resolver,
	logger *zap.Logger,
) *queries.GetTreeHandler {
	return queries.NewGetTreeHandler(postRepo, treeRepo, res, logger)
}

// ProvideSubmitHandler creates the submission command handler
func ProvideSubmitHandler(
	treeRepo ports.TreeRepository,
	blobStore ports.BlobStore,
	notifier ports.ChangeNotifier,
	logger *zap.Logger,
) *commands.SubmitContributionHandler {
	return commands.NewSubmitContributionHandler(treeRepo, blobStore, notifier, logger)
}

// ProvideToggleVoteHandler creates the vote command handler
func ProvideToggleVoteHandler(
	treeRepo ports.TreeRepository,
	postRepo ports.PostRepository,
	notifier ports.ChangeNotifier,
	logger *zap.Logger,
) *commands.ToggleVoteHandler {
	return commands.NewToggleVoteHandler(treeRepo, postRepo, notifier, logger)
}

// ProvideTogglePostLikeHandler creates the like command handler
func ProvideTogglePostLikeHandler(
	postRepo ports.PostRepository,
	notifier ports.ChangeNotifier,
	logger *zap.Logger,
) *commands.TogglePostLikeHandler {
	return commands.NewTogglePostLikeHandler(postRepo, notifier, logger)
}

// ProvideAddCommentHandler creates the comment command handler
func ProvideAddCommentHandler(
	treeRepo ports.TreeRepository,
	notifier ports.ChangeNotifier,
	logger *zap.Logger,
) *commands.AddCommentHandler {
	return commands.NewAddCommentHandler(treeRepo, notifier, logger)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

// Handle implements bus.CommandHandler
func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	voteHandler *commands.ToggleVoteHandler,
	likeHandler *commands.TogglePostLikeHandler,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()
	pipeline := bus.NewPipeline(bus.LoggingMiddleware(logger))

	commandBus.Register(commands.ToggleVoteCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			voteCmd, ok := cmd.(commands.ToggleVoteCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return voteHandler.Handle(ctx, voteCmd)
		},
	}))

	commandBus.Register(commands.TogglePostLikeCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			likeCmd, ok := cmd.(commands.TogglePostLikeCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return likeHandler.Handle(ctx, likeCmd)
		},
	}))

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

// Handle implements querybus.QueryHandler
func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(getTree *queries.GetTreeHandler) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()

	queryBus.Register(queries.GetTreeQuery{}, &QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetTreeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getTree.Handle(ctx, getQuery)
		},
	})

	return queryBus
}

// ProvideSyncManager creates the live tree controller manager
func ProvideSyncManager(
	getTree *queries.GetTreeHandler,
	notifier ports.ChangeNotifier,
	voteHandler *commands.ToggleVoteHandler,
	logger *zap.Logger,
) *appsync.Manager {
	return appsync.NewManager(getTree, notifier, voteHandler, logger)
}

// ProvideWebSocketHandler creates the tree watch websocket handler
func ProvideWebSocketHandler(manager *appsync.Manager, getTree *queries.GetTreeHandler, logger *zap.Logger) *ws.Handler {
	return ws.NewHandler(manager, getTree, logger)
}

// ProvideTreeHandler creates the REST tree handler
func ProvideTreeHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.TreeHandler {
	return handlers.NewTreeHandler(queryBus, errorHandler, logger)
}

// ProvideContributionHandler creates the REST contribution handler
func ProvideContributionHandler(
	commandBus *bus.CommandBus,
	submit *commands.SubmitContributionHandler,
	comments *commands.AddCommentHandler,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *handlers.ContributionHandler {
	return handlers.NewContributionHandler(commandBus, submit, comments, errorHandler, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	treeHandler *handlers.TreeHandler,
	contribs *handlers.ContributionHandler,
	wsHandler *ws.Handler,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, treeHandler, contribs, wsHandler, validator, logger)
}
