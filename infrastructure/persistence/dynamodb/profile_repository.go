package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
)

// ProfileRepository implements ports.IdentityStore using DynamoDB
type ProfileRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.IdentityStore {
	return &ProfileRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// profileItem represents the DynamoDB item structure for a user profile
type profileItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	UserID    string `dynamodbav:"UserID"`
	Username  string `dynamodbav:"Username"`
	AvatarURL string `dynamodbav:"AvatarURL,omitempty"`
}

// GetProfile loads a user's display profile
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (ports.Profile, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &types.AttributeValueMemberS{Value: "PROFILE"},
		},
	})
	if err != nil {
		return ports.Profile{}, pkgerrors.NewDatabaseError("get profile", err)
	}
	if out.Item == nil {
		return ports.Profile{}, pkgerrors.NewNotFoundError("profile")
	}

	var item profileItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return ports.Profile{}, pkgerrors.NewDatabaseError("unmarshal profile", err)
	}

	return ports.Profile{
		Username:  item.Username,
		AvatarURL: item.AvatarURL,
	}, nil
}
