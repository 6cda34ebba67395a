package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/kryoon/backend/application/ports"
	"github.com/kryoon/backend/domain/contribution"
	pkgerrors "github.com/kryoon/backend/pkg/errors"
	"github.com/kryoon/backend/pkg/utils"
)

// PostRepository implements ports.PostRepository using DynamoDB
type PostRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.PostRepository {
	return &PostRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// postItem represents the DynamoDB item structure for a post
type postItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	EntityType string   `dynamodbav:"EntityType"`
	PostID     string   `dynamodbav:"PostID"`
	OwnerID    string   `dynamodbav:"OwnerID"`
	MediaURL   string   `dynamodbav:"MediaURL"`
	Prompt     string   `dynamodbav:"Prompt"`
	ModelName  string   `dynamodbav:"ModelName"`
	LikerIDs   []string `dynamodbav:"LikerIDs"`
	ChatLink   string   `dynamodbav:"ChatLink,omitempty"`
	CreatedAt  string   `dynamodbav:"CreatedAt"`
	UpdatedAt  string   `dynamodbav:"UpdatedAt"`
	Version    int      `dynamodbav:"Version"`
}

func postSK(postID string) string {
	return fmt.Sprintf("POST#%s", postID)
}

// GetPost loads a post from the owner's partition
func (r *PostRepository) GetPost(ctx context.Context, ownerUserID, postID string) (*contribution.Post, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(ownerUserID)},
			"SK": &types.AttributeValueMemberS{Value: postSK(postID)},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get post", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("post")
	}

	var item postItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal post", err)
	}

	return &contribution.Post{
		ID:          item.PostID,
		OwnerUserID: item.OwnerID,
		MediaURL:    item.MediaURL,
		Prompt:      item.Prompt,
		ModelName:   item.ModelName,
		LikerIDs:    item.LikerIDs,
		ChatLink:    item.ChatLink,
		CreatedAt:   item.CreatedAt,
		Version:     item.Version,
	}, nil
}

// UpdatePost runs fn against the latest post and writes it back
// conditionally on the version it read, retrying on concurrent writers
func (r *PostRepository) UpdatePost(ctx context.Context, ownerUserID, postID string, fn func(*contribution.Post) error) (*contribution.Post, error) {
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		post, err := r.GetPost(ctx, ownerUserID, postID)
		if err != nil {
			return nil, err
		}

		expected := post.Version
		if err := fn(post); err != nil {
			return nil, err
		}

		item := postItem{
			PK:         userPK(ownerUserID),
			SK:         postSK(postID),
			EntityType: "POST",
			PostID:     post.ID,
			OwnerID:    post.OwnerUserID,
			MediaURL:   post.MediaURL,
			Prompt:     post.Prompt,
			ModelName:  post.ModelName,
			LikerIDs:   post.LikerIDs,
			ChatLink:   post.ChatLink,
			CreatedAt:  post.CreatedAt,
			UpdatedAt:  utils.NowRFC3339(),
			Version:    expected + 1,
		}

		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("marshal post", err)
		}

		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                av,
			ConditionExpression: aws.String("Version = :expected"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
			},
		})
		if err == nil {
			post.Version = expected + 1
			return post, nil
		}
		if !isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewDatabaseError("update post", err)
		}

		r.logger.Debug("version conflict on post, retrying",
			zap.String("postId", postID),
			zap.Int("attempt", attempt+1))
	}

	return nil, pkgerrors.NewConflictError("post is being modified concurrently")
}
