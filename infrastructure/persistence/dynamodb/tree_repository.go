// Package dynamodb implements the persistence ports on a single-table
// DynamoDB layout. Items are keyed USER#<ownerUserID> / <entity>#<id> and
// writes are conditional on a version attribute.
package dynamodb

import (
	"context"
	"errors"
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

// maxWriteRetries bounds the optimistic-concurrency retry loop.
const maxWriteRetries = 3

func userPK(ownerUserID string) string {
	return fmt.Sprintf("USER#%s", ownerUserID)
}

// TreeRepository implements ports.TreeRepository using DynamoDB
type TreeRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewTreeRepository creates a new TreeRepository
func NewTreeRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.TreeRepository {
	return &TreeRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// treeItem represents the DynamoDB item structure for a contributions document
type treeItem struct {
	PK         string              `dynamodbav:"PK"`
	SK         string              `dynamodbav:"SK"`
	EntityType string              `dynamodbav:"EntityType"`
	PostID     string              `dynamodbav:"PostID"`
	Nodes      []contribution.Node `dynamodbav:"Nodes"`
	Edges      []contribution.Edge `dynamodbav:"Edges"`
	UpdatedAt  string              `dynamodbav:"UpdatedAt"`
	Version    int                 `dynamodbav:"Version"`
}

func treeSK(postID string) string {
	return fmt.Sprintf("CONTRIB#%s", postID)
}

// Get loads a post's contributions document
func (r *TreeRepository) Get(ctx context.Context, ownerUserID, postID string) (*contribution.Tree, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(ownerUserID)},
			"SK": &types.AttributeValueMemberS{Value: treeSK(postID)},
		},
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get contribution tree", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("contribution tree")
	}

	var item treeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, pkgerrors.NewDatabaseError("unmarshal contribution tree", err)
	}

	return &contribution.Tree{
		PostID:  item.PostID,
		Nodes:   item.Nodes,
		Edges:   item.Edges,
		Version: item.Version,
	}, nil
}

// Create writes a new contributions document, failing if one exists
func (r *TreeRepository) Create(ctx context.Context, ownerUserID string, tree *contribution.Tree) error {
	av, err := r.marshalTree(ownerUserID, tree, 0)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return pkgerrors.NewConflictError("contribution tree already exists")
		}
		return pkgerrors.NewDatabaseError("create contribution tree", err)
	}
	return nil
}

// Update runs fn against the latest document and writes it back
// conditionally on the version it read, retrying on concurrent writers.
// A missing document starts from an empty tree, so the first contribution
// to a post creates it.
func (r *TreeRepository) Update(ctx context.Context, ownerUserID, postID string, fn func(*contribution.Tree) error) (*contribution.Tree, error) {
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		tree, err := r.Get(ctx, ownerUserID, postID)
		if err != nil {
			if !pkgerrors.IsNotFound(err) {
				return nil, err
			}
			tree = contribution.NewTree(postID)
		}

		expected := tree.Version
		if err := fn(tree); err != nil {
			return nil, err
		}

		av, err := r.marshalTree(ownerUserID, tree, expected+1)
		if err != nil {
			return nil, err
		}

		input := &dynamodb.PutItemInput{
			TableName: aws.String(r.tableName),
			Item:      av,
		}
		if expected == 0 {
			input.ConditionExpression = aws.String("attribute_not_exists(PK) OR Version = :expected")
			input.ExpressionAttributeValues = map[string]types.AttributeValue{
				":expected": &types.AttributeValueMemberN{Value: "0"},
			}
		} else {
			input.ConditionExpression = aws.String("Version = :expected")
			input.ExpressionAttributeValues = map[string]types.AttributeValue{
				":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expected)},
			}
		}

		_, err = r.client.PutItem(ctx, input)
		if err == nil {
			tree.Version = expected + 1
			return tree, nil
		}
		if !isConditionalCheckFailed(err) {
			return nil, pkgerrors.NewDatabaseError("update contribution tree", err)
		}

		r.logger.Debug("version conflict on contribution tree, retrying",
			zap.String("postId", postID),
			zap.Int("attempt", attempt+1))
	}

	return nil, pkgerrors.NewConflictError("contribution tree is being modified concurrently")
}

func (r *TreeRepository) marshalTree(ownerUserID string, tree *contribution.Tree, version int) (map[string]types.AttributeValue, error) {
	item := treeItem{
		PK:         userPK(ownerUserID),
		SK:         treeSK(tree.PostID),
		EntityType: "CONTRIB_TREE",
		PostID:     tree.PostID,
		Nodes:      tree.Nodes,
		Edges:      tree.Edges,
		UpdatedAt:  utils.NowRFC3339(),
		Version:    version,
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("marshal contribution tree", err)
	}
	return av, nil
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
