package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// connectionItem carries an expireAt epoch for the table's TTL setting.
// TTL deletion lags, so reads also filter on it.
type connectionItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	ConnectedAt  int64  `dynamodbav:"ConnectedAt"`
	ExpireAt     int64  `dynamodbav:"expireAt"`
}

func (i connectionItem) toConnection() ports.Connection {
	return ports.Connection{
		ID:          i.ConnectionID,
		UserID:      i.UserID,
		ConnectedAt: time.Unix(i.ConnectedAt, 0).UTC(),
		ExpiresAt:   time.Unix(i.ExpireAt, 0).UTC(),
	}
}

// ConnectionRepository implements ports.ConnectionRepository on DynamoDB
type ConnectionRepository struct {
	client Client
	table  TableConfig
	clock  ports.Clock
	logger *zap.Logger
}

var _ ports.ConnectionRepository = (*ConnectionRepository)(nil)

func NewConnectionRepository(client Client, table TableConfig, clock ports.Clock, logger *zap.Logger) *ConnectionRepository {
	return &ConnectionRepository{client: client, table: table, clock: clock, logger: logger}
}

func (r *ConnectionRepository) Save(ctx context.Context, conn ports.Connection) error {
	item, err := attributevalue.MarshalMap(connectionItem{
		PK:           userPK(conn.UserID),
		SK:           connectionSK(conn.ID),
		GSI1PK:       connectionSK(conn.ID),
		GSI1SK:       metadataSK,
		EntityType:   entityConnection,
		ConnectionID: conn.ID,
		UserID:       conn.UserID,
		ConnectedAt:  conn.ConnectedAt.Unix(),
		ExpireAt:     conn.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table.TableName),
		Item:      item,
	})
	if err != nil {
		return classifyError("save connection", err)
	}
	return nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, connectionID string) (*ports.Connection, error) {
	item, err := r.find(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if item.ExpireAt <= r.clock.Now().Unix() {
		return nil, pkgerrors.NewNotFoundError("connection")
	}
	conn := item.toConnection()
	return &conn, nil
}

// find looks the connection up through GSI1, ignoring expiry
func (r *ConnectionRepository) find(ctx context.Context, connectionID string) (*connectionItem, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(connectionSK(connectionID))).
		And(expression.Key("GSI1SK").Equal(expression.Value(metadataSK)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.TableName),
		IndexName:                 aws.String(r.table.GSI1IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, classifyError("get connection", err)
	}
	if len(out.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("connection")
	}

	var item connectionItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connection: %w", err)
	}
	return &item, nil
}

func (r *ConnectionRepository) ListByUser(ctx context.Context, userID string) ([]ports.Connection, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith("CONN#"))
	filter := expression.Name("expireAt").GreaterThan(expression.Value(r.clock.Now().Unix()))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, classifyError("list connections", err)
	}

	var items []connectionItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
	}
	conns := make([]ports.Connection, 0, len(items))
	for _, item := range items {
		conns = append(conns, item.toConnection())
	}
	return conns, nil
}

// Delete is a no-op for unknown connections
func (r *ConnectionRepository) Delete(ctx context.Context, connectionID string) error {
	item, err := r.find(ctx, connectionID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: item.PK},
			"SK": &types.AttributeValueMemberS{Value: item.SK},
		},
	})
	if err != nil {
		return classifyError("delete connection", err)
	}
	r.logger.Debug("Connection deleted", zap.String("connectionID", connectionID))
	return nil
}
