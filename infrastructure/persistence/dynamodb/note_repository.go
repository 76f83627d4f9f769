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
	"github.com/isaac-evs/neurotype-prod-backend/domain/analytics"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	"github.com/isaac-evs/neurotype-prod-backend/domain/emotion"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

// noteItem is the stored form of a note
type noteItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	NoteID     string `dynamodbav:"NoteID"`
	UserID     string `dynamodbav:"UserID"`
	Text       string `dynamodbav:"Text"`
	Happy      int64  `dynamodbav:"HappyCount"`
	Calm       int64  `dynamodbav:"CalmCount"`
	Sad        int64  `dynamodbav:"SadCount"`
	Upset      int64  `dynamodbav:"UpsetCount"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
	Version    int    `dynamodbav:"Version"`
}

func newNoteItem(n *entities.Note) noteItem {
	v := n.Emotions()
	return noteItem{
		PK:         userPK(n.UserID()),
		SK:         noteSK(n.CreatedAt(), n.ID().String()),
		GSI1PK:     noteGSI1PK(n.ID().String()),
		GSI1SK:     metadataSK,
		EntityType: entityNote,
		NoteID:     n.ID().String(),
		UserID:     n.UserID(),
		Text:       n.Text(),
		Happy:      v.Happy,
		Calm:       v.Calm,
		Sad:        v.Sad,
		Upset:      v.Upset,
		CreatedAt:  n.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt:  n.UpdatedAt().UTC().Format(time.RFC3339Nano),
		Version:    n.Version(),
	}
}

func (i noteItem) toEntity() (*entities.Note, error) {
	id, err := valueobjects.NewNoteIDFromString(i.NoteID)
	if err != nil {
		return nil, fmt.Errorf("stored note has bad ID %q: %w", i.NoteID, err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("stored note %s has bad CreatedAt: %w", i.NoteID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	if err != nil {
		updatedAt = createdAt
	}
	emotions := emotion.Vector{Happy: i.Happy, Calm: i.Calm, Sad: i.Sad, Upset: i.Upset}
	return entities.ReconstructNote(id, i.UserID, i.Text, emotions, createdAt, updatedAt, i.Version), nil
}

// NoteRepository implements ports.NoteRepository on DynamoDB
type NoteRepository struct {
	client Client
	table  TableConfig
	logger *zap.Logger
}

var _ ports.NoteRepository = (*NoteRepository)(nil)

func NewNoteRepository(client Client, table TableConfig, logger *zap.Logger) *NoteRepository {
	return &NoteRepository{client: client, table: table, logger: logger}
}

// Save creates or updates a note with optimistic locking on Version
func (r *NoteRepository) Save(ctx context.Context, note *entities.Note) error {
	item, err := attributevalue.MarshalMap(newNoteItem(note))
	if err != nil {
		return fmt.Errorf("failed to marshal note: %w", err)
	}

	var condition expression.ConditionBuilder
	if note.Version() > 1 {
		condition = expression.Name("Version").Equal(expression.Value(note.Version() - 1))
	} else {
		condition = expression.Name("PK").AttributeNotExists()
	}
	expr, err := expression.NewBuilder().WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.table.TableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if _, ok := isConditionFailed(err); ok {
			return pkgerrors.NewConflictError("note was modified concurrently").WithCause(err)
		}
		return classifyError("save note", err)
	}

	r.logger.Debug("Note saved",
		zap.String("noteID", note.ID().String()),
		zap.String("userID", note.UserID()),
		zap.Int("version", note.Version()))
	return nil
}

// GetByID resolves the note through GSI1 since the caller does not know its sort key
func (r *NoteRepository) GetByID(ctx context.Context, id valueobjects.NoteID) (*entities.Note, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(noteGSI1PK(id.String()))).
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
		return nil, classifyError("get note", err)
	}
	if len(out.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("note")
	}

	var item noteItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal note: %w", err)
	}
	return item.toEntity()
}

func (r *NoteRepository) Delete(ctx context.Context, note *entities.Note) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table.TableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(note.UserID())},
			"SK": &types.AttributeValueMemberS{Value: noteSK(note.CreatedAt(), note.ID().String())},
		},
	})
	if err != nil {
		return classifyError("delete note", err)
	}
	r.logger.Debug("Note deleted", zap.String("noteID", note.ID().String()))
	return nil
}

// DeleteAllByUser removes the user's notes in batches of 25
func (r *NoteRepository) DeleteAllByUser(ctx context.Context, userID string) (int, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").Between(expression.Value(noteSKMin), expression.Value(noteSKMax)))
	proj := expression.NamesList(expression.Name("PK"), expression.Name("SK"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithProjection(proj).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	var keys []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, classifyError("list notes for deletion", err)
		}
		keys = append(keys, page.Items...)
	}

	for start := 0; start < len(keys); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(keys))
		if err := r.batchDelete(ctx, keys[start:end]); err != nil {
			return start, err
		}
	}

	r.logger.Info("Notes deleted for user", zap.String("userID", userID), zap.Int("count", len(keys)))
	return len(keys), nil
}

func (r *NoteRepository) batchDelete(ctx context.Context, keys []map[string]types.AttributeValue) error {
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
	}

	pending := map[string][]types.WriteRequest{r.table.TableName: requests}
	for attempt := 0; attempt < maxBatchRetry; attempt++ {
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return classifyError("batch delete notes", err)
		}
		if len(out.UnprocessedItems[r.table.TableName]) == 0 {
			return nil
		}
		pending = out.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return pkgerrors.NewUnavailableError("dynamodb").
		WithDetails(map[string]interface{}{"unprocessed": len(pending[r.table.TableName])})
}

// FindByUserAndDateRange returns notes created in [start, end), oldest first
func (r *NoteRepository) FindByUserAndDateRange(ctx context.Context, userID string, start, end *time.Time) ([]*entities.Note, error) {
	lo, hi := noteSKMin, noteSKMax
	if start != nil {
		lo = noteSKBound(*start)
	}
	if end != nil {
		// BETWEEN is inclusive, but every note at exactly end sorts after the bare bound
		hi = noteSKBound(*end)
	}
	if hi < lo {
		return []*entities.Note{}, nil
	}

	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").Between(expression.Value(lo), expression.Value(hi)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	notes := make([]*entities.Note, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyError("query notes", err)
		}
		var items []noteItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
		}
		for _, item := range items {
			note, err := item.toEntity()
			if err != nil {
				r.logger.Warn("Skipping unreadable note", zap.String("noteID", item.NoteID), zap.Error(err))
				continue
			}
			notes = append(notes, note)
		}
	}
	return notes, nil
}

func (r *NoteRepository) FindByUserOnDate(ctx context.Context, userID string, day analytics.Date) ([]*entities.Note, error) {
	start := day.Start()
	end := day.AddDays(1).Start()
	return r.FindByUserAndDateRange(ctx, userID, &start, &end)
}

// CountByUser counts with Select=COUNT so no items are transferred
func (r *NoteRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").Between(expression.Value(noteSKMin), expression.Value(noteSKMax)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build expression: %w", err)
	}

	var total int64
	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.TableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Select:                    types.SelectCount,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, classifyError("count notes", err)
		}
		total += int64(page.Count)
	}
	return total, nil
}
