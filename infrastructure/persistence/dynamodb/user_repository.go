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
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/entities"
	"github.com/isaac-evs/neurotype-prod-backend/domain/core/valueobjects"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
	"go.uber.org/zap"
)

type userItem struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	EntityType      string `dynamodbav:"EntityType"`
	UserID          string `dynamodbav:"UserID"`
	Email           string `dynamodbav:"Email"`
	PasswordHash    string `dynamodbav:"PasswordHash"`
	Name            string `dynamodbav:"Name,omitempty"`
	Plan            string `dynamodbav:"Plan"`
	ProfilePhotoURL string `dynamodbav:"ProfilePhotoURL,omitempty"`
	CreatedAt       string `dynamodbav:"CreatedAt"`
	UpdatedAt       string `dynamodbav:"UpdatedAt"`
	Version         int    `dynamodbav:"Version"`
}

// emailItem reserves an address for exactly one user
type emailItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	UserID     string `dynamodbav:"UserID"`
}

func newUserItem(u *entities.User) userItem {
	return userItem{
		PK:              userPK(u.ID().String()),
		SK:              profileSK,
		EntityType:      entityUser,
		UserID:          u.ID().String(),
		Email:           u.Email().String(),
		PasswordHash:    u.PasswordHash(),
		Name:            u.Name(),
		Plan:            u.Plan().String(),
		ProfilePhotoURL: u.ProfilePhotoURL(),
		CreatedAt:       u.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt:       u.UpdatedAt().UTC().Format(time.RFC3339Nano),
		Version:         u.Version(),
	}
}

func (i userItem) toEntity() (*entities.User, error) {
	id, err := valueobjects.NewUserIDFromString(i.UserID)
	if err != nil {
		return nil, fmt.Errorf("stored user has bad ID %q: %w", i.UserID, err)
	}
	email, err := valueobjects.NewEmail(i.Email)
	if err != nil {
		return nil, fmt.Errorf("stored user %s has bad email: %w", i.UserID, err)
	}
	plan, err := valueobjects.ParsePlan(i.Plan)
	if err != nil {
		plan = valueobjects.PlanLite
	}
	createdAt, err := time.Parse(time.RFC3339Nano, i.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("stored user %s has bad CreatedAt: %w", i.UserID, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, i.UpdatedAt)
	if err != nil {
		updatedAt = createdAt
	}
	return entities.ReconstructUser(id, email, i.PasswordHash, i.Name, plan, i.ProfilePhotoURL, createdAt, updatedAt, i.Version), nil
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: userPK(userID)},
		"SK": &types.AttributeValueMemberS{Value: profileSK},
	}
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: emailPK(email)},
		"SK": &types.AttributeValueMemberS{Value: emailSK},
	}
}

// UserRepository implements ports.UserRepository on DynamoDB
type UserRepository struct {
	client Client
	table  TableConfig
	logger *zap.Logger
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(client Client, table TableConfig, logger *zap.Logger) *UserRepository {
	return &UserRepository{client: client, table: table, logger: logger}
}

// Create writes the profile and the email reservation in one transaction
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	profile, err := attributevalue.MarshalMap(newUserItem(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	reservation, err := attributevalue.MarshalMap(emailItem{
		PK:         emailPK(user.Email().String()),
		SK:         emailSK,
		EntityType: entityEmail,
		UserID:     user.ID().String(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email reservation: %w", err)
	}

	notExists, err := expression.NewBuilder().WithCondition(expression.Name("PK").AttributeNotExists()).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.table.TableName),
				Item:                     profile,
				ConditionExpression:      notExists.Condition(),
				ExpressionAttributeNames: notExists.Names(),
			}},
			{Put: &types.Put{
				TableName:                aws.String(r.table.TableName),
				Item:                     reservation,
				ConditionExpression:      notExists.Condition(),
				ExpressionAttributeNames: notExists.Names(),
			}},
		},
	})
	if err != nil {
		codes := cancellationCodes(err)
		if len(codes) == 2 && codes[1] == "ConditionalCheckFailed" {
			return pkgerrors.NewConflictError("Email already registered")
		}
		if len(codes) == 2 && codes[0] == "ConditionalCheckFailed" {
			return pkgerrors.NewConflictError("user already exists")
		}
		return classifyError("create user", err)
	}

	r.logger.Info("User created", zap.String("userID", user.ID().String()))
	return nil
}

// Update overwrites the profile if nobody else changed it since it was read
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	item, err := attributevalue.MarshalMap(newUserItem(user))
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	cond := expression.Name("PK").AttributeExists().
		And(expression.Name("Version").Equal(expression.Value(user.Version() - 1)))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                           aws.String(r.table.TableName),
		Item:                                item,
		ConditionExpression:                 expr.Condition(),
		ExpressionAttributeNames:            expr.Names(),
		ExpressionAttributeValues:           expr.Values(),
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		if ccf, ok := isConditionFailed(err); ok {
			if len(ccf.Item) == 0 {
				return pkgerrors.NewNotFoundError("user")
			}
			return pkgerrors.NewConflictError("user was modified concurrently").WithCause(err)
		}
		return classifyError("update user", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table.TableName),
		Key:       userKey(id.String()),
	})
	if err != nil {
		return nil, classifyError("get user", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}

	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return item.toEntity()
}

func (r *UserRepository) GetByEmail(ctx context.Context, email valueobjects.Email) (*entities.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table.TableName),
		Key:       emailKey(email.String()),
	})
	if err != nil {
		return nil, classifyError("get user by email", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("user")
	}

	var reservation emailItem
	if err := attributevalue.UnmarshalMap(out.Item, &reservation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal email reservation: %w", err)
	}
	id, err := valueobjects.NewUserIDFromString(reservation.UserID)
	if err != nil {
		return nil, fmt.Errorf("email reservation has bad user ID %q: %w", reservation.UserID, err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the profile and frees the email in one transaction
func (r *UserRepository) Delete(ctx context.Context, user *entities.User) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Delete: &types.Delete{TableName: aws.String(r.table.TableName), Key: userKey(user.ID().String())}},
			{Delete: &types.Delete{TableName: aws.String(r.table.TableName), Key: emailKey(user.Email().String())}},
		},
	})
	if err != nil {
		return classifyError("delete user", err)
	}
	r.logger.Info("User deleted", zap.String("userID", user.ID().String()))
	return nil
}
