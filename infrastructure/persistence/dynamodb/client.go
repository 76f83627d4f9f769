// Package dynamodb stores notes, users and chat connections in one DynamoDB table.
//
// Key layout:
//
//	note        PK=USER#<uid>   SK=NOTE#<created, fixed width UTC>#<id>   GSI1PK=NOTE#<id>  GSI1SK=METADATA
//	user        PK=USER#<id>    SK=PROFILE
//	email       PK=EMAIL#<addr> SK=EMAIL
//	connection  PK=USER#<uid>   SK=CONN#<id>                              GSI1PK=CONN#<id>  GSI1SK=METADATA
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	pkgerrors "github.com/isaac-evs/neurotype-prod-backend/pkg/errors"
)

// Client is the subset of the DynamoDB API the repositories use
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// TableConfig names the table and its secondary index
type TableConfig struct {
	TableName     string
	GSI1IndexName string
}

const (
	entityNote       = "NOTE"
	entityUser       = "USER"
	entityEmail      = "EMAIL"
	entityConnection = "CONNECTION"

	metadataSK = "METADATA"
	profileSK  = "PROFILE"
	emailSK    = "EMAIL"

	// sortTimeLayout is fixed width so that SK order is chronological
	sortTimeLayout = "2006-01-02T15:04:05.000000000Z"

	maxBatchWrite = 25
	maxBatchRetry = 5
)

func userPK(userID string) string       { return "USER#" + userID }
func emailPK(email string) string       { return "EMAIL#" + email }
func noteGSI1PK(noteID string) string   { return "NOTE#" + noteID }
func connectionSK(connID string) string { return "CONN#" + connID }

func noteSK(createdAt time.Time, noteID string) string {
	return fmt.Sprintf("NOTE#%s#%s", createdAt.UTC().Format(sortTimeLayout), noteID)
}

// noteSKBound is a sort key that orders before every note created at t or later
func noteSKBound(t time.Time) string {
	return "NOTE#" + t.UTC().Format(sortTimeLayout)
}

const (
	noteSKMin = "NOTE#"
	noteSKMax = "NOTE#~"
)

var throttlingCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"LimitExceededException":                 true,
}

// classifyError maps an SDK failure onto an AppError. Throttling becomes
// unavailable; everything else is a database error.
func classifyError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && throttlingCodes[apiErr.ErrorCode()] {
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	}
	return pkgerrors.NewDatabaseError(operation, err)
}

func isConditionFailed(err error) (*types.ConditionalCheckFailedException, bool) {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ccf, true
	}
	return nil, false
}

// cancellationCodes returns the per-item reasons of a cancelled transaction
func cancellationCodes(err error) []string {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil
	}
	codes := make([]string, len(tce.CancellationReasons))
	for i, reason := range tce.CancellationReasons {
		if reason.Code != nil {
			codes[i] = *reason.Code
		}
	}
	return codes
}
