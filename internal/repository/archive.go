package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"scam-honeypot/internal/domain"
)

const (
	skPrefixArchive = "ARCHIVE#"
	ttlDuration     = 90 * 24 * time.Hour // 90-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Archive.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Archive writes finished conversations' intelligence to a DynamoDB table.
// Records are write-once history; live state never comes from here.
type Archive struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
	newID     func() string
}

// New creates an Archive writing to tableName.
func New(api dynamodbAPI, tableName string) (*Archive, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Archive{
		api:       api,
		tableName: tableName,
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// convPK returns the DynamoDB partition key for a conversation.
func convPK(conversationID string) string {
	return "CONV#" + conversationID
}

// archiveSK orders a conversation's archive records by time.
func archiveSK(ts time.Time) string {
	return skPrefixArchive + ts.UTC().Format(time.RFC3339Nano)
}

// Archive persists a snapshot of st as a new item. Each conversation record
// is archived once, when it finishes or expires while active; an id reused
// after expiry gets its own item under the same partition key.
func (a *Archive) Archive(ctx context.Context, st *domain.ConversationState) error {
	if st == nil || st.ID == "" {
		return errors.New("repository: Archive: conversation id is required")
	}

	now := a.now().UTC()
	_, err := a.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(a.tableName),
		Item:                archiveItem(a.newID(), st, now),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: Archive %s: %w", st.ID, err)
	}
	return nil
}

func archiveItem(recordID string, st *domain.ConversationState, archivedAt time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: convPK(st.ID)},
		"SK":             &types.AttributeValueMemberS{Value: archiveSK(archivedAt)},
		"recordId":       &types.AttributeValueMemberS{Value: recordID},
		"conversationId": &types.AttributeValueMemberS{Value: st.ID},
		"scamType":       &types.AttributeValueMemberS{Value: st.ScamCategory},
		"turns":          &types.AttributeValueMemberN{Value: strconv.Itoa(st.TurnCount)},
		"historyLength":  &types.AttributeValueMemberN{Value: strconv.Itoa(len(st.History))},
		"active":         &types.AttributeValueMemberBOOL{Value: st.Active},
		"createdAt":      &types.AttributeValueMemberS{Value: st.CreatedAt.UTC().Format(time.RFC3339)},
		"archivedAt":     &types.AttributeValueMemberS{Value: archivedAt.Format(time.RFC3339)},
		"bankAccounts":   stringList(st.Intelligence.BankAccounts),
		"upiIds":         stringList(st.Intelligence.UPIIDs),
		"phoneNumbers":   stringList(st.Intelligence.PhoneNumbers),
		"phishingUrls":   stringList(st.Intelligence.PhishingURLs),
		"emailAddresses": stringList(st.Intelligence.EmailAddresses),
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(archivedAt.Add(ttlDuration).Unix(), 10)},
	}
}

// stringList encodes values as an L attribute; string sets cannot be empty.
func stringList(values []string) *types.AttributeValueMemberL {
	out := make([]types.AttributeValue, 0, len(values))
	for _, v := range values {
		out = append(out, &types.AttributeValueMemberS{Value: v})
	}
	return &types.AttributeValueMemberL{Value: out}
}
