package policystore

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/logger"
)

const groupKeyAttribute = "group"

// BatchGetAPI is the slice of the DynamoDB API the repository needs, narrowed
// so tests can fake it.
type BatchGetAPI interface {
	BatchGetItem(
		ctx context.Context,
		params *dynamodb.BatchGetItemInput,
		optFns ...func(*dynamodb.Options),
	) (*dynamodb.BatchGetItemOutput, error)
}

// Repository reads group policy records from the policy table.
type Repository struct {
	api   BatchGetAPI
	table string
}

func NewRepository(api BatchGetAPI, table string) *Repository {
	return &Repository{
		api:   api,
		table: table,
	}
}

// Fetch performs one batched read for the given group names. Duplicates are
// collapsed before the call, groups without a stored record are silently
// absent, and a record whose policy has no statement list is skipped with a
// warning: one administrator's malformed entry must not lock out every other
// group's access. The caller's group count is small and bounded, so there is
// no pagination.
func (r *Repository) Fetch(ctx context.Context, groups []string) ([]authorizer.GroupPolicyRecord, error) {
	keys := make([]map[string]ddbtypes.AttributeValue, 0, len(groups))
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		keys = append(keys, map[string]ddbtypes.AttributeValue{
			groupKeyAttribute: &ddbtypes.AttributeValueMemberS{Value: g},
		})
	}
	if len(keys) == 0 {
		return nil, nil
	}

	out, err := r.api.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]ddbtypes.KeysAndAttributes{
			r.table: {Keys: keys},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("batch get on %s: %w", r.table, err)
	}

	items := out.Responses[r.table]
	records := make([]authorizer.GroupPolicyRecord, 0, len(items))
	for _, item := range items {
		var row storedRecord
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			logger.WarnContext(ctx, "skipping unreadable policy record",
				slog.String("table", r.table),
				slog.String("error", err.Error()))
			continue
		}
		if len(row.Policy.Statement) == 0 {
			logger.WarnContext(ctx, "skipping policy record without statements",
				slog.String("table", r.table),
				slog.String("group", row.Group))
			continue
		}
		records = append(records, row.toDomain())
	}

	return records, nil
}

type storedRecord struct {
	Group  string         `dynamodbav:"group"`
	Policy storedDocument `dynamodbav:"policy"`
}

type storedDocument struct {
	Version   string            `dynamodbav:"Version"`
	Statement []storedStatement `dynamodbav:"Statement"`
}

type storedStatement struct {
	Sid      string     `dynamodbav:"Sid"`
	Effect   string     `dynamodbav:"Effect"`
	Action   actionAttr `dynamodbav:"Action"`
	Resource []string   `dynamodbav:"Resource"`
}

// actionAttr accepts both the bare string and the list form administrators
// store for statement actions.
type actionAttr []string

func (a *actionAttr) UnmarshalDynamoDBAttributeValue(av ddbtypes.AttributeValue) error {
	switch v := av.(type) {
	case *ddbtypes.AttributeValueMemberS:
		*a = actionAttr{v.Value}
	case *ddbtypes.AttributeValueMemberL:
		out := make([]string, 0, len(v.Value))
		for _, e := range v.Value {
			s, ok := e.(*ddbtypes.AttributeValueMemberS)
			if !ok {
				return fmt.Errorf("action list holds a non-string element")
			}
			out = append(out, s.Value)
		}
		*a = actionAttr(out)
	case *ddbtypes.AttributeValueMemberNULL:
		*a = nil
	default:
		return fmt.Errorf("unsupported attribute type %T for action", av)
	}
	return nil
}

func (r storedRecord) toDomain() authorizer.GroupPolicyRecord {
	statements := make([]authorizer.Statement, 0, len(r.Policy.Statement))
	for _, st := range r.Policy.Statement {
		statements = append(statements, authorizer.Statement{
			Sid:      st.Sid,
			Effect:   st.Effect,
			Action:   authorizer.ActionList(st.Action),
			Resource: st.Resource,
		})
	}

	return authorizer.GroupPolicyRecord{
		Group: r.Group,
		Policy: authorizer.PolicyDocument{
			Version:   r.Policy.Version,
			Statement: statements,
		},
	}
}
