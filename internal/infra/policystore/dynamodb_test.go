package policystore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/infra/policystore"
)

const testTable = "group-policy-table"

type mockBatchGetAPI struct {
	batchGetFunc func(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	lastInput    *dynamodb.BatchGetItemInput
	calls        int
}

func (m *mockBatchGetAPI) BatchGetItem(
	ctx context.Context,
	params *dynamodb.BatchGetItemInput,
	optFns ...func(*dynamodb.Options),
) (*dynamodb.BatchGetItemOutput, error) {
	m.calls++
	m.lastInput = params
	if m.batchGetFunc != nil {
		return m.batchGetFunc(ctx, params, optFns...)
	}
	return &dynamodb.BatchGetItemOutput{}, nil
}

func policyItem(group, sid, resource string) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		"group": &ddbtypes.AttributeValueMemberS{Value: group},
		"policy": &ddbtypes.AttributeValueMemberM{Value: map[string]ddbtypes.AttributeValue{
			"Version": &ddbtypes.AttributeValueMemberS{Value: "2012-10-17"},
			"Statement": &ddbtypes.AttributeValueMemberL{Value: []ddbtypes.AttributeValue{
				&ddbtypes.AttributeValueMemberM{Value: map[string]ddbtypes.AttributeValue{
					"Sid":    &ddbtypes.AttributeValueMemberS{Value: sid},
					"Effect": &ddbtypes.AttributeValueMemberS{Value: "Allow"},
					"Action": &ddbtypes.AttributeValueMemberS{Value: "execute-api:Invoke"},
					"Resource": &ddbtypes.AttributeValueMemberL{Value: []ddbtypes.AttributeValue{
						&ddbtypes.AttributeValueMemberS{Value: resource},
					}},
				}},
			}},
		}},
	}
}

func TestRepository_Fetch_SingleBatchWithDistinctKeys(t *testing.T) {
	api := &mockBatchGetAPI{}
	repo := policystore.NewRepository(api, testTable)

	_, err := repo.Fetch(context.Background(), []string{"admin", "user", "admin", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if api.calls != 1 {
		t.Fatalf("expected exactly one batch call, got %d", api.calls)
	}
	keys := api.lastInput.RequestItems[testTable].Keys
	if len(keys) != 2 {
		t.Fatalf("expected 2 distinct keys, got %d", len(keys))
	}
}

func TestRepository_Fetch_NoGroups(t *testing.T) {
	api := &mockBatchGetAPI{}
	repo := policystore.NewRepository(api, testTable)

	records, err := repo.Fetch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
	if api.calls != 0 {
		t.Errorf("expected no batch call for empty input, got %d", api.calls)
	}
}

func TestRepository_Fetch_UnmarshalsRecords(t *testing.T) {
	api := &mockBatchGetAPI{
		batchGetFunc: func(_ context.Context, _ *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
			return &dynamodb.BatchGetItemOutput{
				Responses: map[string][]map[string]ddbtypes.AttributeValue{
					testTable: {policyItem("admin", "s1", "arn:aws:execute-api:us-east-1:1:api/*/*")},
				},
			}, nil
		},
	}
	repo := policystore.NewRepository(api, testTable)

	records, err := repo.Fetch(context.Background(), []string{"admin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.Group != "admin" || rec.Policy.Version != "2012-10-17" {
		t.Errorf("unexpected record: %+v", rec)
	}
	st := rec.Policy.Statement[0]
	if st.Sid != "s1" || st.Effect != "Allow" {
		t.Errorf("unexpected statement: %+v", st)
	}
	if len(st.Action) != 1 || st.Action[0] != "execute-api:Invoke" {
		t.Errorf("string action attribute not accepted: %+v", st.Action)
	}
}

func TestRepository_Fetch_SkipsMalformedRecord(t *testing.T) {
	malformed := map[string]ddbtypes.AttributeValue{
		"group": &ddbtypes.AttributeValueMemberS{Value: "broken"},
		"policy": &ddbtypes.AttributeValueMemberM{Value: map[string]ddbtypes.AttributeValue{
			"Version": &ddbtypes.AttributeValueMemberS{Value: "2012-10-17"},
		}},
	}
	api := &mockBatchGetAPI{
		batchGetFunc: func(_ context.Context, _ *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
			return &dynamodb.BatchGetItemOutput{
				Responses: map[string][]map[string]ddbtypes.AttributeValue{
					testTable: {
						malformed,
						policyItem("admin", "s1", "arn:aws:execute-api:us-east-1:1:api/*/*"),
					},
				},
			}, nil
		},
	}
	repo := policystore.NewRepository(api, testTable)

	records, err := repo.Fetch(context.Background(), []string{"broken", "admin"})
	if err != nil {
		t.Fatalf("a malformed record must not fail the fetch: %v", err)
	}

	if len(records) != 1 || records[0].Group != "admin" {
		t.Fatalf("expected only the valid record to survive, got %+v", records)
	}
}

func TestRepository_Fetch_BackendError(t *testing.T) {
	api := &mockBatchGetAPI{
		batchGetFunc: func(_ context.Context, _ *dynamodb.BatchGetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	repo := policystore.NewRepository(api, testTable)

	if _, err := repo.Fetch(context.Background(), []string{"admin"}); err == nil {
		t.Fatal("expected error from backend failure")
	}
}
