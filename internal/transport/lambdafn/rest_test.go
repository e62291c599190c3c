package lambdafn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/transport/lambdafn"
)

const testMethodARN = "arn:aws:execute-api:us-east-1:111111111111:fake-api-id/test/GET/users"

type mockAppService struct {
	decision  *authorizer.Decision
	err       error
	calls     int
	lastToken string
	lastARN   string
}

func (m *mockAppService) Authorize(_ context.Context, rawToken, methodARN string) (*authorizer.Decision, error) {
	m.calls++
	m.lastToken = rawToken
	m.lastARN = methodARN
	if m.err != nil {
		return nil, m.err
	}
	if m.decision != nil {
		return m.decision, nil
	}
	return &authorizer.Decision{
		PrincipalID: "fake-sub",
		Policy:      authorizer.DenyAllDocument(),
		Context:     map[string]string{"sub": "fake-sub"},
	}, nil
}

func restRequest(headers, query map[string]string) events.APIGatewayCustomAuthorizerRequestTypeRequest {
	return events.APIGatewayCustomAuthorizerRequestTypeRequest{
		MethodArn:             testMethodARN,
		Headers:               headers,
		QueryStringParameters: query,
	}
}

func TestRestHandler_MissingTokenEverywhere(t *testing.T) {
	svc := &mockAppService{}
	h := lambdafn.NewRestHandler(svc)

	_, err := h.Handle(context.Background(), restRequest(nil, nil))
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if err.Error() != "Unauthorized" {
		t.Errorf("the gateway contract requires the exact message Unauthorized, got %q", err.Error())
	}
	if svc.calls != 0 {
		t.Errorf("no downstream call may happen without a token, got %d", svc.calls)
	}
}

func TestRestHandler_HeaderExtraction(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		query   map[string]string
		want    string
	}{
		{
			name:    "canonical header with bearer prefix",
			headers: map[string]string{"Authorization": "Bearer tok-1"},
			want:    "tok-1",
		},
		{
			name:    "lowercase header",
			headers: map[string]string{"authorization": "tok-2"},
			want:    "tok-2",
		},
		{
			name:    "uppercase header with lowercase bearer",
			headers: map[string]string{"AUTHORIZATION": "bearer tok-3"},
			want:    "tok-3",
		},
		{
			name:  "query string fallback",
			query: map[string]string{"Authorization": "tok-4"},
			want:  "tok-4",
		},
		{
			name:    "header wins over query string",
			headers: map[string]string{"Authorization": "Bearer tok-5"},
			query:   map[string]string{"Authorization": "tok-6"},
			want:    "tok-5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAppService{}
			h := lambdafn.NewRestHandler(svc)

			if _, err := h.Handle(context.Background(), restRequest(tt.headers, tt.query)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if svc.lastToken != tt.want {
				t.Errorf("expected token %q, got %q", tt.want, svc.lastToken)
			}
			if svc.lastARN != testMethodARN {
				t.Errorf("expected method arn to be forwarded, got %q", svc.lastARN)
			}
		})
	}
}

func TestRestHandler_ServiceErrorCollapsesToUnauthorized(t *testing.T) {
	svc := &mockAppService{err: errors.New("token validation failed: signature mismatch")}
	h := lambdafn.NewRestHandler(svc)

	_, err := h.Handle(context.Background(), restRequest(map[string]string{"Authorization": "Bearer bad"}, nil))
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Unauthorized" {
		t.Errorf("internal detail must never surface, got %q", err.Error())
	}
}

func TestRestHandler_AllowedDecisionPassesThrough(t *testing.T) {
	statement := authorizer.Statement{
		Sid:      "s1",
		Effect:   authorizer.EffectAllow,
		Action:   authorizer.ActionList{"execute-api:Invoke"},
		Resource: []string{"arn:aws:execute-api:us-east-1:111111111111:fake-api-id/*/*"},
	}
	svc := &mockAppService{decision: &authorizer.Decision{
		PrincipalID: "fake-sub",
		Policy:      authorizer.PolicyDocument{Version: "2012-10-17", Statement: []authorizer.Statement{statement}},
		Context:     map[string]string{"sub": "fake-sub"},
	}}
	h := lambdafn.NewRestHandler(svc)

	resp, err := h.Handle(context.Background(), restRequest(map[string]string{"Authorization": "Bearer good"}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.PrincipalID != "fake-sub" {
		t.Errorf("expected principal fake-sub, got %q", resp.PrincipalID)
	}
	if len(resp.PolicyDocument.Statement) != 1 || resp.PolicyDocument.Statement[0].Sid != "s1" {
		t.Errorf("unexpected policy document: %+v", resp.PolicyDocument)
	}
	if resp.Context["sub"] != "fake-sub" {
		t.Errorf("unexpected context: %+v", resp.Context)
	}
}

func TestRestHandler_DenyAllDecisionIsNotAnError(t *testing.T) {
	svc := &mockAppService{}
	h := lambdafn.NewRestHandler(svc)

	resp, err := h.Handle(context.Background(), restRequest(map[string]string{"Authorization": "Bearer good"}, nil))
	if err != nil {
		t.Fatalf("a deny-all decision must return normally, got %v", err)
	}
	if !authorizer.IsDenyAll(resp.PolicyDocument) {
		t.Errorf("expected deny-all document, got %+v", resp.PolicyDocument)
	}
}
