package authorizer_test

import (
	"encoding/json"
	"testing"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
)

func allowStatement(sid string, resources ...string) authorizer.Statement {
	return authorizer.Statement{
		Sid:      sid,
		Effect:   authorizer.EffectAllow,
		Action:   authorizer.ActionList{"execute-api:Invoke"},
		Resource: resources,
	}
}

func TestCompose_NoRecords(t *testing.T) {
	doc := authorizer.Compose(nil)

	if !authorizer.IsDenyAll(doc) {
		t.Fatalf("expected deny-all document, got %+v", doc)
	}
	if doc.Version != authorizer.PolicyVersion {
		t.Errorf("expected version %q, got %q", authorizer.PolicyVersion, doc.Version)
	}
}

func TestCompose_ConcatenatesInStoreOrder(t *testing.T) {
	records := []authorizer.GroupPolicyRecord{
		{
			Group: "admin",
			Policy: authorizer.PolicyDocument{
				Version:   "2012-10-17",
				Statement: []authorizer.Statement{allowStatement("a1", "arn:aws:execute-api:us-east-1:1:x/*"), allowStatement("a2", "arn:aws:execute-api:us-east-1:1:y/*")},
			},
		},
		{
			Group: "user",
			Policy: authorizer.PolicyDocument{
				Version:   "2012-10-17",
				Statement: []authorizer.Statement{allowStatement("u1", "arn:aws:execute-api:us-east-1:1:z/*")},
			},
		},
	}

	doc := authorizer.Compose(records)

	if len(doc.Statement) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(doc.Statement))
	}
	for i, sid := range []string{"a1", "a2", "u1"} {
		if doc.Statement[i].Sid != sid {
			t.Errorf("statement %d: expected sid %q, got %q", i, sid, doc.Statement[i].Sid)
		}
	}
	if doc.Version != "2012-10-17" {
		t.Errorf("expected version from first record, got %q", doc.Version)
	}
}

func TestFilter_NoMatchYieldsDenyAll(t *testing.T) {
	doc := authorizer.PolicyDocument{
		Version:   authorizer.PolicyVersion,
		Statement: []authorizer.Statement{allowStatement("s1", "arn:aws:execute-api:us-east-1:1:other-api/*")},
	}

	filtered := authorizer.Filter(doc, "arn:aws:execute-api:us-east-1:1:this-api/prod/GET/users")

	if !authorizer.IsDenyAll(filtered) {
		t.Fatalf("expected deny-all, got %+v", filtered)
	}
}

func TestFilter_KeepsOnlyMatchingStatements(t *testing.T) {
	target := "arn:aws:execute-api:us-east-1:1:this-api/prod/GET/users"
	doc := authorizer.PolicyDocument{
		Version: authorizer.PolicyVersion,
		Statement: []authorizer.Statement{
			allowStatement("miss", "arn:aws:execute-api:us-east-1:1:other-api/*"),
			allowStatement("hit", "arn:aws:execute-api:us-east-1:1:this-api/*/*"),
		},
	}

	filtered := authorizer.Filter(doc, target)

	if len(filtered.Statement) != 1 {
		t.Fatalf("expected exactly one statement, got %d", len(filtered.Statement))
	}
	if filtered.Statement[0].Sid != "hit" {
		t.Errorf("expected statement %q to survive, got %q", "hit", filtered.Statement[0].Sid)
	}
}

func TestFilter_RetainsMatchingDenyStatements(t *testing.T) {
	target := "arn:aws:execute-api:us-east-1:1:this-api/prod/GET/users"
	deny := authorizer.Statement{
		Sid:      "explicit-deny",
		Effect:   authorizer.EffectDeny,
		Action:   authorizer.ActionList{"execute-api:Invoke"},
		Resource: []string{"arn:aws:execute-api:us-east-1:1:this-api/prod/*"},
	}
	doc := authorizer.PolicyDocument{
		Version:   authorizer.PolicyVersion,
		Statement: []authorizer.Statement{allowStatement("allow", "arn:aws:execute-api:us-east-1:1:this-api/*/*"), deny},
	}

	filtered := authorizer.Filter(doc, target)

	if len(filtered.Statement) != 2 {
		t.Fatalf("expected both statements retained, got %d", len(filtered.Statement))
	}
	if filtered.Statement[1].Effect != authorizer.EffectDeny {
		t.Errorf("explicit deny must survive filtering")
	}
}

func TestActionList_JSONForms(t *testing.T) {
	var single authorizer.Statement
	if err := json.Unmarshal([]byte(`{"Effect":"Allow","Action":"execute-api:Invoke","Resource":["*"]}`), &single); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(single.Action) != 1 || single.Action[0] != "execute-api:Invoke" {
		t.Errorf("string action form not accepted: %+v", single.Action)
	}

	var many authorizer.Statement
	if err := json.Unmarshal([]byte(`{"Effect":"Allow","Action":["a","b"],"Resource":["*"]}`), &many); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(many.Action) != 2 {
		t.Errorf("array action form not accepted: %+v", many.Action)
	}

	out, err := json.Marshal(single.Action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `"execute-api:Invoke"` {
		t.Errorf("single action should marshal back to the string form, got %s", out)
	}
}
