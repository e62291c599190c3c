package authorizer

import (
	"encoding/json"
	"errors"
)

// PolicyVersion is the policy-language version stamped on documents the
// authorizer generates itself.
const PolicyVersion = "2012-10-17"

const (
	EffectAllow = "Allow"
	EffectDeny  = "Deny"
)

// DenyAllPrincipal is the placeholder principal used when no entitlement
// could be established for the caller.
const DenyAllPrincipal = "*"

// ErrUnauthorized is the only error ever surfaced to the invoking gateway.
// The gateway maps this exact message to a 401; any other error text or an
// escaped panic produces a 500 instead, which must never happen here.
//
//nolint:staticcheck // the message is a wire contract, not a log line
var ErrUnauthorized = errors.New("Unauthorized")

// Claims holds the verified fields of a bearer token. Immutable once decoded.
type Claims struct {
	Subject  string
	Issuer   string
	ClientID string
	Groups   []string
	TenantID string
	Email    string
}

// ActionList is a statement action set. Stored documents use both the bare
// string and the array form, so it unmarshals from either and marshals back
// to the shorter one when it holds a single action.
type ActionList []string

func (a *ActionList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = ActionList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*a = ActionList(many)
	return nil
}

func (a ActionList) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Statement is one rule from a stored policy document.
type Statement struct {
	Sid      string     `json:"Sid,omitempty"`
	Effect   string     `json:"Effect"`
	Action   ActionList `json:"Action"`
	Resource []string   `json:"Resource"`
}

// PolicyDocument is the IAM-style document stored per group and returned to
// the gateway as the effective policy.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// GroupPolicyRecord is one row of the group-policy table. Owned by the policy
// administration process; read-only here.
type GroupPolicyRecord struct {
	Group  string
	Policy PolicyDocument
}

// Decision is the authorizer output for one invocation.
type Decision struct {
	PrincipalID string
	Policy      PolicyDocument
	Context     map[string]string
}
