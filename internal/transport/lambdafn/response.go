package lambdafn

import (
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/domain/authorizer"
)

// Response is the authorizer output document the gateway consumes. It is a
// local type rather than the events one so statement Sids and the
// string-or-array action form survive serialization.
type Response struct {
	PrincipalID    string                    `json:"principalId"`
	PolicyDocument authorizer.PolicyDocument `json:"policyDocument"`
	Context        map[string]string         `json:"context,omitempty"`
}

func newResponse(decision *authorizer.Decision) Response {
	return Response{
		PrincipalID:    decision.PrincipalID,
		PolicyDocument: decision.Policy,
		Context:        decision.Context,
	}
}
