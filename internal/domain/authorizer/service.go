package authorizer

import (
	"context"
	"encoding/json"
	"fmt"

	"log/slog"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/logger"
)

// TokenVerifier terminates the bearer token and returns its verified claims.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

// PolicyRepository fetches the stored policy records for a set of group
// names. Groups without a record are simply absent from the result.
type PolicyRepository interface {
	Fetch(ctx context.Context, groups []string) ([]GroupPolicyRecord, error)
}

type Service interface {
	Authorize(ctx context.Context, rawToken, methodARN string) (*Decision, error)
}

type service struct {
	verifier TokenVerifier
	policies PolicyRepository
}

func NewService(verifier TokenVerifier, policies PolicyRepository) Service {
	return &service{
		verifier: verifier,
		policies: policies,
	}
}

// Authorize runs verify, group resolution, policy fetch, compose and filter.
// Only a failed token verification is returned as an error; the transports
// collapse that to the gateway's Unauthorized contract. Every other failure
// degrades to a structurally valid deny-all decision.
func (s *service) Authorize(ctx context.Context, rawToken, methodARN string) (*Decision, error) {
	claims, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	if len(claims.Groups) == 0 {
		logger.InfoContext(ctx, "token carries no group memberships",
			slog.String("sub", claims.Subject))
		return buildDecision(claims, DenyAllDocument()), nil
	}

	records, err := s.policies.Fetch(ctx, claims.Groups)
	if err != nil {
		logger.ErrorContext(ctx, "policy fetch failed, denying request",
			slog.String("error", err.Error()))
		return buildDecision(claims, DenyAllDocument()), nil
	}

	doc := Filter(Compose(records), methodARN)

	return buildDecision(claims, doc), nil
}

// buildDecision assembles the response document. The gateway's response
// context only carries primitive scalars, so the group list is serialized to
// a JSON string and every other value is coerced to a string, empty when the
// claim is absent.
func buildDecision(claims *Claims, doc PolicyDocument) *Decision {
	principal := claims.Subject
	if IsDenyAll(doc) {
		principal = DenyAllPrincipal
	}

	groups := claims.Groups
	if groups == nil {
		groups = []string{}
	}
	groupsJSON, _ := json.Marshal(groups)

	return &Decision{
		PrincipalID: principal,
		Policy:      doc,
		Context: map[string]string{
			"sub":      claims.Subject,
			"tenantId": claims.TenantID,
			"groups":   string(groupsJSON),
			"email":    claims.Email,
		},
	}
}
