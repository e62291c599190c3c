package cognito

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// DescribeUserPoolClientAPI is the slice of the Cognito IdP API the lookup
// needs, narrowed so tests can fake it.
type DescribeUserPoolClientAPI interface {
	DescribeUserPoolClient(
		ctx context.Context,
		params *cip.DescribeUserPoolClientInput,
		optFns ...func(*cip.Options),
	) (*cip.DescribeUserPoolClientOutput, error)
}

// UserPoolClients answers app-client registration checks for one user pool.
type UserPoolClients struct {
	api        DescribeUserPoolClientAPI
	userPoolID string
}

func NewUserPoolClients(api DescribeUserPoolClientAPI, userPoolID string) *UserPoolClients {
	return &UserPoolClients{
		api:        api,
		userPoolID: userPoolID,
	}
}

func (c *UserPoolClients) DescribeClient(ctx context.Context, clientID string) error {
	if clientID == "" {
		return fmt.Errorf("token carries no client id")
	}

	out, err := c.api.DescribeUserPoolClient(ctx, &cip.DescribeUserPoolClientInput{
		UserPoolId: aws.String(c.userPoolID),
		ClientId:   aws.String(clientID),
	})
	if err != nil {
		return fmt.Errorf("describe user pool client: %w", err)
	}
	if out.UserPoolClient == nil {
		return fmt.Errorf("app client %s is not registered", clientID)
	}

	return nil
}
