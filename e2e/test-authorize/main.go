package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	httpclient "github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/pkg/http"
)

type invocation struct {
	MethodArn             string            `json:"methodArn"`
	Headers               map[string]string `json:"headers,omitempty"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
}

type statement struct {
	Sid      string          `json:"Sid,omitempty"`
	Effect   string          `json:"Effect"`
	Action   json.RawMessage `json:"Action"`
	Resource []string        `json:"Resource"`
}

type authorizerResponse struct {
	PrincipalID    string `json:"principalId"`
	PolicyDocument struct {
		Version   string      `json:"Version"`
		Statement []statement `json:"Statement"`
	} `json:"policyDocument"`
	Context map[string]string `json:"context"`
}

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("Usage: %s <bearer-token> <method-arn> [rest|websocket] [server-addr]", os.Args[0])
	}

	token := os.Args[1]
	methodARN := os.Args[2]

	variant := "rest"
	if len(os.Args) > 3 {
		variant = os.Args[3]
	}

	serverAddr := "http://localhost:8080"
	if len(os.Args) > 4 {
		serverAddr = os.Args[4]
	}

	inv := invocation{MethodArn: methodARN}
	switch variant {
	case "rest":
		inv.Headers = map[string]string{"Authorization": "Bearer " + token}
	case "websocket":
		inv.QueryStringParameters = map[string]string{"Authorization": token}
	default:
		log.Fatalf("Unknown variant %q (want rest or websocket)", variant)
	}

	var authzResp authorizerResponse
	resp, err := httpclient.Post(
		context.Background(),
		fmt.Sprintf("%s/authorize/%s", serverAddr, variant),
		httpclient.WithBody(inv),
		httpclient.WithResult(&authzResp),
	)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}

	if resp.IsError() {
		fmt.Printf("❌ Authorizer rejected the invocation\n")
		fmt.Printf("Status: %d\n", resp.StatusCode())
		fmt.Printf("Body: %s\n", resp.String())
		return
	}

	allowed := false
	for _, s := range authzResp.PolicyDocument.Statement {
		if s.Effect == "Allow" {
			allowed = true
			break
		}
	}

	if allowed {
		fmt.Println("✅ Authorization ALLOWED")
	} else {
		fmt.Println("❌ Authorization DENIED (deny-all policy)")
	}

	fmt.Printf("\nPrincipal: %s\n", authzResp.PrincipalID)
	fmt.Printf("Policy version: %s\n", authzResp.PolicyDocument.Version)
	fmt.Printf("Statements: %d\n", len(authzResp.PolicyDocument.Statement))
	for _, s := range authzResp.PolicyDocument.Statement {
		fmt.Printf("  [%s] %s action=%s resources=%v\n", s.Sid, s.Effect, string(s.Action), s.Resource)
	}

	if len(authzResp.Context) > 0 {
		fmt.Printf("\n📋 Request context:\n")
		for k, v := range authzResp.Context {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}
}
