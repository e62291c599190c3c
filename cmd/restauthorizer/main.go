package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/config"
	"github.com/aws-solutions/generative-ai-application-builder-on-aws-sub016/internal/transport/lambdafn"
)

func main() {
	cfg := config.MustLoadEnv()

	handler, err := lambdafn.BuildRest(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to build rest authorizer: %v", err)
	}

	lambda.Start(handler.Handle)
}
