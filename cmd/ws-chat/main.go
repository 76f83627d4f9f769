// Command ws-chat serves the API Gateway WebSocket routes of the chat.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/isaac-evs/neurotype-prod-backend/application/ports"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/config"
	"github.com/isaac-evs/neurotype-prod-backend/infrastructure/di"
	"github.com/isaac-evs/neurotype-prod-backend/interfaces/apigateway"
)

var gateway *apigateway.Gateway

func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.WebSocketEndpoint == "" {
		log.Fatal("WEBSOCKET_ENDPOINT is required")
	}

	container, _, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Unable to load SDK config: %v", err)
	}
	management := apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = &cfg.WebSocketEndpoint
	})

	var onReply func(error)
	if cfg.EnableMetrics {
		onReply = container.Metrics.RecordChat
	}
	gateway = apigateway.NewGateway(
		container.ConnRepo,
		container.Tokens,
		container.Chat,
		management,
		ports.SystemClock{},
		onReply,
		container.Logger,
	)
}

func main() {
	lambda.Start(gateway.HandleRequest)
}
