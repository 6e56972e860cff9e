// Package main implements the API Gateway websocket $connect and
// $disconnect handler. Connections are recorded per flow so the API can
// push flow changes to them.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"flowbuilder/infrastructure/config"
	"flowbuilder/infrastructure/di"
	"flowbuilder/infrastructure/persistence/dynamodb"
	"flowbuilder/pkg/auth"
)

// ConnectionStore records websocket connections
type ConnectionStore interface {
	Add(ctx context.Context, conn dynamodb.Connection) error
	Remove(ctx context.Context, connectionID string) error
}

// TokenValidator checks the token a browser connects with
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

type connectionHandler struct {
	store     ConnectionStore
	validator TokenValidator
	logger    *zap.Logger
}

func (h *connectionHandler) Handle(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := req.RequestContext.ConnectionID

	switch req.RequestContext.RouteKey {
	case "$disconnect":
		if err := h.store.Remove(ctx, connectionID); err != nil {
			h.logger.Error("Failed to remove connection", zap.String("connectionID", connectionID), zap.Error(err))
			return respond(http.StatusInternalServerError, "internal server error"), nil
		}
		h.logger.Info("WebSocket disconnected", zap.String("connectionID", connectionID))
		return respond(http.StatusOK, ""), nil

	case "$connect":
		userID, err := h.authenticate(req)
		if err != nil {
			h.logger.Warn("WebSocket authentication failed", zap.String("connectionID", connectionID), zap.Error(err))
			return respond(http.StatusUnauthorized, "unauthorized"), nil
		}

		if err := h.store.Add(ctx, dynamodb.Connection{ConnectionID: connectionID, UserID: userID}); err != nil {
			h.logger.Error("Failed to store connection", zap.String("connectionID", connectionID), zap.Error(err))
			return respond(http.StatusInternalServerError, "internal server error"), nil
		}
		h.logger.Info("WebSocket connected", zap.String("connectionID", connectionID), zap.String("userID", userID))
		return respond(http.StatusOK, ""), nil

	default:
		return respond(http.StatusBadRequest, "unsupported route"), nil
	}
}

func (h *connectionHandler) authenticate(req events.APIGatewayWebsocketProxyRequest) (string, error) {
	if h.validator == nil {
		return "anonymous", nil
	}

	token := req.QueryStringParameters["token"]
	if token == "" {
		for key, value := range req.Headers {
			if strings.EqualFold(key, "Authorization") {
				token = strings.TrimPrefix(value, "Bearer ")
			}
		}
	}
	if token == "" {
		return "", auth.ErrMissingToken
	}

	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func respond(status int, message string) events.APIGatewayProxyResponse {
	if message == "" {
		return events.APIGatewayProxyResponse{StatusCode: status}
	}
	body, _ := json.Marshal(map[string]string{"error": message})
	return events.APIGatewayProxyResponse{StatusCode: status, Body: string(body)}
}

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}

	h := &connectionHandler{
		store: dynamodb.NewConnectionStore(awsdynamodb.NewFromConfig(awsCfg),
			cfg.ConnectionsTable, cfg.SnapshotKey, di.ConnectionTTL),
		logger: logger,
	}
	if cfg.JWTSecret != "" {
		validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
		if err != nil {
			logger.Fatal("Failed to create token validator", zap.Error(err))
		}
		h.validator = validator
	}

	lambda.Start(h.Handle)
}
