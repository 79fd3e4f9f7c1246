package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	platformauth "github.com/paroquiaemdia/parish-api/platform/go/auth"
	"github.com/paroquiaemdia/parish-api/platform/go/gcp"
)

// buildAuthMiddleware constructs the JWT middleware for the configured
// identity provider. Role and parish association are never read from claims;
// they come from the membership table per request.
func buildAuthMiddleware(ctx context.Context, cfg config, logger *zap.Logger) func(http.Handler) http.Handler {
	var verify platformauth.VerifyFunc
	switch cfg.AuthProvider {
	case "firebase":
		_, fbAuth, err := gcp.InitFirebaseAuth(ctx)
		if err != nil {
			logger.Fatal("init firebase auth", zap.Error(err))
		}
		verify = platformauth.FirebaseTokenVerifier(fbAuth)
	case "dev":
		logger.Warn("using dev auth middleware; do not use in production")
		verify = platformauth.UnsignedTokenVerifier()
	default:
		logger.Fatal("unsupported auth provider", zap.String("provider", cfg.AuthProvider))
	}

	return platformauth.JWT(verify, platformauth.DefaultCredentialExtractor)
}
