// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package auth validates the bearer tokens Heimdall issues in front of the service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

const (
	// PS256 is the algorithm Heimdall signs with.
	PS256 = validator.PS256

	defaultIssuer   = "heimdall"
	defaultAudience = "lfx-v2-video-meeting-service"
	defaultJWKSURL  = "http://heimdall:4457/.well-known/jwks"

	jwksCacheTTL     = 5 * time.Minute
	allowedClockSkew = 5 * time.Second
)

// HeimdallClaims are the custom claims carried by Heimdall tokens.
type HeimdallClaims struct {
	Principal string `json:"principal"`
	Email     string `json:"email,omitempty"`
}

// Validate checks the custom claims once the signature has been verified.
func (c *HeimdallClaims) Validate(_ context.Context) error {
	if c.Principal == "" {
		return errors.New("principal must be provided")
	}
	return nil
}

// JWTAuthConfig configures token validation.
type JWTAuthConfig struct {
	// JWKSURL defaults to the in-cluster Heimdall endpoint.
	JWKSURL string
	// Audience defaults to this service's name.
	Audience string
	// MockLocalPrincipal skips validation entirely and is only meant for local development.
	MockLocalPrincipal string
}

// JWTAuth extracts principals from Heimdall tokens.
type JWTAuth struct {
	validator *validator.Validator
	config    JWTAuthConfig
}

// NewJWTAuth builds a validator backed by a caching JWKS provider.
func NewJWTAuth(config JWTAuthConfig) (*JWTAuth, error) {
	jwksURLStr := config.JWKSURL
	if jwksURLStr == "" {
		jwksURLStr = defaultJWKSURL
	}
	jwksURL, err := url.Parse(jwksURLStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWKS URL: %w", err)
	}

	audience := config.Audience
	if audience == "" {
		audience = defaultAudience
	}

	issuer, err := url.Parse(defaultIssuer)
	if err != nil {
		return nil, fmt.Errorf("invalid issuer: %w", err)
	}

	provider := jwks.NewCachingProvider(issuer, jwksCacheTTL, jwks.WithCustomJWKSURI(jwksURL))

	customClaims := func() validator.CustomClaims {
		return &HeimdallClaims{}
	}

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		PS256,
		issuer.String(),
		[]string{audience},
		validator.WithCustomClaims(customClaims),
		validator.WithAllowedClockSkew(allowedClockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the JWT validator: %w", err)
	}

	return &JWTAuth{
		validator: jwtValidator,
		config:    config,
	}, nil
}

// ParsePrincipal validates the token and returns the principal it names.
func (j *JWTAuth) ParsePrincipal(ctx context.Context, token string, logger *slog.Logger) (string, error) {
	claims, err := j.ParseClaims(ctx, token, logger)
	if err != nil {
		return "", err
	}
	return claims.Principal, nil
}

// ParseClaims validates the token and returns its Heimdall claims.
func (j *JWTAuth) ParseClaims(ctx context.Context, token string, logger *slog.Logger) (*HeimdallClaims, error) {
	if j.config.MockLocalPrincipal != "" {
		logger.InfoContext(ctx, "JWT principal parsing disabled, returning mock principal",
			"principal", j.config.MockLocalPrincipal,
		)
		return &HeimdallClaims{Principal: j.config.MockLocalPrincipal}, nil
	}

	if j.validator == nil {
		return nil, errors.New("JWT validator is not set up")
	}

	if token == "" {
		return nil, jwtmiddleware.ErrJWTMissing
	}

	parsed, err := j.validator.ValidateToken(ctx, token)
	if err != nil {
		logger.DebugContext(ctx, "JWT validation failed", "error", err)
		return nil, err
	}

	validated, ok := parsed.(*validator.ValidatedClaims)
	if !ok {
		return nil, errors.New("failed to get validated authorization claims")
	}

	claims, ok := validated.CustomClaims.(*HeimdallClaims)
	if !ok {
		return nil, errors.New("failed to get custom authorization claims")
	}

	return claims, nil
}
