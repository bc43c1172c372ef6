package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxcompare/price-service/internal/auth"
	"github.com/rxcompare/price-service/internal/geocode"
	"github.com/rxcompare/price-service/internal/types"
)

// PriceResolver is the part of the engine the API serves.
type PriceResolver interface {
	Resolve(ctx context.Context, query types.DrugQuery, loc types.Location) (*types.ResolutionResult, error)
	SearchNames(ctx context.Context, prefix string) ([]string, error)
}

// PostalGeocoder resolves postal codes.
type PostalGeocoder interface {
	Resolve(ctx context.Context, postalCode string) (geocode.Coordinates, error)
}

// TokenStatus reports the upstream token cache.
type TokenStatus interface {
	Status() auth.Status
}

// Dependencies initialized by the application
var (
	priceResolver   PriceResolver
	postalGeocoder  PostalGeocoder
	tokenStatus     TokenStatus
	upstreamBaseURL string
)

// Init wires the handlers to the running services.
// This should be called during application startup
func Init(resolver PriceResolver, geocoder PostalGeocoder, tokens TokenStatus, baseURL string) {
	priceResolver = resolver
	postalGeocoder = geocoder
	tokenStatus = tokens
	upstreamBaseURL = baseURL
}

// ErrorResponse is the body of every 4xx/5xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps validation failures to 400 and everything else to 500.
// A caller that went away gets 499.
func writeError(c *gin.Context, err error) {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Reason, Field: ve.Field})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(499)
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
