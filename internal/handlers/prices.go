package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxcompare/price-service/internal/middleware"
	"github.com/rxcompare/price-service/internal/types"
)

// PriceRequest is the body of POST /api/v1/prices. Exactly one of DrugName
// and GSN is set; coordinates may be replaced by a postal code.
type PriceRequest struct {
	DrugName    string  `json:"drugName,omitempty" jsonschema:"description=Drug name (mutually exclusive with gsn)"`
	GSN         int     `json:"gsn,omitempty" jsonschema:"description=Generic sequence number (mutually exclusive with drugName)"`
	Quantity    int     `json:"quantity,omitempty" jsonschema:"minimum=0"`
	Latitude    float64 `json:"latitude,omitempty" jsonschema:"minimum=-90,maximum=90"`
	Longitude   float64 `json:"longitude,omitempty" jsonschema:"minimum=-180,maximum=180"`
	PostalCode  string  `json:"postalCode,omitempty" jsonschema:"pattern=^[0-9]{5}$"`
	RadiusMiles float64 `json:"radiusMiles" jsonschema:"exclusiveMinimum=0"`
}

// Query splits the request into the drug query.
func (r PriceRequest) Query() types.DrugQuery {
	return types.DrugQuery{Name: r.DrugName, GSN: r.GSN, Quantity: r.Quantity}
}

// Location splits the request into the search location.
func (r PriceRequest) Location() types.Location {
	return types.Location{
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		PostalCode:  r.PostalCode,
		RadiusMiles: r.RadiusMiles,
	}
}

// GetPrices resolves pharmacy prices for a drug near a location.
// Upstream trouble never fails the request; the result says whether its
// prices are estimates.
//
//	@Summary	Compare pharmacy prices
//	@Tags		prices
//	@Accept		json
//	@Produce	json
//	@Param		request	body		PriceRequest	true	"Drug and location"
//	@Success	200		{object}	types.ResolutionResult
//	@Failure	400		{object}	ErrorResponse
//	@Router		/api/v1/prices [post]
func GetPrices(c *gin.Context) {
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error(), Field: "body"})
		return
	}

	query, loc := req.Query(), req.Location()
	if err := query.Validate(); err != nil {
		writeError(c, err)
		return
	}
	if err := loc.Validate(); err != nil {
		writeError(c, err)
		return
	}

	result, err := priceResolver.Resolve(c.Request.Context(), query, loc)
	if err != nil {
		writeError(c, err)
		return
	}
	result.RequestID = middleware.GetRequestID(c)
	c.JSON(http.StatusOK, result)
}
