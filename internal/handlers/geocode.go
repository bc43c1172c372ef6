package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rxcompare/price-service/internal/geocode"
)

// GeocodeResponse is a resolved postal code.
type GeocodeResponse struct {
	PostalCode string         `json:"postalCode"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Source     geocode.Source `json:"source"`
}

// GeocodePostalCode resolves a US postal code to coordinates.
//
//	@Summary	Geocode a postal code
//	@Tags		geocode
//	@Produce	json
//	@Param		postalCode	path		string	true	"Five-digit US postal code"
//	@Success	200			{object}	GeocodeResponse
//	@Failure	400			{object}	ErrorResponse
//	@Router		/api/v1/geocode/{postalCode} [get]
func GeocodePostalCode(c *gin.Context) {
	postalCode := c.Param("postalCode")
	coords, err := postalGeocoder.Resolve(c.Request.Context(), postalCode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, GeocodeResponse{
		PostalCode: postalCode,
		Latitude:   coords.Latitude,
		Longitude:  coords.Longitude,
		Source:     coords.Source,
	})
}
