package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SearchDrugsResponse lists autocomplete candidates.
type SearchDrugsResponse struct {
	Names []string `json:"names"`
}

// SearchDrugs returns drug names starting with q. An unavailable upstream
// yields an empty list.
//
//	@Summary	Autocomplete drug names
//	@Tags		drugs
//	@Produce	json
//	@Param		q	query		string	true	"Name prefix"
//	@Success	200	{object}	SearchDrugsResponse
//	@Failure	400	{object}	ErrorResponse
//	@Router		/api/v1/drugs/search [get]
func SearchDrugs(c *gin.Context) {
	names, err := priceResolver.SearchNames(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, SearchDrugsResponse{Names: names})
}
