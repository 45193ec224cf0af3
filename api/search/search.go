package search

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/eafkit/api/types"
	"github.com/killallgit/eafkit/internal/services/corpus"
)

// MaxLimit caps the rows a single request may return
const MaxLimit = 1000

// Get searches indexed rows with query parameters q, tier, participant,
// document and limit.
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q corpus.Query
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "Invalid query parameters",
				Details: err.Error(),
			})
			return
		}
		run(c, deps, q)
	}
}

// Post searches indexed rows with a JSON body of the same fields as Get.
func Post(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q corpus.Query
		if err := c.ShouldBindJSON(&q); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
					Status:  types.StatusError,
					Message: "Request body too large",
				})
				return
			}
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "Invalid request format",
				Details: err.Error(),
			})
			return
		}
		run(c, deps, q)
	}
}

func run(c *gin.Context, deps *types.Dependencies, q corpus.Query) {
	if q.Text == "" && q.TierID == "" && q.Participant == "" && q.Document == "" {
		types.SendBadRequest(c, "At least one of q, tier, participant or document is required")
		return
	}
	if q.Limit < 0 || q.Limit > MaxLimit {
		types.SendBadRequest(c, "Limit must be between 1 and 1000")
		return
	}

	rows, err := deps.Corpus.Search(c.Request.Context(), q)
	if err != nil {
		types.SendError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.RowsResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusOK},
		Rows:         types.FromRows(rows),
		Query:        q,
		Count:        len(rows),
	})
}
