package documents

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/eafkit/api/types"
	"github.com/killallgit/eafkit/internal/services/corpus"
)

// List returns every indexed document
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		docs, err := deps.Corpus.ListDocuments(c.Request.Context())
		if err != nil {
			types.SendError(c, err)
			return
		}

		out := make([]types.Document, 0, len(docs))
		for i := range docs {
			out = append(out, types.FromDocument(&docs[i]))
		}
		c.JSON(http.StatusOK, types.DocumentsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Documents:    out,
			Count:        len(out),
		})
	}
}

// Get returns one document by UUID
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := deps.Corpus.GetDocument(c.Request.Context(), c.Param("uuid"))
		if err != nil {
			types.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, types.DocumentResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Document:     types.FromDocument(doc),
		})
	}
}

// Rows returns the rows of one document, optionally narrowed by the tier,
// participant and q query parameters.
func Rows(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		uuid := c.Param("uuid")
		if _, err := deps.Corpus.GetDocument(ctx, uuid); err != nil {
			types.SendError(c, err)
			return
		}

		var q corpus.Query
		if err := c.ShouldBindQuery(&q); err != nil {
			types.SendBadRequest(c, "Invalid query parameters")
			return
		}
		q.Document = uuid

		rows, err := deps.Corpus.Search(ctx, q)
		if err != nil {
			types.SendError(c, err)
			return
		}
		c.JSON(http.StatusOK, types.RowsResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Rows:         types.FromRows(rows),
			Count:        len(rows),
		})
	}
}
