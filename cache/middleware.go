package cache

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware serves GET responses of a namespace from the cache and stores
// successful JSON responses on a miss. The key is the path plus the query.
func (c *Cache) Middleware(namespace string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet {
			ctx.Next()
			return
		}

		key := ctx.Request.URL.Path + "?" + ctx.Request.URL.RawQuery
		if cached, found := c.Read(namespace, key); found {
			ctx.Header("X-Cache", "HIT")
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			ctx.Abort()
			return
		}

		ctx.Header("X-Cache", "MISS")
		writer := &responseWriter{
			ResponseWriter: ctx.Writer,
			body:           bytes.NewBuffer(nil),
		}
		ctx.Writer = writer

		ctx.Next()

		if ctx.Writer.Status() == http.StatusOK &&
			strings.HasPrefix(ctx.Writer.Header().Get("Content-Type"), "application/json") {
			c.Write(namespace, key, writer.body.Bytes())
		}
	}
}
