package cache

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	c := New(t.TempDir(), time.Minute)

	require.NoError(t, c.Write("products", "/api/products?page=0", []byte(`[1]`)))

	body, ok := c.Read("products", "/api/products?page=0")
	assert.True(t, ok)
	assert.Equal(t, `[1]`, string(body))

	_, ok = c.Read("products", "/api/products?page=1")
	assert.False(t, ok)
}

func TestRead_Expired(t *testing.T) {
	c := New(t.TempDir(), time.Minute)
	require.NoError(t, c.Write("blog", "k", []byte(`{}`)))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(c.Path("blog", "k"), old, old))

	_, ok := c.Read("blog", "k")
	assert.False(t, ok)

	require.NoError(t, c.ClearOld())
	_, err := os.Stat(c.Path("blog", "k"))
	assert.True(t, os.IsNotExist(err))
}

func TestClear_Namespace(t *testing.T) {
	c := New(t.TempDir(), time.Minute)
	c.Write("products", "a", []byte(`1`))
	c.Write("blog", "a", []byte(`2`))

	require.NoError(t, c.Clear("products"))

	_, ok := c.Read("products", "a")
	assert.False(t, ok)
	_, ok = c.Read("blog", "a")
	assert.True(t, ok)
}

func TestMiddleware_HitAfterMiss(t *testing.T) {
	c := New(t.TempDir(), time.Minute)
	calls := 0

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/products", c.Middleware("products"), func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusOK, gin.H{"n": calls})
	})

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/api/products?page=0", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"n":1}`, w.Body.String())
	}
	assert.Equal(t, 1, calls)
}

func TestMiddleware_SkipsErrors(t *testing.T) {
	c := New(t.TempDir(), time.Minute)
	calls := 0

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/products/:id", c.Middleware("products"), func(ctx *gin.Context) {
		calls++
		ctx.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest("GET", "/api/products/x", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Equal(t, 2, calls)
}
