package store_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cookiq/account"
	"cookiq/cache"
	"cookiq/client"
	"cookiq/database"
	"cookiq/models"
	"cookiq/server"
	"cookiq/storage"
	"cookiq/store"
)

const (
	adminEmail    = "admin@cookiq.vn"
	adminPassword = "admin-secret"
)

type shop struct {
	url string
}

func setupShop(t *testing.T) *shop {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, database.SeedAdmin(db, adminEmail, adminPassword))

	router := gin.New()
	server.New(router, server.Deps{
		DB:        db,
		Guard:     account.NewGuard("e2e-secret", time.Hour),
		Cache:     cache.New(t.TempDir(), time.Minute),
		UploadDir: t.TempDir(),
		PublicURL: "http://shop.test",
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &shop{url: srv.URL + "/api"}
}

// newClientStore wires a store the way the shop command does.
func (s *shop) newClientStore(t *testing.T) *store.Store {
	return s.newClientStoreWith(t, openDurable(t))
}

func openDurable(t *testing.T) *storage.Storage {
	t.Helper()
	durable, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { durable.Close() })
	return durable
}

func (s *shop) newClientStoreWith(t *testing.T, durable *storage.Storage) *store.Store {
	t.Helper()
	api := client.New(s.url, client.WithLogger(zap.NewNop()), client.WithTokenSource(func() string {
		token, _ := durable.Get(storage.KeyToken)
		return token
	}))
	st := store.New(api, durable, store.WithLogger(zap.NewNop()))
	api.OnUnauthorized(st.HandleUnauthorized)
	st.Init(context.Background())
	return st
}

func TestEndToEnd_Checkout(t *testing.T) {
	ctx := context.Background()
	s := setupShop(t)

	admin := s.newClientStore(t)
	require.True(t, admin.Login(ctx, adminEmail, adminPassword))
	require.NoError(t, admin.AddProduct(ctx, store.ProductDraft{
		Name: "Sữa tươi Đà Lạt", Category: store.FreshMilk, Price: 50000, Stock: 10,
	}))
	require.Len(t, admin.Products(), 1)
	p1 := admin.Products()[0]
	assert.Equal(t, store.PlaceholderImage, p1.Image)

	shopper := s.newClientStore(t)
	require.True(t, shopper.Register(ctx, "Lan", "lan@example.com", "pw"))
	require.True(t, shopper.Login(ctx, "lan@example.com", "pw"))
	assert.Equal(t, "Lan", shopper.Identity().Name)

	product, ok := shopper.Product(p1.ID)
	require.True(t, ok)
	shopper.AddToCart(product)
	shopper.AddToCart(product)
	assert.Equal(t, 100000.0, shopper.CartTotal())

	order, err := shopper.PlaceOrder(ctx, store.OrderDetails{
		Address: "12 Hang Bai", Phone: "0900", PaymentMethod: models.PaymentQR,
	})
	require.NoError(t, err)
	assert.Equal(t, 100000.0, order.Total)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Empty(t, shopper.Cart())
	require.Len(t, shopper.Orders(), 1)

	shopper.FetchOrders(ctx)
	require.Len(t, shopper.Orders(), 1)
	assert.Equal(t, order.ID, shopper.Orders()[0].ID)

	shopper.RefreshProducts(ctx)
	product, _ = shopper.Product(p1.ID)
	assert.Equal(t, 8, product.Stock)

	require.NoError(t, admin.UpdateOrderStatus(ctx, order.ID, models.StatusConfirmed))
	require.Len(t, admin.Orders(), 1)
	assert.Equal(t, models.StatusConfirmed, admin.Orders()[0].Status)

	err = admin.UpdateOrderStatus(ctx, order.ID, models.StatusPending)
	assert.Error(t, err)
}

func TestEndToEnd_OutOfStockKeepsCart(t *testing.T) {
	ctx := context.Background()
	s := setupShop(t)

	admin := s.newClientStore(t)
	require.True(t, admin.Login(ctx, adminEmail, adminPassword))
	require.NoError(t, admin.AddProduct(ctx, store.ProductDraft{Name: "Hạt điều", Category: store.NutsDriedFruit, Price: 90000, Stock: 1}))
	p := admin.Products()[0]
	admin.AddToCart(p)
	admin.AddToCart(p)

	_, err := admin.PlaceOrder(ctx, store.OrderDetails{Address: "x", Phone: "y", PaymentMethod: models.PaymentCOD})

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 409, apiErr.Status)
	assert.Equal(t, 2, admin.CartCount())
	assert.Empty(t, admin.Orders())
}

func TestEndToEnd_BlogModeration(t *testing.T) {
	ctx := context.Background()
	s := setupShop(t)

	author := s.newClientStore(t)
	require.True(t, author.Register(ctx, "Minh", "minh@example.com", "pw"))
	require.True(t, author.Login(ctx, "minh@example.com", "pw"))
	require.NoError(t, author.AddBlog(ctx, store.BlogDraft{Title: "Cháo yến mạch", Category: store.Cooking, Content: "Nấu **nhanh**"}))
	assert.Empty(t, author.VisibleBlogs())

	admin := s.newClientStore(t)
	require.True(t, admin.Login(ctx, adminEmail, adminPassword))
	pending := admin.PendingBlogs()
	require.Len(t, pending, 1)
	assert.Equal(t, "Minh", pending[0].AuthorName)

	require.NoError(t, admin.ApproveBlog(ctx, pending[0].ID))
	assert.Empty(t, admin.PendingBlogs())

	author.RefreshBlogs(ctx)
	visible := author.VisibleBlogs()
	require.Len(t, visible, 1)
	assert.Contains(t, visible[0].ContentHTML, "<strong>nhanh</strong>")

	require.NoError(t, author.AddComment(ctx, visible[0].ID, "Ngon quá"))
	post, ok := author.Post(visible[0].ID)
	require.True(t, ok)
	require.Len(t, post.Comments, 1)
	assert.Equal(t, "Minh", post.Comments[0].AuthorName)

	admin.RefreshBlogs(ctx)
	require.NoError(t, admin.DeleteBlog(ctx, post.ID))
	assert.Empty(t, admin.VisibleBlogs())
}

func TestEndToEnd_RejectedTokenSignsOut(t *testing.T) {
	ctx := context.Background()
	s := setupShop(t)

	durable := openDurable(t)
	require.NoError(t, durable.Set(storage.KeyToken, "not-a-valid-token"))
	require.NoError(t, durable.Set(storage.KeyUser, `{"id":"u1","fullName":"Lan","email":"lan@example.com","roles":"USER"}`))

	st := s.newClientStoreWith(t, durable)
	require.NotNil(t, st.Identity())

	st.FetchOrders(ctx)

	assert.Nil(t, st.Identity())
	_, ok := durable.Get(storage.KeyToken)
	assert.False(t, ok)
}
