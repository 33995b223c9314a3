package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookiq/models"
	"cookiq/storage"
)

var p1 = Product{ID: "p1", Name: "Sữa tươi", Category: FreshMilk, Price: 50000, Stock: 10, Image: PlaceholderImage}

func loginAs(t *testing.T, s *Store, api *fakeAPI, u models.User) {
	t.Helper()
	api.loginResp = &models.LoginResponse{User: u, Token: "tok-" + u.ID}
	require.True(t, s.Login(context.Background(), u.Email, "secret"))
}

func TestAddToCart_Aggregates(t *testing.T) {
	s, _ := setupTestStore(t, newFakeAPI())

	s.AddToCart(p1)
	s.AddToCart(p1)

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, 2, cart[0].Quantity)
	assert.Equal(t, 2, s.CartCount())
	assert.Equal(t, 100000.0, s.CartTotal())
}

func TestRemoveFromCart_IsExact(t *testing.T) {
	s, _ := setupTestStore(t, newFakeAPI())
	p2 := Product{ID: "p2", Price: 1000}

	s.AddToCart(p1)
	s.AddToCart(p1)
	s.AddToCart(p2)
	s.RemoveFromCart("p1")

	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, "p2", cart[0].Product.ID)

	s.AddToCart(p1)
	cart = s.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, 1, cart[1].Quantity)
}

func TestClearCart(t *testing.T) {
	s, _ := setupTestStore(t, newFakeAPI())
	s.AddToCart(p1)
	s.ClearCart()
	assert.Empty(t, s.Cart())
	assert.Zero(t, s.CartTotal())
}

func TestPlaceOrder_Preconditions(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()

	_, err := s.PlaceOrder(ctx, OrderDetails{PaymentMethod: models.PaymentCOD})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))
	_, err = s.PlaceOrder(ctx, OrderDetails{PaymentMethod: models.PaymentCOD})
	assert.ErrorIs(t, err, ErrEmptyCart)

	s.AddToCart(p1)
	_, err = s.PlaceOrder(ctx, OrderDetails{PaymentMethod: "CASH"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	assert.Zero(t, api.count("CreateOrder"))
}

func TestPlaceOrder_SuccessClearsCartAndPrepends(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()
	loginAs(t, s, api, wireUser("u1", "lan@example.com", "", models.RoleUser))

	api.myOrders = []models.Order{{ID: "o0", TotalAmount: 10}}
	s.FetchOrders(ctx)
	require.Len(t, s.Orders(), 1)

	api.createdOrder = &models.Order{ID: "o1", TotalAmount: 100000, Status: models.StatusPending}
	s.AddToCart(p1)
	s.AddToCart(p1)

	order, err := s.PlaceOrder(ctx, OrderDetails{Address: "12 Hang Bai", Phone: "0900", PaymentMethod: models.PaymentBank})
	require.NoError(t, err)

	assert.Equal(t, "o1", order.ID)
	assert.Empty(t, s.Cart())
	orders := s.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, "o0", orders[1].ID)

	// blank full name falls back to the display name
	assert.Equal(t, "lan", api.lastOrder.CustomerName)
	require.Len(t, api.lastOrder.Items, 1)
	assert.Equal(t, models.CartItem{ProductID: "p1", Quantity: 2}, api.lastOrder.Items[0])
}

func TestPlaceOrder_FailureKeepsState(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()
	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))

	api.orderErr = errRemote
	s.AddToCart(p1)

	_, err := s.PlaceOrder(ctx, OrderDetails{PaymentMethod: models.PaymentCOD})

	assert.ErrorIs(t, err, errRemote)
	assert.Len(t, s.Cart(), 1)
	assert.Empty(t, s.Orders())
}

func TestPlaceOrder_KeepsLinesAddedInFlight(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()
	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))

	p2 := Product{ID: "p2", Name: "Yến mạch", Price: 30000}
	api.createdOrder = &models.Order{ID: "o1", TotalAmount: 50000}
	api.beforeOrderCreated = func() {
		s.AddToCart(p1)
		s.AddToCart(p2)
	}
	s.AddToCart(p1)

	_, err := s.PlaceOrder(ctx, OrderDetails{PaymentMethod: models.PaymentCOD})
	require.NoError(t, err)

	assert.Equal(t, []models.CartItem{{ProductID: "p1", Quantity: 1}}, api.lastOrder.Items)
	cart := s.Cart()
	require.Len(t, cart, 2)
	assert.Equal(t, "p1", cart[0].Product.ID)
	assert.Equal(t, 1, cart[0].Quantity)
	assert.Equal(t, "p2", cart[1].Product.ID)
	assert.Equal(t, 1, cart[1].Quantity)
	require.Len(t, s.Orders(), 1)
}

func TestPlaceOrder_SessionSwitchInFlight(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()
	loginAs(t, s, api, wireUser("alice", "alice@example.com", "Alice", models.RoleUser))

	bobItem := Product{ID: "p9", Name: "Hạt điều", Price: 90000}
	api.createdOrder = &models.Order{ID: "o-alice", CustomerName: "Alice"}
	api.beforeOrderCreated = func() {
		s.Logout()
		loginAs(t, s, api, wireUser("bob", "bob@example.com", "Bob", models.RoleUser))
		s.AddToCart(bobItem)
	}
	s.AddToCart(p1)

	order, err := s.PlaceOrder(ctx, OrderDetails{PaymentMethod: models.PaymentCOD})
	require.NoError(t, err)

	assert.Equal(t, "o-alice", order.ID)
	assert.Equal(t, "bob", s.Identity().ID)
	assert.Empty(t, s.Orders())
	cart := s.Cart()
	require.Len(t, cart, 1)
	assert.Equal(t, "p9", cart[0].Product.ID)
}

func TestFetchOrders_KeepsOrderPlacedDuringFetch(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()
	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))

	api.myOrders = []models.Order{{ID: "o0"}}
	api.createdOrder = &models.Order{ID: "o1"}
	s.AddToCart(p1)
	api.beforeOrdersReturn = func() {
		api.beforeOrdersReturn = nil
		_, err := s.PlaceOrder(ctx, OrderDetails{PaymentMethod: models.PaymentCOD})
		assert.NoError(t, err)
	}

	s.FetchOrders(ctx)

	orders := s.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].ID)
	assert.Equal(t, "o0", orders[1].ID)

	// once the server knows the order the fetched list is authoritative
	api.myOrders = []models.Order{{ID: "o1"}, {ID: "o0"}}
	s.FetchOrders(ctx)
	orders = s.Orders()
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].ID)
}

func TestFetchOrders_AdminGetsAll(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	api.allOrders = []models.Order{{ID: "a"}, {ID: "b"}}
	loginAs(t, s, api, wireUser("admin", "admin@example.com", "Admin", models.RoleAdmin))

	assert.Len(t, s.Orders(), 2)
	assert.Equal(t, 1, api.count("AllOrders"))
	assert.Zero(t, api.count("MyOrders"))
}

func TestUpdateOrderStatus_Refetches(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	api.allOrders = []models.Order{{ID: "a", Status: models.StatusPending}}
	loginAs(t, s, api, wireUser("admin", "admin@example.com", "Admin", models.RoleAdmin))

	require.NoError(t, s.UpdateOrderStatus(context.Background(), "a", models.StatusConfirmed))

	assert.Equal(t, models.StatusConfirmed, s.Orders()[0].Status)
	assert.Equal(t, 2, api.count("AllOrders"))
}

func TestLogin_PersistsAndRunsReaction(t *testing.T) {
	api := newFakeAPI()
	s, durable := setupTestStore(t, api)
	api.public = []models.BlogPost{wirePost("b1", true)}
	api.users = []models.User{wireUser("u1", "lan@example.com", "Lan", models.RoleUser)}

	loginAs(t, s, api, wireUser("admin", "admin@example.com", "Admin", models.RoleAdmin))

	token, ok := durable.Get(storage.KeyToken)
	assert.True(t, ok)
	assert.Equal(t, "tok-admin", token)
	raw, ok := durable.Get(storage.KeyUser)
	assert.True(t, ok)
	assert.Contains(t, raw, `"email":"admin@example.com"`)

	assert.Equal(t, 1, api.count("PublicPosts"))
	assert.Equal(t, 1, api.count("PendingPosts"))
	assert.Len(t, s.Users(), 1)
	assert.Len(t, s.Blogs(), 1)
}

func TestLogin_FailureLeavesState(t *testing.T) {
	api := newFakeAPI()
	s, durable := setupTestStore(t, api)
	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))

	api.loginErr = errRemote
	assert.False(t, s.Login(context.Background(), "x@example.com", "bad"))

	require.NotNil(t, s.Identity())
	assert.Equal(t, "u1", s.Identity().ID)
	token, _ := durable.Get(storage.KeyToken)
	assert.Equal(t, "tok-u1", token)
}

func TestLogin_StorageFailureRollsBack(t *testing.T) {
	api := newFakeAPI()
	durable := brokenDurable{setupTestStorage(t)}
	s := New(api, durable)
	api.loginResp = &models.LoginResponse{User: wireUser("u1", "lan@example.com", "Lan", models.RoleUser), Token: "t"}

	assert.False(t, s.Login(context.Background(), "lan@example.com", "secret"))
	assert.Nil(t, s.Identity())
	_, ok := durable.Get(storage.KeyToken)
	assert.False(t, ok)
}

func TestRegister(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	assert.True(t, s.Register(context.Background(), "Lan", "lan@example.com", "secret"))
	assert.False(t, s.Register(context.Background(), "Lan", "", "secret"))
	assert.Nil(t, s.Identity())
}

func TestInit_RestoresSession(t *testing.T) {
	api := newFakeAPI()
	durable := setupTestStorage(t)
	require.NoError(t, durable.Set(storage.KeyToken, "tok"))
	require.NoError(t, durable.Set(storage.KeyUser,
		`{"id":"u1","email":"lan.nguyen@example.com","fullName":"  ","roles":"USER"}`))
	api.products = []models.Product{{ID: "p1", Name: "Milk", CategoryID: models.CategoryFreshMilk}}

	s := New(api, durable)
	s.Init(context.Background())

	id := s.Identity()
	require.NotNil(t, id)
	assert.Equal(t, "tok", id.Token)
	assert.Equal(t, "u1", id.ID)
	assert.Equal(t, "lan.nguyen", id.Name)
	assert.Len(t, s.Products(), 1)
	assert.Equal(t, 1, api.count("PublicPosts"))
	assert.Zero(t, api.count("PendingPosts"))
}

func TestInit_RoundTripMatchesLogin(t *testing.T) {
	api := newFakeAPI()
	durable := setupTestStorage(t)
	first := New(api, durable)
	api.loginResp = &models.LoginResponse{User: wireUser("u1", "lan@example.com", "Nguyen Lan", models.RoleUser), Token: "tok"}
	require.True(t, first.Login(context.Background(), "lan@example.com", "secret"))

	second := New(api, durable)
	second.Init(context.Background())

	assert.Equal(t, first.Identity(), second.Identity())
}

func TestInit_MalformedRecordIsIgnored(t *testing.T) {
	durable := setupTestStorage(t)
	require.NoError(t, durable.Set(storage.KeyToken, "tok"))
	require.NoError(t, durable.Set(storage.KeyUser, "{not json"))

	s := New(newFakeAPI(), durable)
	s.Init(context.Background())

	assert.Nil(t, s.Identity())
}

func TestInit_CatalogFailureKeepsEmpty(t *testing.T) {
	api := newFakeAPI()
	api.productsErr = errRemote
	s, _ := setupTestStore(t, api)

	s.Init(context.Background())

	assert.Empty(t, s.Products())
}

func TestLogout_ClearsEverything(t *testing.T) {
	api := newFakeAPI()
	s, durable := setupTestStore(t, api)
	api.allOrders = []models.Order{{ID: "o1"}}
	api.users = []models.User{wireUser("u1", "a@b.c", "A", models.RoleUser)}
	loginAs(t, s, api, wireUser("admin", "admin@example.com", "Admin", models.RoleAdmin))
	s.AddToCart(p1)

	s.Logout()

	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Cart())
	assert.Empty(t, s.Orders())
	assert.Empty(t, s.Users())
	_, ok := durable.Get(storage.KeyToken)
	assert.False(t, ok)
	_, ok = durable.Get(storage.KeyUser)
	assert.False(t, ok)
}

func TestHandleUnauthorized_ForcesLogout(t *testing.T) {
	api := newFakeAPI()
	s, durable := setupTestStore(t, api)
	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))
	s.AddToCart(p1)

	s.HandleUnauthorized()

	assert.Nil(t, s.Identity())
	assert.Empty(t, s.Cart())
	_, ok := durable.Get(storage.KeyToken)
	assert.False(t, ok)
}

func TestVisibleBlogs_ByRole(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()
	api.public = []models.BlogPost{wirePost("b1", true), wirePost("b2", true)}
	api.pending = []models.BlogPost{wirePost("b3", false), wirePost("b1", true)}

	s.RefreshBlogs(ctx)
	assert.Len(t, s.VisibleBlogs(), 2)
	assert.Empty(t, s.PendingBlogs())

	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))
	assert.Len(t, s.VisibleBlogs(), 2)

	loginAs(t, s, api, wireUser("admin", "admin@example.com", "Admin", models.RoleAdmin))
	visible := s.VisibleBlogs()
	require.Len(t, visible, 3)
	ids := []string{visible[0].ID, visible[1].ID, visible[2].ID}
	assert.Equal(t, []string{"b1", "b2", "b3"}, ids)
	pending := s.PendingBlogs()
	require.Len(t, pending, 1)
	assert.Equal(t, "b3", pending[0].ID)

	// after logout the pending post is loaded but no longer visible
	s.Logout()
	assert.Len(t, s.VisibleBlogs(), 2)
}

func TestRefreshBlogs_FailureKeepsPrevious(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	api.public = []models.BlogPost{wirePost("b1", true)}
	s.RefreshBlogs(context.Background())

	api.blogsErr = errRemote
	s.RefreshBlogs(context.Background())

	assert.Len(t, s.Blogs(), 1)
}

func TestAddComment_RequiresIdentity(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	api.public = []models.BlogPost{wirePost("b1", true)}
	s.RefreshBlogs(context.Background())
	before := s.Blogs()

	err := s.AddComment(context.Background(), "b1", "hello")

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, api.count("AddComment"))
	assert.Equal(t, before, s.Blogs())
}

func TestAddComment_ReplacesOnlyThatPost(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	api.public = []models.BlogPost{wirePost("b1", true), wirePost("b2", true)}
	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))

	updated := wirePost("b2", true)
	updated.Comments = []models.Comment{{ID: "c1", UserID: "u1", UserName: "Lan", Content: "hello"}}
	api.commented = &updated

	require.NoError(t, s.AddComment(context.Background(), "b2", "hello"))

	b1, _ := s.Post("b1")
	b2, _ := s.Post("b2")
	assert.Empty(t, b1.Comments)
	require.Len(t, b2.Comments, 1)
	assert.Equal(t, "Lan", b2.Comments[0].AuthorName)
}

func TestAddComment_FailureLeavesCollection(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	api.public = []models.BlogPost{wirePost("b1", true)}
	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))
	api.commentErr = errRemote
	before := s.Blogs()

	assert.ErrorIs(t, s.AddComment(context.Background(), "b1", "hello"), errRemote)
	assert.Equal(t, before, s.Blogs())
}

func TestAddBlog(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()

	assert.ErrorIs(t, s.AddBlog(ctx, BlogDraft{Title: "x"}), ErrNotAuthenticated)
	assert.Zero(t, api.count("CreatePost"))

	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))
	require.NoError(t, s.AddBlog(ctx, BlogDraft{Title: "Yến mạch", Category: Cooking, Image: "img", Content: "body"}))

	assert.Equal(t, "u1", api.lastPost.AuthorID)
	assert.Equal(t, models.BlogCooking, api.lastPost.Category)
	assert.Equal(t, "img", api.lastPost.CoverImageURL)
	assert.Equal(t, 2, api.count("PublicPosts"))
}

func TestDeleteBlog_DispatchesOnStatus(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	ctx := context.Background()
	api.public = []models.BlogPost{wirePost("b1", true)}
	api.pending = []models.BlogPost{wirePost("b2", false)}
	loginAs(t, s, api, wireUser("admin", "admin@example.com", "Admin", models.RoleAdmin))

	require.NoError(t, s.DeleteBlog(ctx, "b2"))
	assert.Equal(t, 1, api.count("RejectPost"))
	assert.Zero(t, api.count("DeleteApprovedPost"))

	require.NoError(t, s.DeleteBlog(ctx, "b1"))
	assert.Equal(t, 1, api.count("DeleteApprovedPost"))
	assert.Equal(t, 1, api.count("RejectPost"))

	assert.ErrorIs(t, s.DeleteBlog(ctx, "missing"), ErrUnknownPost)
	assert.Equal(t, 1, api.count("DeleteApprovedPost"))
	assert.Equal(t, 1, api.count("RejectPost"))
}

func TestApproveBlog_Refetches(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)

	require.NoError(t, s.ApproveBlog(context.Background(), "b2"))

	assert.Equal(t, 1, api.count("ApprovePost"))
	assert.Equal(t, 1, api.count("PublicPosts"))
}

func TestAddProduct_BuildsPayload(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)

	err := s.AddProduct(context.Background(), ProductDraft{Name: "Hạt Điều Rang", Category: NutsDriedFruit, Price: 120000, Stock: 5, Image: "img"})
	require.NoError(t, err)

	assert.Equal(t, "hạt-điều-rang", api.lastProduct.Slug)
	assert.Equal(t, "VND", api.lastProduct.Currency)
	assert.Equal(t, "Hộp", api.lastProduct.Unit)
	assert.Equal(t, []string{"img"}, api.lastProduct.Images)
	assert.NotNil(t, api.lastProduct.Tags)
	assert.Empty(t, api.lastProduct.Tags)

	products := s.Products()
	require.Len(t, products, 1)
	assert.Equal(t, NutsDriedFruit, products[0].Category)
}

func TestUpdateUserProfile(t *testing.T) {
	api := newFakeAPI()
	s, durable := setupTestStore(t, api)
	ctx := context.Background()

	assert.ErrorIs(t, s.UpdateUserProfile(ctx, "x", ""), ErrNotAuthenticated)

	loginAs(t, s, api, wireUser("u1", "lan@example.com", "Lan", models.RoleUser))
	updated := wireUser("u1", "lan@example.com", "Nguyen Thi Lan", models.RoleUser)
	updated.AvatarURL = "http://img/a.png"
	api.profile = &updated

	require.NoError(t, s.UpdateUserProfile(ctx, "Nguyen Thi Lan", "http://img/a.png"))

	id := s.Identity()
	assert.Equal(t, "Nguyen Thi Lan", id.Name)
	assert.Equal(t, "tok-u1", id.Token)
	raw, _ := durable.Get(storage.KeyUser)
	assert.True(t, strings.Contains(raw, "Nguyen Thi Lan"))
}

func TestDeleteUser_Refetches(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	api.users = []models.User{
		wireUser("u1", "a@example.com", "A", models.RoleUser),
		wireUser("u2", "b@example.com", "B", models.RoleUser),
	}
	loginAs(t, s, api, wireUser("admin", "admin@example.com", "Admin", models.RoleAdmin))
	require.Len(t, s.Users(), 2)

	require.NoError(t, s.DeleteUser(context.Background(), "u1"))

	users := s.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
}

func TestUploadImage(t *testing.T) {
	api := newFakeAPI()
	api.uploadURL = "http://localhost:8080/uploads/x.png"
	s, _ := setupTestStore(t, api)

	url, err := s.UploadImage(context.Background(), "x.png", strings.NewReader("png"))

	require.NoError(t, err)
	assert.Equal(t, api.uploadURL, url)
}

func TestStaleRefreshIsDropped(t *testing.T) {
	api := newFakeAPI()
	s, _ := setupTestStore(t, api)
	api.allOrders = []models.Order{{ID: "secret"}}
	loginAs(t, s, api, wireUser("admin", "admin@example.com", "Admin", models.RoleAdmin))

	api.beforeOrdersReturn = func() {
		api.beforeOrdersReturn = nil
		s.Logout()
	}
	s.FetchOrders(context.Background())

	assert.Empty(t, s.Orders())
}
