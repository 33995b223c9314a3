package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cookiq/models"
	"cookiq/storage"
)

var errRemote = errors.New("remote failure")

// fakeAPI is an in-memory API. Calls are counted by name.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	loginResp *models.LoginResponse
	loginErr  error

	products    []models.Product
	productsErr error
	lastProduct models.ProductRequest

	public     []models.BlogPost
	pending    []models.BlogPost
	blogsErr   error
	lastPost   models.CreateBlogRequest
	commented  *models.BlogPost
	commentErr error

	createdOrder *models.Order
	orderErr     error
	// beforeOrderCreated runs inside CreateOrder before it returns.
	beforeOrderCreated func()
	lastOrder    models.CreateOrderRequest
	myOrders     []models.Order
	allOrders    []models.Order
	// beforeOrdersReturn runs inside MyOrders/AllOrders after the response
	// has been taken.
	beforeOrdersReturn func()

	users   []models.User
	profile *models.User

	uploadURL string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int)}
}

func (f *fakeAPI) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*models.LoginResponse, error) {
	f.hit("Login")
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.loginResp, nil
}

func (f *fakeAPI) Register(_ context.Context, fullName, email, password string) error {
	f.hit("Register")
	if email == "" {
		return errRemote
	}
	return nil
}

func (f *fakeAPI) Users(context.Context) ([]models.User, error) {
	f.hit("Users")
	return f.users, nil
}

func (f *fakeAPI) DeleteUser(_ context.Context, id string) error {
	f.hit("DeleteUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.users[:0:0]
	for _, u := range f.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	f.users = kept
	return nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, fullName, avatarURL string) (*models.User, error) {
	f.hit("UpdateProfile")
	if f.profile == nil {
		return nil, errRemote
	}
	return f.profile, nil
}

func (f *fakeAPI) Products(context.Context, int, int) (*models.Page[models.Product], error) {
	f.hit("Products")
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return &models.Page[models.Product]{Content: f.products, TotalElements: int64(len(f.products))}, nil
}

func (f *fakeAPI) CreateProduct(_ context.Context, req models.ProductRequest) (*models.Product, error) {
	f.hit("CreateProduct")
	f.lastProduct = req
	p := models.Product{ID: "new", Name: req.Name, CategoryID: req.CategoryID, Price: req.Price, Images: req.Images}
	f.products = append(f.products, p)
	return &p, nil
}

func (f *fakeAPI) UpdateProduct(_ context.Context, id string, req models.ProductRequest) (*models.Product, error) {
	f.hit("UpdateProduct")
	f.lastProduct = req
	for i := range f.products {
		if f.products[i].ID == id {
			f.products[i].Name = req.Name
			f.products[i].Price = req.Price
			return &f.products[i], nil
		}
	}
	return nil, errRemote
}

func (f *fakeAPI) DeleteProduct(_ context.Context, id string) error {
	f.hit("DeleteProduct")
	return nil
}

func (f *fakeAPI) PublicPosts(context.Context) ([]models.BlogPost, error) {
	f.hit("PublicPosts")
	if f.blogsErr != nil {
		return nil, f.blogsErr
	}
	return f.public, nil
}

func (f *fakeAPI) PendingPosts(context.Context) ([]models.BlogPost, error) {
	f.hit("PendingPosts")
	if f.blogsErr != nil {
		return nil, f.blogsErr
	}
	return f.pending, nil
}

func (f *fakeAPI) CreatePost(_ context.Context, req models.CreateBlogRequest) (*models.BlogPost, error) {
	f.hit("CreatePost")
	f.lastPost = req
	post := models.BlogPost{ID: "created", Title: req.Title, Category: req.Category, AuthorID: req.AuthorID}
	f.pending = append(f.pending, post)
	return &post, nil
}

func (f *fakeAPI) ApprovePost(_ context.Context, id string) error {
	f.hit("ApprovePost")
	return nil
}

func (f *fakeAPI) RejectPost(_ context.Context, id string) error {
	f.hit("RejectPost")
	return nil
}

func (f *fakeAPI) DeleteApprovedPost(_ context.Context, id string) error {
	f.hit("DeleteApprovedPost")
	return nil
}

func (f *fakeAPI) AddComment(_ context.Context, postID, userID, content string) (*models.BlogPost, error) {
	f.hit("AddComment")
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return f.commented, nil
}

func (f *fakeAPI) CreateOrder(_ context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	f.hit("CreateOrder")
	f.lastOrder = req
	if f.beforeOrderCreated != nil {
		f.beforeOrderCreated()
	}
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.createdOrder, nil
}

func (f *fakeAPI) MyOrders(context.Context) ([]models.Order, error) {
	f.hit("MyOrders")
	list := f.myOrders
	if f.beforeOrdersReturn != nil {
		f.beforeOrdersReturn()
	}
	return list, nil
}

func (f *fakeAPI) AllOrders(context.Context) ([]models.Order, error) {
	f.hit("AllOrders")
	list := f.allOrders
	if f.beforeOrdersReturn != nil {
		f.beforeOrdersReturn()
	}
	return list, nil
}

func (f *fakeAPI) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) error {
	f.hit("UpdateOrderStatus")
	for i := range f.allOrders {
		if f.allOrders[i].ID == id {
			f.allOrders[i].Status = status
		}
	}
	return nil
}

func (f *fakeAPI) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	f.hit("Upload")
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	return f.uploadURL, nil
}

// brokenDurable fails every write.
type brokenDurable struct {
	*storage.Storage
}

func (brokenDurable) Set(string, string) error {
	return errors.New("disk full")
}

func setupTestStorage(t *testing.T) *storage.Storage {
	st, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func setupTestStore(t *testing.T, api *fakeAPI) (*Store, *storage.Storage) {
	durable := setupTestStorage(t)
	return New(api, durable, WithLogger(zap.NewNop())), durable
}

func wireUser(id, email, fullName string, role models.Role) models.User {
	return models.User{ID: id, Email: email, FullName: fullName, Roles: role}
}

func wirePost(id string, approved bool) models.BlogPost {
	return models.BlogPost{
		ID:         id,
		Title:      "Post " + id,
		Category:   models.BlogNutrition,
		AuthorID:   "u1",
		AuthorName: "Lan",
		Approved:   approved,
	}
}
