// Package store holds the storefront's session and collections.
//
// The Store is the only owner of the identity and of the catalog, blog,
// cart, order and user collections. Remote calls are made without holding
// the lock; their results replace the affected collection wholesale when
// they complete. Accessors return copies.
package store

import (
	"context"
	"io"
	"sync"

	"github.com/itsneelabh/gomind/core"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cookiq/models"
	"cookiq/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// CatalogPageSize is the size of the single catalog page the store loads.
const CatalogPageSize = 100

// API is the remote service as seen by the store.
type API interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, fullName, email, password string) error
	Users(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, fullName, avatarURL string) (*models.User, error)

	Products(ctx context.Context, page, size int) (*models.Page[models.Product], error)
	CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req models.ProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	PublicPosts(ctx context.Context) ([]models.BlogPost, error)
	PendingPosts(ctx context.Context) ([]models.BlogPost, error)
	CreatePost(ctx context.Context, req models.CreateBlogRequest) (*models.BlogPost, error)
	ApprovePost(ctx context.Context, id string) error
	RejectPost(ctx context.Context, id string) error
	DeleteApprovedPost(ctx context.Context, id string) error
	AddComment(ctx context.Context, postID, userID, content string) (*models.BlogPost, error)

	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error)
	MyOrders(ctx context.Context) ([]models.Order, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error

	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Durable is the key-value storage that survives restarts.
type Durable interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
}

type Store struct {
	api      API
	durable  Durable
	log      *zap.Logger
	pageSize int
	writer   core.AIClient

	mu       sync.RWMutex
	identity *Identity
	// epoch changes with the identity; refreshes started under an older
	// epoch drop their results.
	epoch    uint64
	products []Product
	blogs    []BlogPost
	cart     []CartLine
	orders   []Order
	users    []User

	// orderSeq numbers local order prepends; localOrders maps an order id
	// to the sequence number it was prepended with.
	orderSeq    uint64
	localOrders map[string]uint64
	// ordersGen numbers order fetches; ordersApplied is the newest one
	// whose result is in orders.
	ordersGen     uint64
	ordersApplied uint64
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func New(api API, durable Durable, opts ...Option) *Store {
	s := &Store{
		api:         api,
		durable:     durable,
		log:         zap.L(),
		pageSize:    CatalogPageSize,
		localOrders: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init restores the session from durable storage, loads the first catalog
// page and runs the identity reaction. It is called once at start.
func (s *Store) Init(ctx context.Context) {
	if id := s.restore(); id != nil {
		s.mu.Lock()
		s.identity = id
		s.epoch++
		s.mu.Unlock()
		s.log.Info("session restored", zap.String("user", id.Email))
	}
	s.RefreshProducts(ctx)
	s.onIdentityChange(ctx)
}

// restore rebuilds the identity from storage without checking the token.
func (s *Store) restore() *Identity {
	token, ok := s.durable.Get(storage.KeyToken)
	if !ok || token == "" {
		return nil
	}
	raw, ok := s.durable.Get(storage.KeyUser)
	if !ok || raw == "" {
		return nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		s.log.Warn("stored user record is malformed", zap.Error(err))
		return nil
	}
	return &Identity{User: UserFromWire(u), Token: token}
}

// onIdentityChange reloads what depends on who is signed in.
func (s *Store) onIdentityChange(ctx context.Context) {
	admin := s.isAdmin()

	var g errgroup.Group
	g.Go(func() error {
		s.RefreshBlogs(ctx)
		return nil
	})
	if admin {
		g.Go(func() error {
			s.FetchUsers(ctx)
			return nil
		})
		g.Go(func() error {
			s.FetchOrders(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Store) isAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil && s.identity.IsAdmin()
}

func (s *Store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Identity returns a copy of the signed-in identity, or nil.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Token returns the bearer credential, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return ""
	}
	return s.identity.Token
}

func (s *Store) Products() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Product(nil), s.products...)
}

// Product looks a product up in the loaded catalog.
func (s *Store) Product(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Blogs returns the raw blog collection, pending posts included when they
// were loaded for an admin.
func (s *Store) Blogs() []BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPosts(s.blogs)
}

func (s *Store) Post(id string) (BlogPost, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.blogs {
		if p.ID == id {
			return copyPost(p), true
		}
	}
	return BlogPost{}, false
}

func (s *Store) Cart() []CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]CartLine(nil), s.cart...)
}

func (s *Store) Orders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, len(s.orders))
	for i, o := range s.orders {
		o.Items = append([]models.OrderItem(nil), o.Items...)
		out[i] = o
	}
	return out
}

func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]User(nil), s.users...)
}

func copyPost(p BlogPost) BlogPost {
	p.Comments = append([]Comment(nil), p.Comments...)
	return p
}

func copyPosts(posts []BlogPost) []BlogPost {
	out := make([]BlogPost, len(posts))
	for i, p := range posts {
		out[i] = copyPost(p)
	}
	return out
}
