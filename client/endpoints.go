package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"cookiq/models"
)

func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.doPublic(ctx, "login", http.MethodPost, "/auth/login",
		models.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, fullName, email, password string) error {
	return c.doPublic(ctx, "register", http.MethodPost, "/auth/register",
		models.RegisterRequest{FullName: fullName, Email: email, Password: password}, nil)
}

func (c *Client) User(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, "user", http.MethodGet, "/auth/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, "users", http.MethodGet, "/auth/all", nil, nil, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, "delete user", http.MethodDelete, "/auth/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, fullName, avatarURL string) (*models.User, error) {
	var out models.User
	err := c.do(ctx, "update profile", http.MethodPut, "/auth/profile/update", nil,
		models.UpdateProfileRequest{FullName: fullName, AvatarURL: avatarURL}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func pageQuery(page, size int) url.Values {
	return url.Values{
		"page": {strconv.Itoa(page)},
		"size": {strconv.Itoa(size)},
	}
}

func (c *Client) Products(ctx context.Context, page, size int) (*models.Page[models.Product], error) {
	var out models.Page[models.Product]
	if err := c.do(ctx, "products", http.MethodGet, "/products", pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProductsByCategory(ctx context.Context, category string, page, size int) (*models.Page[models.Product], error) {
	var out models.Page[models.Product]
	path := "/products/category/" + url.PathEscape(category)
	if err := c.do(ctx, "products by category", http.MethodGet, path, pageQuery(page, size), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Product(ctx context.Context, id string) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, "product", http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, req models.ProductRequest) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, "create product", http.MethodPost, "/products/admin", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, req models.ProductRequest) (*models.Product, error) {
	var out models.Product
	if err := c.do(ctx, "update product", http.MethodPut, "/products/admin/"+url.PathEscape(id), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	var out models.Product
	query := url.Values{"delta": {strconv.Itoa(delta)}}
	if err := c.do(ctx, "adjust stock", http.MethodPatch, "/products/admin/"+url.PathEscape(id)+"/stock", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, "delete product", http.MethodDelete, "/products/admin/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) PublicPosts(ctx context.Context) ([]models.BlogPost, error) {
	var out []models.BlogPost
	err := c.do(ctx, "public posts", http.MethodGet, "/blog/public", nil, nil, &out)
	return out, err
}

func (c *Client) PublicPost(ctx context.Context, id string) (*models.BlogPost, error) {
	var out models.BlogPost
	if err := c.do(ctx, "public post", http.MethodGet, "/blog/public/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApprovedPosts(ctx context.Context) ([]models.BlogPost, error) {
	var out []models.BlogPost
	err := c.do(ctx, "approved posts", http.MethodGet, "/blog/approved", nil, nil, &out)
	return out, err
}

func (c *Client) PendingPosts(ctx context.Context) ([]models.BlogPost, error) {
	var out []models.BlogPost
	err := c.do(ctx, "pending posts", http.MethodGet, "/blog/pending", nil, nil, &out)
	return out, err
}

func (c *Client) CreatePost(ctx context.Context, req models.CreateBlogRequest) (*models.BlogPost, error) {
	var out models.BlogPost
	if err := c.do(ctx, "create post", http.MethodPost, "/blog/create", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApprovePost(ctx context.Context, id string) error {
	return c.do(ctx, "approve post", http.MethodPost, "/blog/approve/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) RejectPost(ctx context.Context, id string) error {
	return c.do(ctx, "reject post", http.MethodDelete, "/blog/reject/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) DeleteApprovedPost(ctx context.Context, id string) error {
	return c.do(ctx, "delete approved post", http.MethodDelete, "/blog/delete-approved/"+url.PathEscape(id), nil, nil, nil)
}

// AddComment returns the whole post including the new comment.
func (c *Client) AddComment(ctx context.Context, postID, userID, content string) (*models.BlogPost, error) {
	var out models.BlogPost
	err := c.do(ctx, "add comment", http.MethodPost, "/blog/comment/"+url.PathEscape(postID), nil,
		models.AddCommentRequest{UserID: userID, Content: content}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.Order, error) {
	var out models.Order
	if err := c.do(ctx, "create order", http.MethodPost, "/orders/create", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.do(ctx, "my orders", http.MethodGet, "/orders/my-orders", nil, nil, &out)
	return out, err
}

func (c *Client) AllOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.do(ctx, "all orders", http.MethodGet, "/orders/admin/all", nil, nil, &out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	query := url.Values{"status": {string(status)}}
	return c.do(ctx, "update order status", http.MethodPut, "/orders/admin/"+url.PathEscape(id)+"/status", query, nil, nil)
}

// Upload sends r as the multipart field "file" and returns the stored URL.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", errors.Wrap(err, "upload")
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", errors.Wrap(err, "upload: read file")
	}
	if err := form.Close(); err != nil {
		return "", errors.Wrap(err, "upload")
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/files/upload", nil, &buf, true)
	if err != nil {
		return "", errors.Wrap(err, "upload")
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var out models.UploadResponse
	if err := c.send("upload", req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
