package models

// Request and response bodies exchanged with the API.

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User
	Token string `json:"token"`
}

type UpdateProfileRequest struct {
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

type ProductRequest struct {
	Name             string   `json:"name" binding:"required"`
	Slug             string   `json:"slug"`
	ShortDescription string   `json:"shortDescription"`
	Description      string   `json:"description"`
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	CategoryID       string   `json:"categoryId"`
	Images           []string `json:"images"`
	StockQuantity    int      `json:"stockQuantity"`
	Unit             string   `json:"unit"`
	Tags             []string `json:"tags"`
}

// Page is a slice of a larger collection.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

type CreateBlogRequest struct {
	Title         string `json:"title" binding:"required"`
	Category      string `json:"category" binding:"required"`
	CoverImageURL string `json:"coverImageUrl"`
	Content       string `json:"content"`
	AuthorID      string `json:"authorId"`
}

type AddCommentRequest struct {
	UserID  string `json:"userId"`
	Content string `json:"content" binding:"required"`
}

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerName  string        `json:"customerName"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Items         []CartItem    `json:"items"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
