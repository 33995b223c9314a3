package store

import (
	"time"

	"cookiq/models"
)

type ProductCategory string

const (
	FreshMilk       ProductCategory = models.CategoryFreshMilk
	Oats            ProductCategory = models.CategoryOats
	NutsDriedFruit  ProductCategory = models.CategoryNutsDriedFruit
	CategoryUnknown ProductCategory = "UNKNOWN"
)

type BlogCategory string

const (
	Nutrition           BlogCategory = models.BlogNutrition
	Cooking             BlogCategory = models.BlogCooking
	BlogCategoryUnknown BlogCategory = "UNKNOWN"
)

var blogCategoryLabels = map[BlogCategory]string{
	Nutrition: "Blog dinh dưỡng",
	Cooking:   "Blog nấu ăn",
}

func (c BlogCategory) Label() string {
	if label, ok := blogCategoryLabels[c]; ok {
		return label
	}
	return string(c)
}

type PostStatus string

const (
	StatusPending  PostStatus = "pending"
	StatusApproved PostStatus = "approved"
)

type User struct {
	ID        string
	Email     string
	FullName  string
	Name      string // display name
	Role      models.Role
	AvatarURL string
	CreatedAt time.Time
}

func (u User) IsAdmin() bool {
	return u.Role == models.RoleAdmin
}

// Identity is the authenticated user plus the bearer credential.
type Identity struct {
	User
	Token string
}

type Product struct {
	ID               string
	Name             string
	Category         ProductCategory
	Price            float64
	Stock            int
	ShortDescription string
	Description      string
	Image            string
}

type CartLine struct {
	Product  Product
	Quantity int
}

func (l CartLine) Subtotal() float64 {
	return l.Product.Price * float64(l.Quantity)
}

type Comment struct {
	ID         string
	AuthorID   string
	AuthorName string
	Avatar     string
	Content    string
	CreatedAt  time.Time
}

type BlogPost struct {
	ID          string
	Title       string
	Content     string
	ContentHTML string
	Category    BlogCategory
	Image       string
	AuthorID    string
	AuthorName  string
	Status      PostStatus
	Comments    []Comment
	CreatedAt   time.Time
}

type Order struct {
	ID            string
	CustomerName  string
	Phone         string
	Address       string
	PaymentMethod models.PaymentMethod
	Items         []models.OrderItem
	Total         float64
	Status        models.OrderStatus
	CreatedAt     time.Time
}

// OrderDetails is what checkout collects besides the cart.
type OrderDetails struct {
	Address       string
	Phone         string
	PaymentMethod models.PaymentMethod
}

// ProductDraft is the admin form for creating or editing a product.
type ProductDraft struct {
	ID               string
	Name             string
	Category         ProductCategory
	Price            float64
	Stock            int
	ShortDescription string
	Description      string
	Image            string
}

type BlogDraft struct {
	Title    string
	Category BlogCategory
	Image    string
	Content  string
}
