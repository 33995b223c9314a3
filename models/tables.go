package models

import "time"

type User struct {
	ID           string    `gorm:"primary_key;size:36" json:"id"`
	FullName     string    `gorm:"not null" json:"fullName"`
	Email        string    `gorm:"unique;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"` // never serialized
	Roles        Role      `gorm:"not null;default:'USER'" json:"roles"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
}

type Product struct {
	ID               string    `gorm:"primary_key;size:36" json:"id"`
	Name             string    `gorm:"not null" json:"name"`
	Slug             string    `gorm:"index" json:"slug"`
	ShortDescription string    `json:"shortDescription"`
	Description      string    `gorm:"type:text" json:"description"`
	Price            float64   `json:"price"`
	Currency         string    `json:"currency"`
	CategoryID       string    `gorm:"index" json:"categoryId"`
	Images           []string  `gorm:"serializer:json" json:"images"`
	StockQuantity    int       `json:"stockQuantity"`
	Unit             string    `json:"unit"`
	Tags             []string  `gorm:"serializer:json" json:"tags"`
	IsActive         bool      `gorm:"default:true;index" json:"isActive"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// FirstImage returns the primary image reference, or "" when there is none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type BlogPost struct {
	ID            string     `gorm:"primary_key;size:36" json:"id"`
	Title         string     `gorm:"not null" json:"title"`
	Category      string     `gorm:"index" json:"category"`
	CoverImageURL string     `json:"coverImageUrl"`
	Content       string     `gorm:"type:text" json:"content"`
	ContentHTML   string     `gorm:"-" json:"contentHtml,omitempty"` // rendered on the way out
	AuthorID      string     `gorm:"not null;index" json:"authorId"`
	AuthorName    string     `json:"authorName"`
	Approved      bool       `gorm:"default:false;index" json:"approved"`
	CreatedAt     time.Time  `gorm:"index" json:"createdAt"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	Comments      []Comment  `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
}

type Comment struct {
	ID         string    `gorm:"primary_key;size:36" json:"id"`
	PostID     string    `gorm:"not null;index" json:"-"`
	UserID     string    `gorm:"not null" json:"userId"`
	UserName   string    `json:"userName"`
	UserAvatar string    `json:"userAvatar,omitempty"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Order struct {
	ID            string        `gorm:"primary_key;size:36" json:"id"`
	UserID        string        `gorm:"not null;index" json:"userId"`
	CustomerName  string        `json:"customerName"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	TotalAmount   float64       `json:"totalAmount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Status        OrderStatus   `gorm:"index" json:"status"`
	Items         []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt     time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// OrderItem is a snapshot of the product at purchase time.
type OrderItem struct {
	ID          uint    `gorm:"primary_key;autoIncrement" json:"-"`
	OrderID     string  `gorm:"not null;index" json:"-"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Image       string  `json:"image"`
}
