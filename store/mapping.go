package store

import (
	"strings"

	"cookiq/models"
)

// PlaceholderImage stands in for products without any image.
const PlaceholderImage = "https://via.placeholder.com/150"

const unknownAuthor = "Unknown"

func ParseProductCategory(id string) (ProductCategory, bool) {
	if models.IsProductCategory(id) {
		return ProductCategory(id), true
	}
	return CategoryUnknown, false
}

func ParseBlogCategory(id string) (BlogCategory, bool) {
	if models.IsBlogCategory(id) {
		return BlogCategory(id), true
	}
	return BlogCategoryUnknown, false
}

// DisplayName derives the name shown for a user: the trimmed full name, or
// the local part of the e-mail when the full name is blank.
func DisplayName(fullName, email string) string {
	if name := strings.TrimSpace(fullName); name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func UserFromWire(u models.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Name:      DisplayName(u.FullName, u.Email),
		Role:      u.Roles,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// UserToWire is the inverse of UserFromWire; the display name is dropped.
func UserToWire(u User) models.User {
	return models.User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Roles:     u.Role,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// ProductFromWire keeps only the first image. Unknown category identifiers
// become CategoryUnknown.
func ProductFromWire(p models.Product) Product {
	image := p.FirstImage()
	if image == "" {
		image = PlaceholderImage
	}
	category, _ := ParseProductCategory(p.CategoryID)
	return Product{
		ID:               p.ID,
		Name:             p.Name,
		Category:         category,
		Price:            p.Price,
		Stock:            p.StockQuantity,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		Image:            image,
	}
}

// ProductToWire builds the admin create/update payload.
func ProductToWire(d ProductDraft) models.ProductRequest {
	var images []string
	if d.Image != "" {
		images = []string{d.Image}
	}
	return models.ProductRequest{
		Name:             d.Name,
		Slug:             Slugify(d.Name),
		ShortDescription: d.ShortDescription,
		Description:      d.Description,
		Price:            d.Price,
		Currency:         "VND",
		CategoryID:       string(d.Category),
		Images:           images,
		StockQuantity:    d.Stock,
		Unit:             "Hộp",
		Tags:             []string{},
	}
}

func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func PostFromWire(b models.BlogPost) BlogPost {
	status := StatusPending
	if b.Approved {
		status = StatusApproved
	}
	author := b.AuthorName
	if author == "" {
		author = unknownAuthor
	}
	category, _ := ParseBlogCategory(b.Category)

	comments := make([]Comment, 0, len(b.Comments))
	for _, c := range b.Comments {
		comments = append(comments, CommentFromWire(c))
	}

	return BlogPost{
		ID:          b.ID,
		Title:       b.Title,
		Content:     b.Content,
		ContentHTML: b.ContentHTML,
		Category:    category,
		Image:       b.CoverImageURL,
		AuthorID:    b.AuthorID,
		AuthorName:  author,
		Status:      status,
		Comments:    comments,
		CreatedAt:   b.CreatedAt,
	}
}

func CommentFromWire(c models.Comment) Comment {
	return Comment{
		ID:         c.ID,
		AuthorID:   c.UserID,
		AuthorName: c.UserName,
		Avatar:     c.UserAvatar,
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
}

func OrderFromWire(o models.Order) Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	return Order{
		ID:            o.ID,
		CustomerName:  o.CustomerName,
		Phone:         o.Phone,
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
		Items:         items,
		Total:         o.TotalAmount,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
	}
}

// MergePosts appends the pending posts that are not already among approved.
func MergePosts(approved, pending []BlogPost) []BlogPost {
	seen := make(map[string]bool, len(approved))
	merged := make([]BlogPost, 0, len(approved)+len(pending))
	for _, p := range approved {
		seen[p.ID] = true
		merged = append(merged, p)
	}
	for _, p := range pending {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		merged = append(merged, p)
	}
	return merged
}
