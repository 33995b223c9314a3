package store

import (
	"github.com/spf13/cast"

	"cookiq/models"
)

const (
	DefaultFeatured = 8
	DefaultLatest   = 3
)

// VisibleBlogs is what the current identity may see: approved posts, plus
// pending ones for an admin.
func (s *Store) VisibleBlogs() []BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	admin := s.identity != nil && s.identity.IsAdmin()
	var out []BlogPost
	for _, p := range s.blogs {
		if admin || p.Status == StatusApproved {
			out = append(out, copyPost(p))
		}
	}
	return out
}

// PendingBlogs is the moderation queue. It is empty unless an admin is
// signed in.
func (s *Store) PendingBlogs() []BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil || !s.identity.IsAdmin() {
		return nil
	}
	var out []BlogPost
	for _, p := range s.blogs {
		if p.Status == StatusPending {
			out = append(out, copyPost(p))
		}
	}
	return out
}

// FeaturedProducts is the first n products of the catalog; n <= 0 means
// DefaultFeatured.
func (s *Store) FeaturedProducts(n int) []Product {
	if n <= 0 {
		n = DefaultFeatured
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.products) {
		n = len(s.products)
	}
	return append([]Product(nil), s.products[:n]...)
}

// LatestBlogs is the first n approved posts; n <= 0 means DefaultLatest.
func (s *Store) LatestBlogs(n int) []BlogPost {
	if n <= 0 {
		n = DefaultLatest
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BlogPost
	for _, p := range s.blogs {
		if len(out) == n {
			break
		}
		if p.Status == StatusApproved {
			out = append(out, copyPost(p))
		}
	}
	return out
}

// ProductsByCategory filters the catalog. An empty category matches all.
func (s *Store) ProductsByCategory(c ProductCategory) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Product
	for _, p := range s.products {
		if c == "" || p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// BlogsByCategory lists approved posts of category c. An empty category
// matches all.
func (s *Store) BlogsByCategory(c BlogCategory) []BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BlogPost
	for _, p := range s.blogs {
		if p.Status != StatusApproved {
			continue
		}
		if c == "" || p.Category == c {
			out = append(out, copyPost(p))
		}
	}
	return out
}

// Paginate returns page (1-based) of items. A page outside the range, or a
// non-positive size, yields an empty slice.
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 || size <= 0 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PageCount is the number of pages Paginate produces for n items.
func PageCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

const qrEndpoint = "https://api.qrserver.com/v1/create-qr-code/?size=150x150&data="

var bankTransferDetails = []string{
	"Vietcombank - CN Ha Noi",
	"STK: 1234 5678 9999",
	"Chủ TK: COOKIQ STORE",
	"Nội dung: SDT MUA HANG",
}

// PaymentInfo is what checkout shows for a payment method.
type PaymentInfo struct {
	Method models.PaymentMethod
	Label  string
	// Lines are the bank details for a transfer.
	Lines []string
	// QRImageURL is set for QR payments.
	QRImageURL string
}

func PaymentInstructions(method models.PaymentMethod, total float64) PaymentInfo {
	info := PaymentInfo{Method: method}
	switch method {
	case models.PaymentCOD:
		info.Label = "Thanh toán khi nhận hàng (COD)"
	case models.PaymentBank:
		info.Label = "Chuyển khoản ngân hàng"
		info.Lines = append([]string(nil), bankTransferDetails...)
	case models.PaymentQR:
		info.Label = "Quét mã QR (Trực tiếp)"
		info.QRImageURL = qrEndpoint + "PAYMENT_COOKIQ_" + cast.ToString(total)
	}
	return info
}
