package models

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentBank PaymentMethod = "BANK"
	PaymentQR   PaymentMethod = "QR"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentBank, PaymentQR:
		return true
	}
	return false
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipping  OrderStatus = "SHIPPING"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusDelivered},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipping, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from s to next.
// Staying in the same status is always allowed.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Product category identifiers as stored by the server.
const (
	CategoryFreshMilk      = "Sữa tươi"
	CategoryOats           = "Yến mạch"
	CategoryNutsDriedFruit = "Hạt và quả khô"
)

var ProductCategories = []string{CategoryFreshMilk, CategoryOats, CategoryNutsDriedFruit}

// Blog category identifiers.
const (
	BlogNutrition = "DINH_DUONG"
	BlogCooking   = "NAU_AN"
)

var BlogCategories = []string{BlogNutrition, BlogCooking}

func IsProductCategory(id string) bool {
	return contains(ProductCategories, id)
}

func IsBlogCategory(id string) bool {
	return contains(BlogCategories, id)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
