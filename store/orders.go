package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cookiq/models"
)

// PlaceOrder submits the cart. Preconditions are checked before any remote
// call. On failure the cart and the order list are left as they were. On
// success only the ordered quantities leave the cart, and nothing is written
// when the session changed while the order was in flight.
func (s *Store) PlaceOrder(ctx context.Context, details OrderDetails) (Order, error) {
	s.mu.RLock()
	identity := s.identity
	epoch := s.epoch
	lines := append([]CartLine(nil), s.cart...)
	s.mu.RUnlock()

	if identity == nil {
		return Order{}, ErrNotAuthenticated
	}
	if len(lines) == 0 {
		return Order{}, ErrEmptyCart
	}
	if !details.PaymentMethod.Valid() {
		return Order{}, ErrInvalidPaymentMethod
	}

	name := identity.FullName
	if name == "" {
		name = identity.Name
	}
	req := models.CreateOrderRequest{
		CustomerName:  name,
		Phone:         details.Phone,
		Address:       details.Address,
		PaymentMethod: details.PaymentMethod,
		Items:         make([]models.CartItem, 0, len(lines)),
	}
	for _, line := range lines {
		req.Items = append(req.Items, models.CartItem{ProductID: line.Product.ID, Quantity: line.Quantity})
	}

	created, err := s.api.CreateOrder(ctx, req)
	if err != nil {
		s.log.Error("place order failed", zap.Int("lines", len(lines)), zap.Error(err))
		return Order{}, fmt.Errorf("place order: %w", err)
	}
	order := OrderFromWire(*created)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.log.Warn("session changed while placing order", zap.String("id", order.ID))
		return order, nil
	}
	s.cart = withoutOrdered(s.cart, lines)
	s.orderSeq++
	s.localOrders[order.ID] = s.orderSeq
	s.orders = append([]Order{order}, s.orders...)

	s.log.Info("order placed", zap.String("id", order.ID), zap.Float64("total", order.Total))
	return order, nil
}

// FetchOrders loads all orders for an admin and the caller's own orders
// otherwise. Orders placed locally after the fetch started are kept at the
// front when the response does not have them yet. A response that arrives
// after one from a later fetch is dropped.
func (s *Store) FetchOrders(ctx context.Context) {
	s.mu.Lock()
	identity := s.identity
	epoch := s.epoch
	seq := s.orderSeq
	s.ordersGen++
	gen := s.ordersGen
	s.mu.Unlock()

	if identity == nil {
		return
	}

	var (
		list []models.Order
		err  error
	)
	if identity.IsAdmin() {
		list, err = s.api.AllOrders(ctx)
	} else {
		list, err = s.api.MyOrders(ctx)
	}
	if err != nil {
		s.log.Error("fetch orders failed", zap.Error(err))
		return
	}

	fetched := make([]Order, 0, len(list))
	present := make(map[string]bool, len(list))
	for _, o := range list {
		fetched = append(fetched, OrderFromWire(o))
		present[o.ID] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || gen < s.ordersApplied {
		return
	}
	s.ordersApplied = gen

	var newer []Order
	for _, o := range s.orders {
		placed, local := s.localOrders[o.ID]
		if local && placed > seq && !present[o.ID] {
			newer = append(newer, o)
		}
	}
	for id, placed := range s.localOrders {
		if present[id] || placed <= seq {
			delete(s.localOrders, id)
		}
	}
	s.orders = append(newer, fetched...)
}

// UpdateOrderStatus asks the server for the transition and reloads the list.
// The local copy is not changed ahead of the server.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if err := s.api.UpdateOrderStatus(ctx, id, status); err != nil {
		s.log.Error("update order status failed", zap.String("id", id), zap.String("status", string(status)), zap.Error(err))
		return fmt.Errorf("update order status: %w", err)
	}
	s.FetchOrders(ctx)
	return nil
}
