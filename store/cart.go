package store

// AddToCart bumps the quantity of an existing line or appends a new one.
// Stock is not checked here; the server does that at checkout.
func (s *Store) AddToCart(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cart {
		if s.cart[i].Product.ID == p.ID {
			s.cart[i].Quantity++
			return
		}
	}
	s.cart = append(s.cart, CartLine{Product: p, Quantity: 1})
}

// RemoveFromCart drops the whole line for productID.
func (s *Store) RemoveFromCart(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.cart[:0:0]
	for _, line := range s.cart {
		if line.Product.ID != productID {
			kept = append(kept, line)
		}
	}
	s.cart = kept
}

func (s *Store) ClearCart() {
	s.mu.Lock()
	s.cart = nil
	s.mu.Unlock()
}

// CartCount is the number of units in the cart.
func (s *Store) CartCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, line := range s.cart {
		n += line.Quantity
	}
	return n
}

func (s *Store) CartTotal() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total float64
	for _, line := range s.cart {
		total += line.Subtotal()
	}
	return total
}

// withoutOrdered takes the ordered quantities out of cart. Lines added or
// bumped after the order snapshot keep the difference.
func withoutOrdered(cart, ordered []CartLine) []CartLine {
	taken := make(map[string]int, len(ordered))
	for _, line := range ordered {
		taken[line.Product.ID] += line.Quantity
	}
	var kept []CartLine
	for _, line := range cart {
		line.Quantity -= taken[line.Product.ID]
		if line.Quantity > 0 {
			kept = append(kept, line)
		}
	}
	return kept
}
