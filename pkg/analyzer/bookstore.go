package analyzer

import (
	"strings"
	"sync"

	"aetherquant/pkg/market"
)

// BookStore retains the most recent order book observed per symbol. It is
// the only mutable state shared across analyze cycles and exists solely to
// feed the OFI delta; it grows one entry per symbol and never expires them.
type BookStore struct {
	mu    sync.Mutex
	books map[string]market.OrderBook
}

// NewBookStore returns an empty store.
func NewBookStore() *BookStore {
	return &BookStore{books: make(map[string]market.OrderBook)}
}

// Swap stores current as the latest book for symbol and returns the book it
// replaced. ok is false on the first observation of a symbol. The store is
// updated unconditionally, whether or not the caller can use the previous
// book.
func (s *BookStore) Swap(symbol string, current market.OrderBook) (previous market.OrderBook, ok bool) {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	s.mu.Lock()
	defer s.mu.Unlock()
	previous, ok = s.books[key]
	s.books[key] = current
	return previous, ok
}

// Len reports the number of tracked symbols.
func (s *BookStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.books)
}
