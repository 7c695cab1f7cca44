package memory

import (
	"context"
	"sync"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/uow"
)

// state holds the transactional tables. Stored values are never mutated in place:
// writers replace entries with fresh clones, so copying the maps is enough to fork it.
type state struct {
	products     map[string]*product.Product
	orders       map[string]*order.Order
	orderNumbers map[string]string // number -> order id
}

func newState() *state {
	return &state{
		products:     make(map[string]*product.Product),
		orders:       make(map[string]*order.Order),
		orderNumbers: make(map[string]string),
	}
}

func (s *state) fork() *state {
	c := &state{
		products:     make(map[string]*product.Product, len(s.products)),
		orders:       make(map[string]*order.Order, len(s.orders)),
		orderNumbers: make(map[string]string, len(s.orderNumbers)),
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderNumbers {
		c.orderNumbers[k] = v
	}
	return c
}

// Store keeps products and orders in memory and implements uow.Transactor.
// A unit of work holds the store-wide lock for its whole duration; calling
// WithinTx again from inside fn deadlocks.
type Store struct {
	mu sync.RWMutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

var _ uow.Transactor = (*Store)(nil)

// scope resolves which state a repository works on. Inside a unit of work the store
// lock is already held and tx is the forked state.
type scope struct {
	store *Store
	tx    *state
}

func (s scope) read(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return fn(s.store.st)
}

func (s scope) write(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	return fn(s.store.st)
}

func (s *Store) Products() product.Repository {
	return &ProductRepository{scope: scope{store: s}}
}

func (s *Store) Orders() order.Repository {
	return &OrderRepository{scope: scope{store: s}}
}

type tx struct {
	scope scope
}

func (t *tx) Orders() order.Repository     { return &OrderRepository{scope: t.scope} }
func (t *tx) Products() product.Repository { return &ProductRepository{scope: t.scope} }
func (t *tx) Inventory() inventory.Ledger  { return &ledger{scope: t.scope} }

// WithinTx runs fn against a fork of the current state and swaps it in only when fn succeeds.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx uow.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.fork()
	if err := fn(ctx, &tx{scope: scope{store: s, tx: work}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}
