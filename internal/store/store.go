// Package store is the process-local cache the UI layer reads from. It
// relays every mutation to the lifecycle service and patches its collections
// from the result; it never applies business rules itself. On failure the
// cached collections are left exactly as they were, so the UI keeps showing
// the last known-good snapshot alongside the recorded error.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/opscore/orderflow/internal/models"
	"github.com/opscore/orderflow/internal/repository"
	"github.com/opscore/orderflow/internal/services"
)

type Store struct {
	svc *services.LifecycleService

	// mu guards the fields below. Operations themselves are not serialized
	// against each other; only cache patching is.
	mu             sync.Mutex
	quotes         []models.Quote
	salesOrders    []models.SalesOrder
	deliveryOrders []models.DeliveryOrder
	purchaseOrders []models.PurchaseOrder
	loading        bool
	err            string
}

func New(svc *services.LifecycleService) *Store {
	return &Store{svc: svc}
}

// --- bookkeeping ---

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()
}

func (s *Store) fail(err error) error {
	s.mu.Lock()
	s.err = humanize(err)
	s.loading = false
	s.mu.Unlock()
	return err
}

func (s *Store) done(patch func()) {
	s.mu.Lock()
	if patch != nil {
		patch()
	}
	s.loading = false
	s.mu.Unlock()
}

// humanize turns a lifecycle/repository error into a message fit for display.
func humanize(err error) string {
	var te *services.TransitionError
	var se *services.SourceStateError
	var od *services.OverDeliveryError
	var re *repository.Error
	switch {
	case errors.As(err, &od):
		return fmt.Sprintf("Cannot deliver %g: only %g remaining on line %d.", od.Requested, od.Remaining, od.SalesOrderItemID)
	case errors.As(err, &te):
		return fmt.Sprintf("Status change from %s to %s is not allowed.", te.From, te.To)
	case errors.As(err, &se):
		return fmt.Sprintf("The %s's current status (%s) does not allow this.", se.Document, se.Status)
	case errors.Is(err, repository.ErrNotFound):
		return "The requested document no longer exists."
	case errors.Is(err, services.ErrSchemeNotFound):
		return "Document numbering is not provisioned; contact an administrator."
	case errors.As(err, &re):
		return "A storage error occurred; please try again."
	default:
		return err.Error()
	}
}

// --- accessors (copies, so callers cannot mutate the cache) ---

func (s *Store) Quotes() []models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Quote(nil), s.quotes...)
}

func (s *Store) SalesOrders() []models.SalesOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SalesOrder(nil), s.salesOrders...)
}

func (s *Store) DeliveryOrders() []models.DeliveryOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DeliveryOrder(nil), s.deliveryOrders...)
}

func (s *Store) PurchaseOrders() []models.PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PurchaseOrder(nil), s.purchaseOrders...)
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// --- fetches ---

func (s *Store) FetchQuotes(ctx context.Context) error {
	s.begin()
	quotes, err := s.svc.ListQuotes(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() { s.quotes = quotes })
	return nil
}

func (s *Store) FetchSalesOrders(ctx context.Context) error {
	s.begin()
	orders, err := s.svc.ListSalesOrders(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() { s.salesOrders = orders })
	return nil
}

func (s *Store) FetchDeliveryOrders(ctx context.Context) error {
	s.begin()
	deliveries, err := s.svc.ListDeliveryOrders(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() { s.deliveryOrders = deliveries })
	return nil
}

func (s *Store) FetchPurchaseOrders(ctx context.Context) error {
	s.begin()
	purchases, err := s.svc.ListPurchaseOrders(ctx)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() { s.purchaseOrders = purchases })
	return nil
}

// --- mutations ---

// SaveQuote creates or updates a quote. An existing identity is replaced in
// place, preserving the order of all other entries; a new one is appended.
func (s *Store) SaveQuote(ctx context.Context, q *models.Quote) error {
	s.begin()
	saved, err := s.svc.SaveQuote(ctx, q)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() { s.quotes = upsert(s.quotes, quoteID, *saved) })
	return nil
}

func (s *Store) UpdateQuoteStatus(ctx context.Context, id uint, next models.QuoteStatus) error {
	s.begin()
	updated, err := s.svc.UpdateQuoteStatus(ctx, id, next)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() { s.quotes = upsert(s.quotes, quoteID, *updated) })
	return nil
}

func (s *Store) DeleteQuote(ctx context.Context, id uint) error {
	s.begin()
	if err := s.svc.DeleteQuote(ctx, id); err != nil {
		return s.fail(err)
	}
	s.done(func() { s.quotes = remove(s.quotes, quoteID, id) })
	return nil
}

func (s *Store) CreateSalesOrderFromQuote(ctx context.Context, sourceQuoteID uint, clientPONumber string) error {
	s.begin()
	order, quote, err := s.svc.CreateSalesOrderFromQuote(ctx, sourceQuoteID, clientPONumber)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() {
		s.salesOrders = upsert(s.salesOrders, orderID, *order)
		s.quotes = upsert(s.quotes, quoteID, *quote)
	})
	return nil
}

func (s *Store) DeleteSalesOrder(ctx context.Context, id uint) error {
	s.begin()
	if err := s.svc.DeleteSalesOrder(ctx, id); err != nil {
		return s.fail(err)
	}
	s.done(func() {
		s.salesOrders = remove(s.salesOrders, orderID, id)
		kept := s.deliveryOrders[:0:0]
		for _, d := range s.deliveryOrders {
			if d.SalesOrderID != id {
				kept = append(kept, d)
			}
		}
		s.deliveryOrders = kept
	})
	return nil
}

func (s *Store) CreateDeliveryOrder(ctx context.Context, salesOrderID uint, req services.DeliveryRequest) error {
	s.begin()
	delivery, order, err := s.svc.CreateDeliveryOrder(ctx, salesOrderID, req)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() {
		s.deliveryOrders = upsert(s.deliveryOrders, deliveryID, *delivery)
		s.salesOrders = upsert(s.salesOrders, orderID, *order)
	})
	return nil
}

func (s *Store) DeleteDeliveryOrder(ctx context.Context, id uint) error {
	s.begin()
	order, err := s.svc.DeleteDeliveryOrder(ctx, id)
	if err != nil {
		return s.fail(err)
	}
	s.done(func() {
		s.deliveryOrders = remove(s.deliveryOrders, deliveryID, id)
		s.salesOrders = upsert(s.salesOrders, orderID, *order)
	})
	return nil
}

// --- patch helpers ---

func quoteID(q models.Quote) uint            { return q.ID }
func orderID(o models.SalesOrder) uint       { return o.ID }
func deliveryID(d models.DeliveryOrder) uint { return d.ID }

func upsert[T any](list []T, id func(T) uint, doc T) []T {
	for i := range list {
		if id(list[i]) == id(doc) {
			list[i] = doc
			return list
		}
	}
	return append(list, doc)
}

func remove[T any](list []T, id func(T) uint, target uint) []T {
	for i := range list {
		if id(list[i]) == target {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
