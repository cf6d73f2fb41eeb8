package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/config"
	"github.com/opscore/orderflow/internal/db"
	"github.com/opscore/orderflow/internal/models"
)

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.SeedNumbering(conn, config.DefaultNumbering()); err != nil {
		t.Fatalf("seed numbering: %v", err)
	}
	return conn
}

func TestAllocateSequential(t *testing.T) {
	conn := setupServiceTestDB(t)
	svc := NewNumberingService(conn)

	for i := 1; i <= 5; i++ {
		got, err := svc.Allocate(context.Background(), models.DocTypeQuote)
		if err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
		want := fmt.Sprintf("QT-%d", i)
		if got != want {
			t.Fatalf("allocation %d: got %s want %s", i, got, want)
		}
	}
	// Other types keep independent counters.
	got, err := svc.Allocate(context.Background(), models.DocTypeSalesOrder)
	if err != nil {
		t.Fatalf("allocate sales order: %v", err)
	}
	if got != "SO-1" {
		t.Fatalf("sales order allocation: got %s want SO-1", got)
	}
}

func TestAllocateUnknownType(t *testing.T) {
	conn := setupServiceTestDB(t)
	svc := NewNumberingService(conn)

	_, err := svc.Allocate(context.Background(), models.DocumentType("credit_note"))
	if !errors.Is(err, ErrSchemeNotFound) {
		t.Fatalf("expected ErrSchemeNotFound, got %v", err)
	}
}

func TestAllocateNeverReusesAfterDocumentDelete(t *testing.T) {
	conn := setupServiceTestDB(t)
	lc := NewLifecycleService(conn)
	ctx := context.Background()

	customer := models.Customer{Name: "Acme"}
	if err := conn.Create(&customer).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	q1, err := lc.SaveQuote(ctx, &models.Quote{CustomerID: customer.ID, Items: []models.QuoteItem{{ProductID: 1, Quantity: 1}}})
	if err != nil {
		t.Fatalf("save quote: %v", err)
	}
	if q1.QuoteNumber != "QT-1" {
		t.Fatalf("first quote number: got %s", q1.QuoteNumber)
	}
	if err := lc.DeleteQuote(ctx, q1.ID); err != nil {
		t.Fatalf("delete quote: %v", err)
	}
	q2, err := lc.SaveQuote(ctx, &models.Quote{CustomerID: customer.ID, Items: []models.QuoteItem{{ProductID: 1, Quantity: 1}}})
	if err != nil {
		t.Fatalf("save quote 2: %v", err)
	}
	if q2.QuoteNumber != "QT-2" {
		t.Fatalf("number reused after delete: got %s want QT-2", q2.QuoteNumber)
	}
}

func TestAllocateConcurrent(t *testing.T) {
	// File-backed db so the busy handler serializes concurrent writers.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000", filepath.Join(t.TempDir(), "alloc.db"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.SeedNumbering(conn, config.DefaultNumbering()); err != nil {
		t.Fatalf("seed numbering: %v", err)
	}
	svc := NewNumberingService(conn)

	const workers = 4
	const perWorker = 5
	var mu sync.Mutex
	var issued []string
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n, err := svc.Allocate(context.Background(), models.DocTypeDeliveryOrder)
				if err != nil {
					t.Errorf("allocate: %v", err)
					return
				}
				mu.Lock()
				issued = append(issued, n)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(issued) != workers*perWorker {
		t.Fatalf("issued %d numbers, want %d", len(issued), workers*perWorker)
	}
	sort.Strings(issued)
	seen := map[string]bool{}
	for _, n := range issued {
		if seen[n] {
			t.Fatalf("number issued twice: %s", n)
		}
		seen[n] = true
	}
	// Exactly DO-1..DO-N, no gaps.
	for i := 1; i <= workers*perWorker; i++ {
		if !seen[fmt.Sprintf("DO-%d", i)] {
			t.Fatalf("missing number DO-%d in %v", i, issued)
		}
	}
}
