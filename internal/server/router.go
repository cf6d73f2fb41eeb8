package server

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/opscore/orderflow/internal/auth"
	"github.com/opscore/orderflow/internal/handlers"
	"github.com/opscore/orderflow/internal/httpx"
	"github.com/opscore/orderflow/internal/models"
	"github.com/opscore/orderflow/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// Capability flags live on the user row; routing checks them, the
	// lifecycle service never does.
	auth.SetCapabilityChecker(func(_ context.Context, uid uint, capability string) bool {
		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			return false
		}
		switch capability {
		case "erp":
			return user.HasErpAccess
		case "payroll":
			return user.HasPayrollAccess
		case "projects":
			return user.HasProjectsAccess
		}
		return false
	})

	// --- Health and metrics ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	// --- Auth ---
	ah := handlers.NewAuthHandler(db)
	mux.HandleFunc("/login", ah.Login)
	mux.HandleFunc("/logout", ah.Logout)
	mux.Handle("/me", http.HandlerFunc(ah.Me))

	svc := services.NewLifecycleService(db)

	erp := func(h http.HandlerFunc) http.Handler {
		return auth.RequireCapability("erp", auth.RequireAuth(h))
	}
	listCreate := func(list, create http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				list(w, r)
			case http.MethodPost:
				create(w, r)
			default:
				w.Header().Set("Allow", "GET,POST")
				httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			}
		}
	}

	// --- Quotes ---
	qh := handlers.NewQuoteHandler(db, svc)
	mux.Handle("/quotes", erp(listCreate(qh.List, qh.Save)))
	mux.Handle("/quotes/get", erp(qh.Get))
	mux.Handle("/quotes/status", erp(qh.UpdateStatus))
	mux.Handle("/quotes/convert", erp(qh.Convert))
	mux.Handle("/quotes/delete", erp(qh.Delete))

	// --- Sales orders ---
	oh := handlers.NewSalesOrderHandler(db, svc)
	mux.Handle("/orders", erp(listCreate(oh.List, oh.Create)))
	mux.Handle("/orders/get", erp(oh.Get))
	mux.Handle("/orders/cancel", erp(oh.Cancel))
	mux.Handle("/orders/delete", erp(oh.Delete))

	// --- Delivery orders ---
	dh := handlers.NewDeliveryOrderHandler(db, svc)
	mux.Handle("/deliveries", erp(listCreate(dh.List, dh.Create)))
	mux.Handle("/deliveries/get", erp(dh.Get))
	mux.Handle("/deliveries/status", erp(dh.UpdateStatus))
	mux.Handle("/deliveries/delete", erp(dh.Delete))

	// --- Purchase orders ---
	ph := handlers.NewPurchaseOrderHandler(db, svc)
	mux.Handle("/purchase-orders", erp(listCreate(ph.List, ph.Save)))
	mux.Handle("/purchase-orders/get", erp(ph.Get))
	mux.Handle("/purchase-orders/status", erp(ph.UpdateStatus))
	mux.Handle("/purchase-orders/delete", erp(ph.Delete))

	// --- Catalog ---
	ch := handlers.NewCatalogHandler(db)
	mux.Handle("/customers", erp(listCreate(ch.ListCustomers, ch.CreateCustomer)))
	mux.Handle("/products", erp(listCreate(ch.ListProducts, ch.CreateProduct)))
	mux.Handle("/suppliers", erp(listCreate(ch.ListSuppliers, ch.CreateSupplier)))

	return auth.Middleware(mux)
}
