// Package server wires the stores, domain services and handlers into
// the HTTP surface: a public storefront API, a session-protected
// cashier console, and an admin-gated management API.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/finjaanapp/finjaan/internal/backup"
	"github.com/finjaanapp/finjaan/internal/cardtoken"
	"github.com/finjaanapp/finjaan/internal/handler"
	"github.com/finjaanapp/finjaan/internal/invoice"
	"github.com/finjaanapp/finjaan/internal/loyalty"
	"github.com/finjaanapp/finjaan/internal/middleware"
	"github.com/finjaanapp/finjaan/internal/notify"
	"github.com/finjaanapp/finjaan/internal/order"
	"github.com/finjaanapp/finjaan/internal/payment"
	"github.com/finjaanapp/finjaan/internal/push"
	"github.com/finjaanapp/finjaan/internal/store"
	ws "github.com/finjaanapp/finjaan/internal/websocket"
)

// Config carries everything New needs beyond the database handle.
type Config struct {
	CardTokenSecret string
	CardIssuer      string
	Seller          invoice.Seller
	NotifyGateway   string
	NotifyAPIKey    string
	Payment         payment.Config
	Push            push.Config
	Backup          backup.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	checkoutH  *handler.CheckoutHandler
	orderH     *handler.OrderHandler
	loyaltyH   *handler.LoyaltyHandler
	menuH      *handler.MenuHandler
	branchH    *handler.BranchHandler
	inventoryH *handler.InventoryHandler
	authH      *handler.AuthHandler
	pushH      *handler.PushHandler
	backupH    *handler.BackupHandler

	sessionStore  *store.SessionStore
	employeeStore *store.EmployeeStore
	loginLimiter  *middleware.RateLimiter
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	accountStore := store.NewLoyaltyAccountStore(db)
	codeStore := store.NewRedemptionCodeStore(db)
	orderStore := store.NewOrderStore(db)
	menuStore := store.NewMenuStore(db)
	branchStore := store.NewBranchStore(db)
	inventoryStore := store.NewInventoryStore(db)
	employeeStore := store.NewEmployeeStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	minter := cardtoken.NewMinter(cfg.CardTokenSecret, cfg.CardIssuer)
	ledger := loyalty.NewLedger(accountStore, codeStore, minter, logger.With("component", "loyalty"))

	notifier := notify.NewClient(cfg.NotifyGateway, cfg.NotifyAPIKey, logger.With("component", "notify"))
	orderSvc := order.NewService(orderStore, ledger, notifier, logger.With("component", "order"))

	payments := payment.NewClient(cfg.Payment)

	pushSvc := push.NewService(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey)
	announcer := push.NewAnnouncer(pushSvc, pushStore, logger.With("component", "push"))

	backupMgr := backup.NewManager(db, backupStore, cfg.Backup, logger.With("component", "backup"))

	return &Server{
		db:  db,
		hub: hub,

		checkoutH: handler.NewCheckoutHandler(menuStore, orderStore, ledger, payments, hub, announcer,
			logger.With("component", "checkout")),
		orderH: handler.NewOrderHandler(orderStore, accountStore, orderSvc, ledger, cfg.Seller, hub,
			logger.With("component", "orders")),
		loyaltyH: handler.NewLoyaltyHandler(ledger, accountStore, codeStore, minter,
			logger.With("component", "loyalty_api")),
		menuH:      handler.NewMenuHandler(menuStore, logger.With("component", "menu")),
		branchH:    handler.NewBranchHandler(branchStore, logger.With("component", "branch")),
		inventoryH: handler.NewInventoryHandler(inventoryStore, logger.With("component", "inventory")),
		authH:      handler.NewAuthHandler(employeeStore, sessionStore, logger.With("component", "auth")),
		pushH:      handler.NewPushHandler(pushSvc, pushStore, logger.With("component", "push_api")),
		backupH:    handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_api")),

		sessionStore:  sessionStore,
		employeeStore: employeeStore,
		loginLimiter:  middleware.NewRateLimiter(10, time.Minute),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// SessionStore is exposed for the session cleanup loop in main.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// LoginLimiter is exposed for the limiter cleanup loop in main.
func (s *Server) LoginLimiter() *middleware.RateLimiter {
	return s.loginLimiter
}

// BackupManager returns the backup manager, nil when not configured.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outer := http.NewServeMux()

	// Public storefront: menu, checkout, order tracking.
	outer.HandleFunc("GET /api/menu", s.menuH.PublicList)
	outer.HandleFunc("POST /api/checkout", s.checkoutH.Checkout)
	outer.HandleFunc("GET /api/track/{publicID}", s.orderH.Track)
	outer.Handle("POST /api/login", s.loginLimiter.Middleware(http.HandlerFunc(s.authH.Login)))
	outer.HandleFunc("GET /health", s.healthHandler)

	// Cashier console: everything behind a session.
	protected := http.NewServeMux()
	s.registerProtectedRoutes(protected)

	requireAuth := middleware.RequireAuth(s.sessionStore, s.employeeStore)
	outer.Handle("/", requireAuth(protected))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outer)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Order board
	mux.HandleFunc("GET /api/orders", s.orderH.Board)
	mux.HandleFunc("GET /api/orders/{id}", s.orderH.Get)
	mux.HandleFunc("POST /api/orders/{id}/status", s.orderH.UpdateStatus)
	mux.HandleFunc("POST /api/orders/{id}/discount", s.orderH.ApplyDiscount)
	mux.HandleFunc("POST /api/orders/{id}/free-item", s.orderH.ApplyFreeItem)
	mux.HandleFunc("GET /api/orders/{id}/invoice-qr", s.orderH.InvoiceQR)

	// Loyalty desk
	mux.HandleFunc("POST /api/loyalty/accounts", s.loyaltyH.Register)
	mux.HandleFunc("GET /api/loyalty/accounts", s.loyaltyH.List)
	mux.HandleFunc("GET /api/loyalty/accounts/{id}", s.loyaltyH.Get)
	mux.HandleFunc("GET /api/loyalty/accounts/{id}/eligibility", s.loyaltyH.Eligibility)
	mux.HandleFunc("POST /api/loyalty/accounts/{id}/redeem-code", s.loyaltyH.RedeemCode)
	mux.HandleFunc("POST /api/loyalty/scan", s.loyaltyH.Scan)

	// Barista push devices
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Live order board
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))

	// Admin surface
	admin := http.NewServeMux()
	s.registerAdminRoutes(admin)
	mux.Handle("/api/admin/", middleware.RequireAdmin(admin))
}

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/menu", s.menuH.List)
	mux.HandleFunc("POST /api/admin/menu", s.menuH.Create)
	mux.HandleFunc("PUT /api/admin/menu/{id}", s.menuH.Update)
	mux.HandleFunc("DELETE /api/admin/menu/{id}", s.menuH.Delete)

	mux.HandleFunc("GET /api/admin/branches", s.branchH.List)
	mux.HandleFunc("POST /api/admin/branches", s.branchH.Create)
	mux.HandleFunc("PUT /api/admin/branches/{id}", s.branchH.Update)
	mux.HandleFunc("DELETE /api/admin/branches/{id}", s.branchH.Delete)

	mux.HandleFunc("GET /api/admin/branches/{id}/inventory", s.inventoryH.ListByBranch)
	mux.HandleFunc("POST /api/admin/inventory", s.inventoryH.Create)
	mux.HandleFunc("POST /api/admin/inventory/{id}/adjust", s.inventoryH.Adjust)
	mux.HandleFunc("DELETE /api/admin/inventory/{id}", s.inventoryH.Delete)
	mux.HandleFunc("GET /api/admin/inventory/low", s.inventoryH.ListLow)

	mux.HandleFunc("PUT /api/admin/loyalty/accounts/{id}/tier", s.loyaltyH.SetTier)
	mux.HandleFunc("POST /api/admin/loyalty/codes", s.loyaltyH.MintCodes)
	mux.HandleFunc("GET /api/admin/loyalty/codes", s.loyaltyH.ListUnusedCodes)

	mux.HandleFunc("GET /api/admin/employees", s.authH.ListEmployees)
	mux.HandleFunc("POST /api/admin/employees", s.authH.CreateEmployee)
	mux.HandleFunc("DELETE /api/admin/employees/{id}", s.authH.DeleteEmployee)

	mux.HandleFunc("GET /api/admin/reports/daily", s.orderH.DailyTotals)

	mux.HandleFunc("GET /api/admin/push/subscriptions", s.pushH.List)

	mux.HandleFunc("GET /api/admin/backups", s.backupH.Status)
	mux.HandleFunc("POST /api/admin/backups/run", s.backupH.Run)
}
