package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Akechi360/clinic-ops/internal"
	"github.com/Akechi360/clinic-ops/internal/approval"
	approvalpg "github.com/Akechi360/clinic-ops/internal/approval/postgres"
	"github.com/Akechi360/clinic-ops/internal/audit"
	auditpg "github.com/Akechi360/clinic-ops/internal/audit/postgres"
	"github.com/Akechi360/clinic-ops/internal/auth"
	authpg "github.com/Akechi360/clinic-ops/internal/auth/postgres"
	"github.com/Akechi360/clinic-ops/internal/core/events"
	"github.com/Akechi360/clinic-ops/internal/core/sequence"
	"github.com/Akechi360/clinic-ops/internal/inventory"
	inventorypg "github.com/Akechi360/clinic-ops/internal/inventory/postgres"
	"github.com/Akechi360/clinic-ops/internal/maintenance"
	maintenancepg "github.com/Akechi360/clinic-ops/internal/maintenance/postgres"
	"github.com/Akechi360/clinic-ops/internal/notification"
	"github.com/Akechi360/clinic-ops/internal/ticket"
	ticketpg "github.com/Akechi360/clinic-ops/internal/ticket/postgres"
	"github.com/Akechi360/clinic-ops/internal/transport/rest"
	"github.com/Akechi360/clinic-ops/internal/user"
	userpg "github.com/Akechi360/clinic-ops/internal/user/postgres"
	"github.com/Akechi360/clinic-ops/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Logger *slog.Logger
}

// itemChecker adapts the inventory service to the maintenance contract.
type itemChecker struct {
	svc *inventory.Service
}

func (c *itemChecker) EnsureExists(ctx context.Context, itemID int64) error {
	_, err := c.svc.GetByID(ctx, itemID)
	return err
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm over existing connection: %w", err)
	}

	// shared infrastructure
	bus := events.NewEventBus(log)
	allocator := sequence.NewAllocator(gormDB)
	recorder := audit.NewRecorder(auditpg.NewAuditRepository(gormDB), log)

	dispatcher := notification.NewDispatcher(cfg.Notification, log)
	dispatcher.SubscribeAll(bus)

	// auth
	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authpg.NewRepository(gormDB), tokenGen, log)
	authHandler := auth.NewHandler(authService)

	// domain services
	userService := user.NewService(userpg.NewUserRepository(gormDB), allocator, recorder, log)
	ticketService := ticket.NewService(ticketpg.NewTicketRepository(gormDB), allocator, recorder, bus, userService, log)
	approvalService := approval.NewService(approvalpg.NewApprovalRepository(gormDB), allocator, recorder, bus, log)
	inventoryService := inventory.NewService(inventorypg.NewInventoryRepository(gormDB), allocator, recorder, userService, log)
	maintenanceService := maintenance.NewService(
		maintenancepg.NewMaintenanceRepository(gormDB),
		allocator, recorder, bus,
		&itemChecker{svc: inventoryService},
		userService, log)

	handlers := rest.Handlers{
		Auth:        authHandler,
		User:        user.NewHandler(userService),
		Ticket:      ticket.NewHandler(ticketService),
		Approval:    approval.NewHandler(approvalService),
		Inventory:   inventory.NewHandler(inventoryService),
		Maintenance: maintenance.NewHandler(maintenanceService),
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, handlers, cfg.Server.AllowedOrigins, log)

	return &Dependencies{
		Config: cfg,
		DB:     db,
		Router: router,
		Logger: log,
	}, nil
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
