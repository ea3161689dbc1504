package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cafe-pos-api/config"
	"cafe-pos-api/controllers"
	"cafe-pos-api/handlers"
	"cafe-pos-api/logging"
	"cafe-pos-api/middleware"
	"cafe-pos-api/notify"
	"cafe-pos-api/printer"
	"cafe-pos-api/routes"
	"cafe-pos-api/services"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New(cfg.Log)
	gin.SetMode(cfg.GinMode)

	db, err := config.OpenDB(cfg.Database, logging.Gorm(log))
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	log.WithFields(logrus.Fields{"driver": cfg.Database.Driver, "dsn": config.RedactDSN(cfg.Database.DSN)}).Info("database connected")
	if err := config.Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	perms := services.NewPermissionService(db, log)
	if err := perms.Bootstrap(ctx); err != nil {
		log.WithError(err).Fatal("failed to seed permissions")
	}

	menu := controllers.NewMenuController(db)
	inventory := controllers.NewInventoryController(db)
	orders := controllers.NewOrdersController(db)
	users := controllers.NewUsersController(db)
	alerts := controllers.NewAlertsController(db)

	mailer := notify.NewMailer(cfg.Email, log)
	publisher := notify.NewPublisher(cfg.AMQP, log)
	defer publisher.Close()

	receipts := printer.New(cfg.Printer, cfg.Business, log)
	renderer := services.NewReportRenderer(cfg.Business.Name)
	sales := services.NewSalesService(db, log)
	reports := services.NewReportMailer(sales, mailer, renderer, cfg.Email.DailyRecipients, log)

	h := &handlers.Handler{
		DB:          db,
		Menu:        menu,
		Inventory:   inventory,
		Orders:      orders,
		OrderItems:  controllers.NewOrderItemsController(db),
		Users:       users,
		Roles:       controllers.NewRolesController(db),
		Alerts:      alerts,
		OrderSvc:    services.NewOrderService(orders, receipts, services.OrderOptions{StrictStaff: cfg.Orders.StrictStaff, AutoPrint: cfg.Orders.AutoPrint}, log),
		Sales:       sales,
		Auth:        services.NewAuthService(db, users, perms, mailer, renderer, cfg.JWT, cfg.Email.ResetURL, log),
		Permissions: perms,
		Reports:     reports,
		Importer:    services.NewMenuImporter(menu, log),
		Exporter:    services.NewInventoryExporter(inventory),
		Images:      services.NewImageService(menu, cfg.Uploads.Dir, cfg.Uploads.MaxBytes, log),
		AlertSvc:    services.NewAlertService(alerts, publisher, log),
		Settings:    services.NewSettingsService(db, services.DefaultSettings(cfg)),
		Printer:     receipts,
		Log:         log,

		ReportTimeout: time.Duration(cfg.Reports.TimeoutSeconds) * time.Second,
		Version:       version,
		Started:       time.Now(),
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(log), middleware.Recovery(), middleware.CORS(cfg.CORSOrigins))
	routes.SetupRoutes(r, h, cfg.Uploads.Dir)

	go services.NewScheduler(reports, cfg.Email.DailyTime, cfg.Email.Timezone, log).Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("CafePOS API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
