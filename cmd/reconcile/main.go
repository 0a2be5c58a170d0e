package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/wholesale/internal/bootstrap"
	"github.com/erp/wholesale/internal/domain/shared"
	"github.com/erp/wholesale/internal/infrastructure/config"
	"github.com/erp/wholesale/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// reconcile re-audits the ledger of sale orders and stores the verdict on
// each order. Without order IDs it audits every completed order of the
// store. Orders that are not completed are skipped. It exits 2 when any
// order has an exception.
func main() {
	os.Exit(run())
}

func run() int {
	var storeFlag string
	flag.StringVar(&storeFlag, "store", "", "Store ID owning the orders")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() {
		_ = log.Sync()
	}()

	storeID, err := uuid.Parse(storeFlag)
	if err != nil {
		log.Error("Invalid -store", zap.String("store", storeFlag), zap.Error(err))
		return 1
	}
	orderIDs := make([]uuid.UUID, 0, flag.NArg())
	for _, arg := range flag.Args() {
		id, err := uuid.Parse(arg)
		if err != nil {
			log.Error("Invalid order ID", zap.String("order", arg), zap.Error(err))
			return 1
		}
		orderIDs = append(orderIDs, id)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to start", zap.Error(err))
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rt.Close(shutdownCtx); err != nil {
			log.Error("Shutdown failed", zap.Error(err))
		}
	}()

	if len(orderIDs) == 0 {
		orderIDs, err = rt.Database.CompletedOrderIDs(ctx, storeID)
		if err != nil {
			log.Error("Failed to list completed orders", zap.Error(err))
			return 1
		}
		log.Info("Reconciling completed orders", zap.String("store_id", storeID.String()), zap.Int("orders", len(orderIDs)))
	}

	exceptions := 0
	for _, orderID := range orderIDs {
		verdict, err := rt.Services.Audit.ReconcileOrder(ctx, storeID, orderID)
		if shared.IsValidation(err) {
			log.Warn("Order skipped", zap.String("order_id", orderID.String()), zap.Error(err))
			continue
		}
		if err != nil {
			log.Error("Reconcile failed", zap.String("order_id", orderID.String()), zap.Error(err))
			exceptions++
			continue
		}
		if verdict.Exception() {
			exceptions++
			log.Warn("Bookkeeping exception",
				zap.String("order_id", orderID.String()),
				zap.Strings("issues", verdict.Issues),
			)
			continue
		}
		log.Info("Ledger consistent", zap.String("order_id", orderID.String()))
	}

	if exceptions > 0 {
		log.Warn("Reconcile finished with exceptions", zap.Int("orders", len(orderIDs)), zap.Int("exceptions", exceptions))
		return 2
	}
	return 0
}
