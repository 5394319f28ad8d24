package main

import (
	"log"
	"net/http"

	httphandlers "nexus/internal/interfaces/http"
	"nexus/internal/shared/config"
	"nexus/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", httphandlers.HandleHealth)
	if deps.Telemetry != nil && cfg.Telemetry.MetricsPort == "" {
		mux.Handle("/metrics", deps.Telemetry.MetricsHandler())
	}

	authMiddleware := middleware.Auth(deps.JWT)
	protect := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authMiddleware(h))
	}

	protect("/api/accounts/", deps.AccountHandler.HandleAccounts)
	protect("/api/accounts/{id}", deps.AccountHandler.HandleAccountByID)

	protect("/api/categories/", deps.CategoryHandler.HandleCategories)
	protect("/api/categories/{id}", deps.CategoryHandler.HandleCategoryByID)

	protect("/api/transactions/", deps.TransactionHandler.HandleTransactions)
	protect("/api/transactions/{id}", deps.TransactionHandler.HandleTransactionByID)

	protect("/api/recurring/", deps.RecurringHandler.HandleRecurring)
	protect("/api/recurring/run-now", deps.RecurringHandler.HandleRunNow)
	protect("/api/recurring/{id}", deps.RecurringHandler.HandleRecurringByID)
	protect("/api/recurring/{id}/upcoming", deps.RecurringHandler.HandleUpcoming)

	protect("/api/dashboard/founder-overview", deps.DashboardHandler.HandleFounderOverview)
	protect("/api/dashboard/cash-summary-digest", deps.DashboardHandler.HandleCashSummaryDigest)

	protect("/api/banking-messages/parse", deps.BankMessageHandler.HandleParse)
	protect("/api/banking-messages/", deps.BankMessageHandler.HandleMessages)
	protect("/api/banking-messages/{id}", deps.BankMessageHandler.HandleMessageByID)
	protect("/api/banking-messages/{id}/create-transaction", deps.BankMessageHandler.HandleConvert)

	protect("/api/notifications/", deps.NotificationHandler.HandleNotifications)
	protect("/api/notifications/devices/", deps.NotificationHandler.HandleDevices)

	// Apply global middleware
	handler := middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(middleware.Tracing(mux)))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(middleware.SecureHeaders(handler))
		log.Println("TLS security middleware enabled (HSTS + secure headers)")
	}

	// otelhttp picks up the caller's trace context before anything else runs
	if deps.Telemetry != nil {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(handler)
	}

	return handler
}
