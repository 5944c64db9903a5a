package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keymarket/ledger-service/internal/handler"
	"github.com/keymarket/ledger-service/internal/infrastructure/auth"
	"github.com/keymarket/ledger-service/internal/infrastructure/redis"
	"github.com/keymarket/ledger-service/internal/models"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(RequestCounter, RequestDuration)
}

func SetupRouter(h *handler.Handler, redisClient redis.RedisClient, jwtSecret string) *mux.Router {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	public := r.PathPrefix("/api/auth").Subrouter()
	public.HandleFunc("/register", h.Register).Methods("POST")
	public.HandleFunc("/login", h.Login).Methods("POST")

	authMW := auth.Middleware(redisClient, jwtSecret)

	// Wallet, open to any authenticated role for its own wallet.
	wallet := r.PathPrefix("/api/wallet").Subrouter()
	wallet.Use(authMW, auth.RequireAction(models.ActionViewOwnWallet))
	wallet.HandleFunc("", h.GetWallet).Methods("GET")
	wallet.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	wallet.HandleFunc("/recharges", h.CreateRecharge).Methods("POST")

	withdrawals := r.PathPrefix("/api/withdrawals").Subrouter()
	withdrawals.Use(authMW, auth.RequireAction(models.ActionRequestWithdrawal))
	withdrawals.HandleFunc("", h.CreateWithdrawal).Methods("POST")

	// Payment validator surface: withdrawal processing and fund settlement.
	validator := r.PathPrefix("/api/payment-validator").Subrouter()
	validator.Use(authMW)

	vw := validator.PathPrefix("/withdrawals").Subrouter()
	vw.Use(auth.RequireAction(models.ActionProcessWithdrawals))
	vw.HandleFunc("", h.ListPendingWithdrawals).Methods("GET")
	vw.HandleFunc("/{id}/approve", h.ApproveWithdrawal).Methods("POST")
	vw.HandleFunc("/{id}/reject", h.RejectWithdrawal).Methods("POST")
	vw.HandleFunc("/{id}/complete", h.CompleteWithdrawal).Methods("POST")

	vt := validator.PathPrefix("/transfers").Subrouter()
	vt.Use(auth.RequireAction(models.ActionSubmitTransfers))
	vt.HandleFunc("/entries", h.ListPendingFundEntries).Methods("GET")
	vt.HandleFunc("", h.SubmitTransfer).Methods("POST")

	// Provider surface.
	provider := r.PathPrefix("/api/provider").Subrouter()
	provider.Use(authMW, auth.RequireAction(models.ActionManageProducts))
	provider.HandleFunc("/products", h.CreateProduct).Methods("POST")
	provider.HandleFunc("/products", h.ListProducts).Methods("GET")
	provider.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	provider.HandleFunc("/products/{id}", h.UpdateProduct).Methods("PUT")
	provider.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")
	provider.HandleFunc("/inventory/{accountID}", h.RevealInventory).Methods("GET")
	provider.HandleFunc("/inventory/{accountID}", h.DeleteInventory).Methods("DELETE")

	// Conciliator surface.
	disputes := r.PathPrefix("/api/disputes").Subrouter()
	disputes.Use(authMW)
	disputes.Handle("", auth.RequireAction(models.ActionOpenDisputes)(http.HandlerFunc(h.OpenDispute))).Methods("POST")
	disputes.Handle("", auth.RequireAction(models.ActionResolveDisputes)(http.HandlerFunc(h.ListOpenDisputes))).Methods("GET")
	disputes.Handle("/{id}", auth.RequireAction(models.ActionResolveDisputes)(http.HandlerFunc(h.GetDispute))).Methods("GET")
	disputes.Handle("/{id}/resolve", auth.RequireAction(models.ActionResolveDisputes)(http.HandlerFunc(h.ResolveDispute))).Methods("POST")

	// Admin surface.
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(authMW)

	validators := admin.PathPrefix("/payment-validators").Subrouter()
	validators.Use(auth.RequireAction(models.ActionManageValidators))
	validators.HandleFunc("", h.ListValidators).Methods("GET")
	validators.HandleFunc("/{id}/approve", h.ApproveValidator).Methods("PUT")
	validators.HandleFunc("/{id}/reject", h.RejectValidator).Methods("PUT")

	transfers := admin.PathPrefix("/validator-transfers").Subrouter()
	transfers.Use(auth.RequireAction(models.ActionReviewTransfers))
	transfers.HandleFunc("/{id}/approve", h.ApproveTransfer).Methods("PUT")
	transfers.HandleFunc("/{id}/reject", h.RejectTransfer).Methods("PUT")

	affiliates := admin.PathPrefix("/affiliate").Subrouter()
	affiliates.Use(auth.RequireAction(models.ActionManageAffiliates))
	affiliates.HandleFunc("/profiles", h.ListAffiliateProfiles).Methods("GET")
	affiliates.HandleFunc("/applications", h.ListAffiliateApplications).Methods("GET")
	affiliates.HandleFunc("/referrals/{id}/approve", h.ApproveReferral).Methods("PUT")
	affiliates.HandleFunc("/referrals/{id}/reject", h.RejectReferral).Methods("PUT")

	wallets := admin.PathPrefix("/wallets").Subrouter()
	wallets.Use(auth.RequireAction(models.ActionAdjustWallets))
	wallets.HandleFunc("/{id}/adjust", h.AdjustWallet).Methods("POST")

	recharges := admin.PathPrefix("/recharges").Subrouter()
	recharges.Use(auth.RequireAction(models.ActionCompleteRecharges))
	recharges.HandleFunc("/{id}/complete", h.CompleteRecharge).Methods("POST")
	recharges.HandleFunc("/{id}/fail", h.FailRecharge).Methods("POST")

	pricing := admin.PathPrefix("/pricing").Subrouter()
	pricing.Use(auth.RequireAction(models.ActionManagePricing))
	pricing.HandleFunc("", h.GetPricing).Methods("GET")
	pricing.HandleFunc("", h.UpdatePricing).Methods("PUT")

	return r
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := fmt.Sprintf("%d", recorder.status)
		RequestCounter.WithLabelValues(r.Method, endpoint, status).Inc()
		RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
