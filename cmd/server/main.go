package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/simplebank/ledger-engine/internal/config"
	"github.com/simplebank/ledger-engine/internal/events/kafka"
	"github.com/simplebank/ledger-engine/internal/export"
	"github.com/simplebank/ledger-engine/internal/history"
	"github.com/simplebank/ledger-engine/internal/interfaces"
	"github.com/simplebank/ledger-engine/internal/ledger"
	"github.com/simplebank/ledger-engine/internal/models"
	"github.com/simplebank/ledger-engine/internal/storage/memory"
	"github.com/simplebank/ledger-engine/internal/storage/postgres"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var store interfaces.LedgerStore
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("open database: %v", err)
		}
		pgStore := postgres.NewPostgresLedgerStore(db)
		if err := pgStore.Migrate(ctx); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		store = pgStore
		log.Println("Using postgres store")
	} else {
		store = memory.NewMemoryLedgerStore()
		log.Println("Using in-memory store")
	}

	ledgerService := ledger.NewLedger(store)
	historyService := history.NewService(store)

	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers)
		defer publisher.Close()
		ledgerService.SetPublisher(publisher, cfg.KafkaTopic)
		log.Printf("Publishing events to %v", cfg.KafkaBrokers)
	}

	http.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	http.HandleFunc("POST /accounts", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AccountID string `json:"account_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		acct, err := ledgerService.OpenAccount(r.Context(), req.AccountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, acct)
	})

	http.HandleFunc("GET /account/balance", func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := callerAccount(w, r)
		if !ok {
			return
		}
		balance, err := ledgerService.GetBalance(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			AccountID string          `json:"account_id"`
			Balance   decimal.Decimal `json:"balance"`
		}{accountID, balance})
	})

	http.HandleFunc("POST /account/credit", func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := callerAccount(w, r)
		if !ok {
			return
		}
		req, ok := decodeMutation(w, r)
		if !ok {
			return
		}
		rec, err := ledgerService.Credit(r.Context(), accountID, req.Amount, req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	})

	http.HandleFunc("POST /account/debit", func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := callerAccount(w, r)
		if !ok {
			return
		}
		req, ok := decodeMutation(w, r)
		if !ok {
			return
		}
		rec, err := ledgerService.Debit(r.Context(), accountID, req.Amount, req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	})

	http.HandleFunc("POST /account/transfer", func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := callerAccount(w, r)
		if !ok {
			return
		}
		req, ok := decodeMutation(w, r)
		if !ok {
			return
		}
		if req.ToAccount == "" {
			http.Error(w, "to_account is a mandatory field", http.StatusBadRequest)
			return
		}
		rec, err := ledgerService.Transfer(r.Context(), accountID, req.ToAccount, req.Amount, req.Description)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	})

	http.HandleFunc("GET /account/transactions", func(w http.ResponseWriter, r *http.Request) {
		transactions, ok := queryTransactions(w, r, historyService)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, transactions)
	})

	http.HandleFunc("GET /account/transactions/download", func(w http.ResponseWriter, r *http.Request) {
		transactions, ok := queryTransactions(w, r, historyService)
		if !ok {
			return
		}
		filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write([]byte(export.TransactionsCSV(transactions)))
	})

	log.Printf("Starting server on %s", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, nil))
}

type mutationRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ToAccount   string          `json:"to_account"`
	Description string          `json:"description"`
}

// callerAccount resolves the authenticated account id. Authentication itself
// happens upstream; by the time a request reaches the engine the identity is
// just a header set by that layer.
func callerAccount(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := r.Header.Get("X-Account-ID")
	if accountID == "" {
		http.Error(w, "missing X-Account-ID header", http.StatusUnauthorized)
		return "", false
	}
	return accountID, true
}

func decodeMutation(w http.ResponseWriter, r *http.Request) (mutationRequest, bool) {
	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return mutationRequest{}, false
	}
	return req, true
}

// queryTransactions runs the full or date-bounded history query depending on
// the from/to query params (both must be yyyy-mm-dd dates, both or neither).
func queryTransactions(w http.ResponseWriter, r *http.Request, svc *history.Service) ([]models.Transaction, bool) {
	accountID, ok := callerAccount(w, r)
	if !ok {
		return nil, false
	}

	fromParam := r.URL.Query().Get("from")
	toParam := r.URL.Query().Get("to")

	if fromParam == "" && toParam == "" {
		transactions, err := svc.List(r.Context(), accountID)
		if err != nil {
			writeError(w, err)
			return nil, false
		}
		return transactions, true
	}

	from, err := time.Parse("2006-01-02", fromParam)
	if err != nil {
		http.Error(w, "invalid from date, want yyyy-mm-dd", http.StatusBadRequest)
		return nil, false
	}
	to, err := time.Parse("2006-01-02", toParam)
	if err != nil {
		http.Error(w, "invalid to date, want yyyy-mm-dd", http.StatusBadRequest)
		return nil, false
	}
	transactions, err := svc.ListRange(r.Context(), accountID, from, to)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return transactions, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrSelfTransfer):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrConflict),
		errors.Is(err, models.ErrAccountExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
