// ledger-node is a development stand-in for a real registry node. It serves
// the same /contract REST surface the production node exposes, backed by the
// in-memory ledger, so the HTTP client path can be exercised end to end
// without a chain.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"docproof/internal/ledger"
	"docproof/internal/platform/httpserver"
	"docproof/internal/platform/logger"
	"docproof/pkg/domain"
	"docproof/pkg/domainerr"
	"docproof/pkg/platform/sentinel"
)

type node struct {
	chain *ledger.Memory
}

func main() {
	log := logger.New()

	addr := os.Getenv("DOCPROOF_NODE_ADDR")
	if addr == "" {
		addr = ":8545"
	}
	confirmDelay, _ := time.ParseDuration(os.Getenv("DOCPROOF_NODE_CONFIRM_DELAY"))

	n := &node{chain: ledger.NewMemory(ledger.MemoryConfig{
		Account:      os.Getenv("DOCPROOF_ACCOUNT"),
		Network:      os.Getenv("DOCPROOF_NETWORK"),
		ConfirmDelay: confirmDelay,
	})}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Route("/contract", func(r chi.Router) {
		r.Post("/register", n.handleRegister)
		r.Post("/verify", n.handleVerify)
		r.Get("/documents", n.handleList)
		r.Get("/documents/{digest}", n.handleFetch)
		r.Get("/documents/{digest}/exists", n.handleExists)
		r.Get("/owners/{owner}/documents", n.handleByOwner)
	})

	srv := httpserver.New(addr, r)
	log.Printf("starting development ledger node on %s (network %s)", addr, n.chain.Network())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type wireRecord struct {
	Digest       string `json:"digest"`
	Owner        string `json:"owner"`
	RegisteredAt int64  `json:"registeredAt"`
	Metadata     string `json:"metadata"`
	Exists       bool   `json:"exists"`
}

func toWire(rec ledger.Record) *wireRecord {
	return &wireRecord{
		Digest:       rec.Digest.String(),
		Owner:        rec.Owner,
		RegisteredAt: rec.RegisteredAt.Unix(),
		Metadata:     rec.Metadata,
		Exists:       rec.Exists,
	}
}

func (n *node) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Digest   string `json:"digest"`
		Metadata string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, ledger.ReasonInvalidHash)
		return
	}
	result, err := n.chain.Register(r.Context(), domain.Digest(req.Digest), req.Metadata)
	if err != nil {
		writeContractError(w, err, req.Metadata)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"txRef":    result.TxRef,
		"sequence": result.Sequence,
	})
}

func (n *node) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Digest string `json:"digest"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReason(w, http.StatusBadRequest, ledger.ReasonInvalidHash)
		return
	}
	result, err := n.chain.Verify(r.Context(), domain.Digest(req.Digest))
	if err != nil {
		writeContractError(w, err, "")
		return
	}
	resp := map[string]any{"existed": result.Existed, "txRef": result.TxRef}
	if result.Record != nil {
		resp["record"] = toWire(*result.Record)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (n *node) handleFetch(w http.ResponseWriter, r *http.Request) {
	rec, err := n.chain.Fetch(r.Context(), domain.Digest(chi.URLParam(r, "digest")))
	if err != nil {
		writeContractError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toWire(rec))
}

func (n *node) handleExists(w http.ResponseWriter, r *http.Request) {
	exists, err := n.chain.ExistsView(r.Context(), domain.Digest(chi.URLParam(r, "digest")))
	if err != nil {
		writeContractError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (n *node) handleList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	total, err := n.chain.TotalCount(r.Context())
	if err != nil {
		writeContractError(w, err, "")
		return
	}
	digests, err := n.chain.ListAll(r.Context(), offset, limit)
	if err != nil {
		writeContractError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":   total,
		"digests": digests,
	})
}

func (n *node) handleByOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	digests, err := n.chain.ListByOwner(r.Context(), owner)
	if err != nil {
		writeContractError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(digests),
		"digests": digests,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeReason(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}

// writeContractError maps a coded error back onto the contract's symbolic
// rejection reasons, the inverse of the client-side translation.
func writeContractError(w http.ResponseWriter, err error, metadata string) {
	switch {
	case domainerr.HasCode(err, domainerr.CodeDuplicate):
		writeReason(w, http.StatusConflict, ledger.ReasonAlreadyExists)
	case domainerr.HasCode(err, domainerr.CodeNotFound), errors.Is(err, sentinel.ErrNotFound):
		writeReason(w, http.StatusNotFound, ledger.ReasonNotFound)
	case domainerr.HasCode(err, domainerr.CodeLedgerRejected):
		if len(metadata) > ledger.MaxMetadataBytes {
			writeReason(w, http.StatusUnprocessableEntity, ledger.ReasonMetadataTooLong)
			return
		}
		writeReason(w, http.StatusUnprocessableEntity, ledger.ReasonInvalidHash)
	case domainerr.HasCode(err, domainerr.CodeInvalidInput):
		writeReason(w, http.StatusBadRequest, ledger.ReasonInvalidHash)
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal"})
	}
}
