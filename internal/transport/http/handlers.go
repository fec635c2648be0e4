// Package httptransport is the thin HTTP layer over the registration and
// verification coordinators. Handlers decode, delegate and encode; business
// rules live in the services.
package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/internal/platform/metrics"
	"docproof/internal/reconcile"
	"docproof/internal/registration"
	"docproof/internal/transport/http/shared"
	"docproof/internal/verification"
	"docproof/pkg/domain"
	"docproof/pkg/domainerr"
	"docproof/pkg/platform/sentinel"
	platformstrings "docproof/pkg/platform/strings"
)

const (
	defaultMaxUploadBytes = 10 << 20
	defaultPageLimit      = 20
	maxPageLimit          = 100
)

// Reconciler runs one repair pass over the whole ledger. Implemented by
// reconcile.Sweeper.
type Reconciler interface {
	Sweep(ctx context.Context) (reconcile.Summary, error)
}

// Handler holds the wired services for every endpoint.
type Handler struct {
	logger         *slog.Logger
	registration   *registration.Service
	verification   *verification.Service
	store          index.Store
	ledger         ledger.Client
	reconciler     Reconciler
	httpMetrics    *metrics.Metrics
	adminToken     string
	maxUploadBytes int64
}

// Config wires the handler. Reconciler is optional; without it the admin
// reconcile endpoint answers 503. An empty AdminToken leaves the admin
// endpoints unguarded.
type Config struct {
	Logger         *slog.Logger
	Registration   *registration.Service
	Verification   *verification.Service
	Store          index.Store
	Ledger         ledger.Client
	Reconciler     Reconciler
	HTTPMetrics    *metrics.Metrics
	AdminToken     string
	MaxUploadBytes int64
}

func NewHandler(cfg Config) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Handler{
		logger:         cfg.Logger,
		registration:   cfg.Registration,
		verification:   cfg.Verification,
		store:          cfg.Store,
		ledger:         cfg.Ledger,
		reconciler:     cfg.Reconciler,
		httpMetrics:    cfg.HTTPMetrics,
		adminToken:     cfg.AdminToken,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// handleRegister accepts a multipart upload and registers its digest.
// Duplicates answer 409 with the existing record so clients can distinguish
// "already proven" from success.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	content, header, err := h.readUpload(w, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	category, err := domain.ParseCategory(r.FormValue("category"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	in := registration.Input{
		Content:           content,
		FileName:          header.Filename,
		ContentType:       header.Header.Get("Content-Type"),
		SubmittedBy:       r.FormValue("uploadedBy"),
		Description:       r.FormValue("description"),
		Category:          category,
		Tags:              splitTags(r.FormValue("tags")),
		RetryAfterTimeout: r.FormValue("retry") == "true",
	}

	result, err := h.registration.Register(ctx, in)
	if err != nil {
		h.logger.ErrorContext(ctx, "registration failed",
			"error", err.Error(),
			"code", string(domainerr.CodeOf(err)),
		)
		shared.WriteError(w, err)
		return
	}

	if result.Outcome == registration.OutcomeAlreadyRegistered {
		shared.WriteJSON(w, http.StatusConflict, map[string]any{
			"error": shared.ErrorBody{
				Code:    string(domainerr.CodeDuplicate),
				Message: "document already registered",
			},
			"document": toDocumentResponse(result.Record),
		})
		return
	}

	shared.WriteJSON(w, http.StatusCreated, registerResponse{
		Document:    toDocumentResponse(result.Record),
		Transaction: toTransactionResponse(result.Ledger),
	})
}

// handleVerify accepts either a multipart upload or a JSON body asserting a
// digest, and re-proves it against the ledger.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	in, err := h.readVerifyInput(w, r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	result, err := h.verification.Verify(ctx, in)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification failed",
			"error", err.Error(),
			"code", string(domainerr.CodeOf(err)),
		)
		shared.WriteError(w, err)
		return
	}

	resp := verifyResponse{
		Verified:   result.Verified,
		Registered: result.Registered,
		Diverged:   result.Diverged,
		Hash:       string(result.Digest),
		Document:   toDocumentResponse(result.Record),
	}
	if result.Ledger != nil {
		resp.TxRef = result.Ledger.TxRef
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	d, err := domain.ParseDigest(chi.URLParam(r, "digest"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	record, err := h.store.GetByDigest(r.Context(), d)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			shared.WriteError(w, domainerr.Wrap(domainerr.CodeNotFound, "document not found", err))
			return
		}
		shared.WriteError(w, domainerr.Wrap(domainerr.CodeInternal, "lookup failed", err))
		return
	}
	shared.WriteJSON(w, http.StatusOK, toDocumentResponse(record))
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	filter, sort, page, err := parseListQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	records, total, err := h.store.List(r.Context(), filter, sort, page)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing failed", "error", err.Error())
		shared.WriteError(w, domainerr.Wrap(domainerr.CodeInternal, "failed to list documents", err))
		return
	}

	resp := listResponse{
		Documents: make([]*documentResponse, 0, len(records)),
		Total:     total,
		Offset:    page.Offset,
		Limit:     page.Limit,
	}
	for _, record := range records {
		resp.Documents = append(resp.Documents, toDocumentResponse(record))
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Statistics(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "statistics failed", "error", err.Error())
		shared.WriteError(w, domainerr.Wrap(domainerr.CodeInternal, "failed to compute statistics", err))
		return
	}
	resp := toStatsResponse(stats)
	if h.ledger != nil {
		// Local stats stay useful even when the ledger is unreachable.
		total, err := h.ledger.TotalCount(r.Context())
		if err != nil {
			h.logger.WarnContext(r.Context(), "ledger totals unavailable", "error", err.Error())
		} else {
			resp.Ledger = &ledgerStatsResponse{TotalRecords: total, Network: h.ledger.Network()}
		}
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if h.reconciler == nil {
		shared.WriteError(w, domainerr.New(domainerr.CodeLedgerUnavailable, "reconciliation is not configured"))
		return
	}
	summary, err := h.reconciler.Sweep(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "reconcile sweep failed", "error", err.Error())
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, reconcileResponse{
		Scanned: summary.Scanned,
		Missing: summary.Missing,
		Healed:  summary.Healed,
		Failed:  summary.Failed,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		return nil, nil, domainerr.Wrap(domainerr.CodeInvalidInput, "expected a multipart upload", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, domainerr.Wrap(domainerr.CodeInvalidInput, "missing file field", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, domainerr.Wrap(domainerr.CodeInvalidInput, "failed to read upload", err)
	}
	if len(content) == 0 {
		return nil, nil, domainerr.New(domainerr.CodeInvalidInput, "uploaded file is empty")
	}
	return content, header, nil
}

func (h *Handler) readVerifyInput(w http.ResponseWriter, r *http.Request) (verification.Input, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		content, _, err := h.readUpload(w, r)
		if err != nil {
			return verification.Input{}, err
		}
		return verification.Input{Content: content}, nil
	}

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return verification.Input{}, domainerr.Wrap(domainerr.CodeInvalidInput, "invalid request body", err)
	}
	return verification.Input{AssertedDigest: req.Hash}, nil
}

func parseListQuery(r *http.Request) (index.Filter, index.Sort, index.Page, error) {
	q := r.URL.Query()

	var filter index.Filter
	if raw := q.Get("category"); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			return filter, index.Sort{}, index.Page{}, err
		}
		filter.Category = &category
	}
	if raw := q.Get("verified"); raw != "" {
		verified, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, index.Sort{}, index.Page{}, domainerr.New(domainerr.CodeInvalidInput, "verified must be true or false")
		}
		filter.Verified = &verified
	}
	filter.SubmittedBy = q.Get("uploadedBy")

	sort := index.Sort{Field: index.SortByCreatedAt, Descending: true}
	if raw := q.Get("sortBy"); raw != "" {
		field := index.SortField(raw)
		if !field.IsValid() {
			return filter, sort, index.Page{}, domainerr.New(domainerr.CodeInvalidInput, "unsupported sort field")
		}
		sort.Field = field
	}
	if q.Get("order") == "asc" {
		sort.Descending = false
	}

	page := index.Page{Limit: defaultPageLimit}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, sort, page, domainerr.New(domainerr.CodeInvalidInput, "offset must be a non-negative integer")
		}
		page.Offset = offset
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, sort, page, domainerr.New(domainerr.CodeInvalidInput, "limit must be a positive integer")
		}
		page.Limit = limit
	}
	if page.Limit > maxPageLimit {
		page.Limit = maxPageLimit
	}
	return filter, sort, page, nil
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	return platformstrings.NormalizeTags(strings.Split(raw, ","))
}
