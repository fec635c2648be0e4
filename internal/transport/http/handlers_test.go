package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docproof/internal/digest"
	"docproof/internal/index"
	"docproof/internal/ledger"
	"docproof/internal/reconcile"
	"docproof/internal/registration"
	"docproof/internal/verification"
	"docproof/pkg/domain"
	"docproof/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	chain  *ledger.Memory
	store  *index.InMemoryStore
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	s.chain = ledger.NewMemory(ledger.MemoryConfig{})
	s.store = index.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(Config{
		Logger:       logger,
		Registration: registration.NewService(registration.Config{Ledger: s.chain, Store: s.store}),
		Verification: verification.NewService(verification.Config{Ledger: s.chain, Store: s.store}),
		Store:        s.store,
		Ledger:       s.chain,
		Reconciler:   reconcile.NewSweeper(reconcile.Config{Ledger: s.chain, Store: s.store}),
	})
	s.router = NewRouter(handler)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) multipartBody(fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	s.Require().NoError(err)
	_, err = part.Write([]byte(content))
	s.Require().NoError(err)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	s.Require().NoError(mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) registerDocument(fileName, content string, fields map[string]string) *httptest.ResponseRecorder {
	body, contentType := s.multipartBody(fileName, content, fields)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	return s.do(req)
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(out))
}

func (s *HandlerSuite) TestRegisterDocument() {
	rec := s.registerDocument("contract.pdf", "contract body", map[string]string{
		"uploadedBy":  "alice",
		"description": "signed contract",
		"category":    "legal",
		"tags":        "q3, signed",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)

	var resp registerResponse
	s.decode(rec, &resp)
	s.Require().NotNil(resp.Document)
	s.Equal(string(digest.Compute([]byte("contract body"))), resp.Document.Hash)
	s.Equal("contract.pdf", resp.Document.FileName)
	s.Equal("alice", resp.Document.UploadedBy)
	s.Equal("legal", resp.Document.Category)
	s.Equal([]string{"q3", "signed"}, resp.Document.Tags)
	s.Equal("confirmed", resp.Document.Status)
	s.Require().NotNil(resp.Transaction)
	s.NotEmpty(resp.Transaction.Ref)
}

func (s *HandlerSuite) TestRegisterDuplicateAnswers409WithRecord() {
	first := s.registerDocument("contract.pdf", "contract body", map[string]string{"uploadedBy": "alice"})
	s.Require().Equal(http.StatusCreated, first.Code)

	second := s.registerDocument("copy.pdf", "contract body", map[string]string{"uploadedBy": "bob"})
	s.Require().Equal(http.StatusConflict, second.Code)

	var resp struct {
		Error    map[string]string `json:"error"`
		Document *documentResponse `json:"document"`
	}
	s.decode(second, &resp)
	s.Equal("duplicate_document", resp.Error["code"])
	s.Require().NotNil(resp.Document)
	s.Equal("alice", resp.Document.UploadedBy, "the original registration wins")
}

func (s *HandlerSuite) TestRegisterRejectsEmptyFile() {
	rec := s.registerDocument("empty.pdf", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestRegisterRejectsUnknownCategory() {
	rec := s.registerDocument("contract.pdf", "contract body", map[string]string{"category": "alchemy"})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestVerifyByUpload() {
	s.Require().Equal(http.StatusCreated,
		s.registerDocument("contract.pdf", "contract body", map[string]string{"uploadedBy": "alice"}).Code)

	body, contentType := s.multipartBody("anything.pdf", "contract body", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/verify", body)
	req.Header.Set("Content-Type", contentType)
	rec := s.do(req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp verifyResponse
	s.decode(rec, &resp)
	s.True(resp.Verified)
	s.True(resp.Registered)
	s.Require().NotNil(resp.Document)
	s.Equal(1, resp.Document.VerificationCount)
	s.NotEmpty(resp.TxRef)
}

func (s *HandlerSuite) TestVerifyByAssertedDigest() {
	rec := s.registerDocument("contract.pdf", "contract body", nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created registerResponse
	s.decode(rec, &created)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/documents/verify",
		verifyRequest{Hash: created.Document.Hash})
	resp := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusOK, resp.Code)

	out := testutil.UnmarshalResponse[verifyResponse](s.T(), resp)
	s.True(out.Verified)
}

func (s *HandlerSuite) TestVerifyUnknownDigestIsNotAnError() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/documents/verify",
		verifyRequest{Hash: strings.Repeat("f", domain.DigestLen)})
	rec := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	out := testutil.UnmarshalResponse[verifyResponse](s.T(), rec)
	s.False(out.Verified)
	s.False(out.Registered)
	s.Nil(out.Document)
}

func (s *HandlerSuite) TestVerifyMalformedDigestAnswers400() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/documents/verify",
		verifyRequest{Hash: "not-a-digest"})
	s.Equal(http.StatusBadRequest, testutil.DoRequest(s.router, req).Code)
}

func (s *HandlerSuite) TestGetDocument() {
	rec := s.registerDocument("contract.pdf", "contract body", nil)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created registerResponse
	s.decode(rec, &created)

	get := s.do(httptest.NewRequest(http.MethodGet, "/api/documents/"+created.Document.Hash, nil))
	s.Require().Equal(http.StatusOK, get.Code)

	var doc documentResponse
	s.decode(get, &doc)
	s.Equal(created.Document.Hash, doc.Hash)
	s.Equal("contract.pdf", doc.FileName)
}

func (s *HandlerSuite) TestGetDocumentNotFound() {
	target := "/api/documents/" + strings.Repeat("f", domain.DigestLen)
	s.Equal(http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, target, nil)).Code)
}

func (s *HandlerSuite) TestListDocumentsWithFilterAndPaging() {
	for i := 0; i < 5; i++ {
		category := "legal"
		if i%2 == 1 {
			category = "tax"
		}
		rec := s.registerDocument(fmt.Sprintf("doc-%d.pdf", i), fmt.Sprintf("content-%d", i), map[string]string{
			"uploadedBy": "alice",
			"category":   category,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/documents?category=legal&limit=2", nil))
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp listResponse
	s.decode(rec, &resp)
	s.Equal(3, resp.Total)
	s.Len(resp.Documents, 2)
	for _, doc := range resp.Documents {
		s.Equal("legal", doc.Category)
	}
}

func (s *HandlerSuite) TestListRejectsBadQuery() {
	s.Equal(http.StatusBadRequest, s.do(httptest.NewRequest(http.MethodGet, "/api/documents?verified=maybe", nil)).Code)
	s.Equal(http.StatusBadRequest, s.do(httptest.NewRequest(http.MethodGet, "/api/documents?sortBy=color", nil)).Code)
	s.Equal(http.StatusBadRequest, s.do(httptest.NewRequest(http.MethodGet, "/api/documents?offset=-1", nil)).Code)
}

func (s *HandlerSuite) TestStatsOverview() {
	s.Require().Equal(http.StatusCreated, s.registerDocument("a.pdf", "aaa", map[string]string{"category": "legal"}).Code)
	s.Require().Equal(http.StatusCreated, s.registerDocument("b.pdf", "bbb", map[string]string{"category": "tax"}).Code)

	body, contentType := s.multipartBody("x.pdf", "aaa", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/verify", body)
	req.Header.Set("Content-Type", contentType)
	s.Require().Equal(http.StatusOK, s.do(req).Code)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/documents/stats/overview", nil))
	s.Require().Equal(http.StatusOK, rec.Code)

	var stats statsResponse
	s.decode(rec, &stats)
	s.Equal(2, stats.TotalDocuments)
	s.Equal(1, stats.VerifiedDocuments)
	s.Equal(1, stats.TotalVerifications)
	s.Len(stats.Recent, 2)
	s.Require().NotNil(stats.Ledger)
	s.Equal(2, stats.Ledger.TotalRecords)
	s.Equal(s.chain.Network(), stats.Ledger.Network)
}

func (s *HandlerSuite) TestReconcileEndpointHealsOrphans() {
	d := digest.Compute([]byte("orphan"))
	_, err := s.chain.Register(context.Background(), d, ledger.EncodeMetadata(ledger.Envelope{
		FileName:    "orphan.pdf",
		SubmittedBy: "bob",
		SubmittedAt: time.Now().UTC(),
	}))
	s.Require().NoError(err)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil))
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp reconcileResponse
	s.decode(rec, &resp)
	s.Equal(int64(1), resp.Scanned)
	s.Equal(int64(1), resp.Healed)

	_, err = s.store.GetByDigest(context.Background(), d)
	s.NoError(err)
}

func (s *HandlerSuite) TestReconcileGuardedByAdminToken() {
	handler := NewHandler(Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registration: registration.NewService(registration.Config{Ledger: s.chain, Store: s.store}),
		Verification: verification.NewService(verification.Config{Ledger: s.chain, Store: s.store}),
		Store:        s.store,
		Reconciler:   reconcile.NewSweeper(reconcile.Config{Ledger: s.chain, Store: s.store}),
		AdminToken:   "sekrit",
	})
	router := NewRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/reconcile", nil)
	req.Header.Set("X-Admin-Token", "sekrit")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlerSuite) TestHealthz() {
	s.Equal(http.StatusOK, s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}
