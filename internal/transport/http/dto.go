package httptransport

import (
	"time"

	"docproof/internal/index"
	"docproof/internal/ledger"
)

type documentResponse struct {
	Hash              string     `json:"hash"`
	LedgerRef         string     `json:"ledgerRef,omitempty"`
	FileName          string     `json:"fileName"`
	FileSize          int64      `json:"fileSize,omitempty"`
	FileType          string     `json:"fileType,omitempty"`
	UploadedBy        string     `json:"uploadedBy"`
	Description       string     `json:"description,omitempty"`
	Category          string     `json:"category"`
	Tags              []string   `json:"tags,omitempty"`
	TransactionRef    string     `json:"transactionRef"`
	Sequence          uint64     `json:"sequence,omitempty"`
	Network           string     `json:"network,omitempty"`
	Verified          bool       `json:"verified"`
	VerificationCount int        `json:"verificationCount"`
	LastVerifiedAt    *time.Time `json:"lastVerifiedAt,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
}

func toDocumentResponse(r *index.Record) *documentResponse {
	if r == nil {
		return nil
	}
	return &documentResponse{
		Hash:              string(r.Digest),
		LedgerRef:         r.LedgerRef,
		FileName:          r.FileName,
		FileSize:          r.Size,
		FileType:          r.ContentType,
		UploadedBy:        r.SubmittedBy,
		Description:       r.Description,
		Category:          string(r.Category),
		Tags:              r.Tags,
		TransactionRef:    r.TxRef,
		Sequence:          r.Sequence,
		Network:           r.Network,
		Verified:          r.Verified,
		VerificationCount: r.VerificationCount,
		LastVerifiedAt:    r.LastVerifiedAt,
		Status:            string(r.Status),
		CreatedAt:         r.CreatedAt,
	}
}

type transactionResponse struct {
	Ref      string `json:"ref"`
	Sequence uint64 `json:"sequence"`
	Network  string `json:"network"`
}

func toTransactionResponse(r *ledger.RegisterResult) *transactionResponse {
	if r == nil {
		return nil
	}
	return &transactionResponse{Ref: r.TxRef, Sequence: r.Sequence, Network: r.Network}
}

type registerResponse struct {
	Document    *documentResponse    `json:"document"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
}

type verifyRequest struct {
	Hash string `json:"hash"`
}

type verifyResponse struct {
	Verified   bool              `json:"verified"`
	Registered bool              `json:"registered"`
	Diverged   bool              `json:"diverged,omitempty"`
	Hash       string            `json:"hash"`
	Document   *documentResponse `json:"document,omitempty"`
	TxRef      string            `json:"transactionRef,omitempty"`
}

type listResponse struct {
	Documents []*documentResponse `json:"documents"`
	Total     int                 `json:"total"`
	Offset    int                 `json:"offset"`
	Limit     int                 `json:"limit"`
}

type statsResponse struct {
	TotalDocuments     int                  `json:"totalDocuments"`
	VerifiedDocuments  int                  `json:"verifiedDocuments"`
	TotalVerifications int                  `json:"totalVerifications"`
	ByCategory         []bucketResponse     `json:"byCategory"`
	ByStatus           []bucketResponse     `json:"byStatus"`
	Recent             []summaryResponse    `json:"recentDocuments"`
	Ledger             *ledgerStatsResponse `json:"ledger,omitempty"`
}

type ledgerStatsResponse struct {
	TotalRecords int    `json:"totalRecords"`
	Network      string `json:"network"`
}

type bucketResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type summaryResponse struct {
	Hash       string    `json:"hash"`
	FileName   string    `json:"fileName"`
	UploadedBy string    `json:"uploadedBy"`
	Verified   bool      `json:"verified"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toStatsResponse(s *index.Statistics) statsResponse {
	out := statsResponse{
		TotalDocuments:     s.TotalDocuments,
		VerifiedDocuments:  s.VerifiedDocuments,
		TotalVerifications: s.TotalVerifications,
		ByCategory:         make([]bucketResponse, 0, len(s.ByCategory)),
		ByStatus:           make([]bucketResponse, 0, len(s.ByStatus)),
		Recent:             make([]summaryResponse, 0, len(s.Recent)),
	}
	for _, b := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, bucketResponse{Key: string(b.Category), Count: b.Count})
	}
	for _, b := range s.ByStatus {
		out.ByStatus = append(out.ByStatus, bucketResponse{Key: string(b.Status), Count: b.Count})
	}
	for _, r := range s.Recent {
		out.Recent = append(out.Recent, summaryResponse{
			Hash:       string(r.Digest),
			FileName:   r.FileName,
			UploadedBy: r.SubmittedBy,
			Verified:   r.Verified,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out
}

type reconcileResponse struct {
	Scanned int64 `json:"scanned"`
	Missing int64 `json:"missing"`
	Healed  int64 `json:"healed"`
	Failed  int64 `json:"failed"`
}
