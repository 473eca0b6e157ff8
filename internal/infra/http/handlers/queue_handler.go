package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uslugar/lead-exchange/internal/entity"
	"github.com/uslugar/lead-exchange/internal/infra/http/middleware"
	"github.com/uslugar/lead-exchange/internal/usecase"
)

// QueueHandler exposes the distribution queue operations. Authn is
// upstream; the provider id arrives on the request and ownership is
// enforced by the lifecycle itself.
type QueueHandler struct {
	CreateQueue    *usecase.CreateQueueUseCase
	RespondToOffer *usecase.RespondToOfferUseCase
	QueueStatus    *usecase.GetQueueStatusUseCase
	Purchases      entity.LeadPurchaseRepositoryInterface
	DefaultLimit   int
	rateLimiter    *RateLimiter
}

func NewQueueHandler(
	createQueue *usecase.CreateQueueUseCase,
	respondToOffer *usecase.RespondToOfferUseCase,
	queueStatus *usecase.GetQueueStatusUseCase,
	purchases entity.LeadPurchaseRepositoryInterface,
	defaultLimit int,
) *QueueHandler {
	return &QueueHandler{
		CreateQueue:    createQueue,
		RespondToOffer: respondToOffer,
		QueueStatus:    queueStatus,
		Purchases:      purchases,
		DefaultLimit:   defaultLimit,
		rateLimiter:    NewRateLimiter(30, time.Minute),
	}
}

type createQueueRequest struct {
	Limit int `json:"limit,omitempty"`
}

type respondRequest struct {
	ProviderID string `json:"provider_id"`
	Response   string `json:"response"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *QueueHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	var req createQueueRequest
	if r.Body != nil {
		// body is optional; an empty or absent one means the default limit
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = h.DefaultLimit
	}

	entries, err := h.CreateQueue.Execute(r.Context(), leadID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.RecordQueueCreated()
	writeJSON(w, http.StatusCreated, entries)
}

func (h *QueueHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Message: "Too many requests. Please try again later.",
		})
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON"})
		return
	}
	if req.ProviderID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "provider_id is required"})
		return
	}

	result, err := h.RespondToOffer.Execute(r.Context(), leadID, req.ProviderID, entity.OfferResponse(req.Response))
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Accepted != nil {
		middleware.RecordLeadPurchase()
		middleware.RecordOfferResponse("accepted")
	} else {
		middleware.RecordOfferResponse("declined")
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *QueueHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	entries, err := h.QueueStatus.Execute(r.Context(), leadID)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []entity.QueueEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *QueueHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadId")

	purchase, err := h.Purchases.FindByLeadID(r.Context(), leadID)
	if err != nil {
		writeError(w, err)
		return
	}
	if purchase == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "lead has not been purchased"})
		return
	}

	writeJSON(w, http.StatusOK, purchase)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrInvalidResponse):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, usecase.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
	case errors.Is(err, usecase.ErrLeadNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrStaleOffer), errors.Is(err, usecase.ErrDuplicateQueue):
		status = http.StatusConflict
	case errors.Is(err, usecase.ErrNoEligibleCandidates):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, usecase.ErrLedgerUnavailable):
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Message: msg})
}
