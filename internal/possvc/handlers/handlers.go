package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"

	"github.com/wyvernpos/pos-services/internal/possvc/service"
	"github.com/wyvernpos/pos-services/internal/possvc/store"
	"github.com/wyvernpos/pos-services/internal/report"
	"github.com/wyvernpos/pos-services/internal/saleslog"
)

type Handler struct {
	tokenAuth  *jwtauth.JWTAuth
	ledger     *service.LedgerService
	checkout   *service.CheckoutService
	aggregator *report.Aggregator
}

func NewHandler(ledger *service.LedgerService, checkout *service.CheckoutService,
	aggregator *report.Aggregator) *Handler {
	return &Handler{
		ledger:     ledger,
		checkout:   checkout,
		aggregator: aggregator,
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) errorResponse(w http.ResponseWriter, err error) {
	var insufficient *service.InsufficientBalanceError

	switch {
	case errors.Is(err, store.ErrDuplicateTag):
		h.CreateResponse(w, Response{Code: http.StatusConflict, Error: err.Error()})
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrTagNotFound),
		errors.Is(err, service.ErrCardNotRegistered):
		h.CreateResponse(w, Response{Code: http.StatusNotFound, Error: err.Error()})
	case errors.As(err, &insufficient):
		h.CreateResponse(w, Response{
			Code:  http.StatusPaymentRequired,
			Error: err.Error(),
			Data: map[string]string{
				"balance":    insufficient.Balance.StringFixed(2),
				"amount_due": insufficient.Due.StringFixed(2),
			},
		})
	default:
		log.Errorf("request failed: %v", err)
		h.CreateResponse(w, Response{Code: http.StatusInternalServerError, Error: err.Error()})
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	rsp := Response{
		Message: "pos service is running at port " + os.Getenv("SERVICE_PORT"),
		Code:    200,
		Data:    nil,
	}
	json.NewEncoder(w).Encode(rsp)
}

type checkoutReq struct {
	Method string         `json:"method"` // cash | card | wyvern
	Tag    string         `json:"tag,omitempty"`
	Items  []saleslog.Item `json:"items"`
}

// CheckoutHandler completes one sale. Wallet checkouts run the full
// authorization protocol; a decline aborts with no funds moved and no log
// entry, and the operator must re-initiate.
func (h *Handler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if !h.decode(w, r, &req) {
		return
	}

	if req.Method == saleslog.MethodWyvern {
		receipt, rec, err := h.checkout.CompleteWalletSale(r.Context(), req.Tag, req.Items)
		if err != nil {
			h.errorResponse(w, err)
			return
		}
		h.CreateResponse(w, Response{
			Message: "payment completed",
			Code:    http.StatusOK,
			Data: map[string]interface{}{
				"receipt":        receipt,
				"timestamp":      rec.Timestamp.Format(saleslog.TimeLayout),
				"payment_method": rec.MethodKey(),
			},
		})
		return
	}

	rec, err := h.checkout.CompleteSale(req.Method, req.Items)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "sale recorded",
		Code:    http.StatusOK,
		Data: map[string]interface{}{
			"timestamp":      rec.Timestamp.Format(saleslog.TimeLayout),
			"payment_method": rec.MethodKey(),
			"total_amount":   rec.TotalAmount.StringFixed(2),
		},
	})
}

// BalanceCheckHandler lets the operator show a wallet before checkout.
func (h *Handler) BalanceCheckHandler(w http.ResponseWriter, r *http.Request) {
	tag := urlParam(r, "tag")

	user, err := h.ledger.GetUserByTag(r.Context(), tag)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: user})
}
