package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/wyvernpos/pos-services/internal/possvc/store"
)

func urlParam(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(urlParam(r, "id"), 10, 64)
	if err != nil {
		h.CreateResponse(w, Response{Code: http.StatusBadRequest, Error: "invalid user id"})
		return 0, false
	}
	return id, true
}

type registerReq struct {
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Tag            string          `json:"tag"`
	DiscountRate   decimal.Decimal `json:"discount_rate"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.ledger.RegisterUser(r.Context(), store.RegisterParams{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Tag:            req.Tag,
		DiscountRate:   req.DiscountRate,
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "user registered", Code: http.StatusCreated, Data: user})
}

func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.ledger.ListUsers(r.Context())
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: users})
}

func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.ledger.GetUserByID(r.Context(), id)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: user})
}

type updateUserReq struct {
	Name         *string          `json:"name,omitempty"`
	Phone        *string          `json:"phone,omitempty"`
	Email        *string          `json:"email,omitempty"`
	DiscountRate *decimal.Decimal `json:"discount_rate,omitempty"`
}

func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req updateUserReq
	if !h.decode(w, r, &req) {
		return
	}

	err := h.ledger.UpdateUser(r.Context(), id, store.UserUpdate{
		Name:         req.Name,
		Phone:        req.Phone,
		Email:        req.Email,
		DiscountRate: req.DiscountRate,
	})
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "user updated", Code: http.StatusOK})
}

func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.DeleteUser(r.Context(), id); err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "user deleted", Code: http.StatusOK})
}

type loadMoneyReq struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) LoadMoneyHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req loadMoneyReq
	if !h.decode(w, r, &req) {
		return
	}

	newBalance, err := h.ledger.LoadMoney(r.Context(), id, req.Amount)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{
		Message: "balance loaded",
		Code:    http.StatusOK,
		Data:    map[string]string{"new_balance": newBalance.StringFixed(2)},
	})
}

func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.ledger.History(r.Context(), id, limit)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: history})
}

// AuditBalanceHandler returns the balance recomputed from the transaction
// rows, for audit display next to the stored balance.
func (h *Handler) AuditBalanceHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	sum, err := h.ledger.AuditedBalance(r.Context(), id)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{
		Code: http.StatusOK,
		Data: map[string]string{"audited_balance": sum.StringFixed(2)},
	})
}

type tagReq struct {
	Tag string `json:"tag"`
}

func (h *Handler) AddTagHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req tagReq
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.ledger.AddTag(r.Context(), id, req.Tag); err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "rfid tag added", Code: http.StatusCreated})
}

func (h *Handler) RemoveTagHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.ledger.RemoveTag(r.Context(), id, urlParam(r, "tag")); err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "rfid tag removed", Code: http.StatusOK})
}

func (h *Handler) ListTagsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	tags, err := h.ledger.TagsForUser(r.Context(), id)
	if err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Code: http.StatusOK, Data: tags})
}

// WipeHandler resets every ledger table in one transaction. Operator
// tooling only; guarded by the admin JWT group.
func (h *Handler) WipeHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.WipeAll(r.Context()); err != nil {
		h.errorResponse(w, err)
		return
	}
	h.CreateResponse(w, Response{Message: "all ledger data cleared", Code: http.StatusOK})
}
