package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyvernpos/pos-services/internal/possvc/models"
	"github.com/wyvernpos/pos-services/internal/possvc/service"
	"github.com/wyvernpos/pos-services/internal/possvc/store"
	"github.com/wyvernpos/pos-services/internal/report"
	"github.com/wyvernpos/pos-services/internal/saleslog"
)

// stubLedger serves the public checkout routes: one wallet, one tag.
type stubLedger struct {
	user models.User
	tag  string
	txs  []models.LedgerTransaction
}

func (s *stubLedger) RegisterUser(ctx context.Context, p store.RegisterParams) (models.User, error) {
	return models.User{}, errors.New("not supported")
}

func (s *stubLedger) GetUserByTag(ctx context.Context, tag string) (models.User, error) {
	if tag != s.tag {
		return models.User{}, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubLedger) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	if id != s.user.ID {
		return models.User{}, store.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubLedger) UpdateUser(ctx context.Context, id int64, upd store.UserUpdate) error {
	return nil
}
func (s *stubLedger) DeleteUser(ctx context.Context, id int64) error    { return nil }
func (s *stubLedger) ListUsers(ctx context.Context) ([]models.User, error) {
	return []models.User{s.user}, nil
}

func (s *stubLedger) ApplyDelta(ctx context.Context, userID int64, amount decimal.Decimal, txType, description string) (decimal.Decimal, error) {
	s.user.Balance = s.user.Balance.Add(amount)
	s.txs = append(s.txs, models.LedgerTransaction{
		UserID: userID, Amount: amount, Type: txType, Description: description,
	})
	return s.user.Balance, nil
}

func (s *stubLedger) AddTag(ctx context.Context, userID int64, tag string) error    { return nil }
func (s *stubLedger) RemoveTag(ctx context.Context, userID int64, tag string) error { return nil }
func (s *stubLedger) TagsForUser(ctx context.Context, userID int64) ([]models.RFIDTag, error) {
	return []models.RFIDTag{{UserID: s.user.ID, RFID: s.tag}}, nil
}

func (s *stubLedger) History(ctx context.Context, userID int64, limit int) ([]models.LedgerTransaction, error) {
	return s.txs, nil
}

func (s *stubLedger) AuditedBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.user.Balance, nil
}

func (s *stubLedger) WipeAll(ctx context.Context) error { return nil }

var _ store.Ledger = (*stubLedger)(nil)

func newTestRouter(t *testing.T) (*chi.Mux, *stubLedger) {
	t.Helper()
	dir := t.TempDir()

	ledger := &stubLedger{
		user: models.User{
			ID:           1,
			Name:         "Thandi M",
			Balance:      decimal.RequireFromString("100.00"),
			DiscountRate: decimal.RequireFromString("10"),
		},
		tag: "TAG-001",
	}

	h := NewHandler(
		service.NewLedgerService(ledger),
		service.NewCheckoutService(ledger, saleslog.NewWriter(dir), nil),
		report.NewAggregator(dir),
	)
	h.InitAuth()

	r := chi.NewRouter()
	h.SetRoutes(r)
	return r, ledger
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCheckoutCashSale(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/checkout", map[string]interface{}{
		"method": "cash",
		"items": []map[string]string{
			{"name": "Hot Drinks > Coffee", "price": "25.00"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var rsp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, "cash", data["payment_method"])
	assert.Equal(t, "25.00", data["total_amount"])
}

func TestCheckoutWalletSale(t *testing.T) {
	r, ledger := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/checkout", map[string]interface{}{
		"method": "wyvern",
		"tag":    "TAG-001",
		"items": []map[string]string{
			{"name": "Hot Drinks > Coffee > Latte", "price": "50.00"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var rsp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, "wyvern_card_TAG-001", data["payment_method"])

	receipt := data["receipt"].(map[string]interface{})
	assert.Equal(t, "45", receipt["amount_due"])
	assert.True(t, ledger.user.Balance.Equal(decimal.RequireFromString("55.00")))
}

func TestCheckoutWalletInsufficientBalance(t *testing.T) {
	r, ledger := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/checkout", map[string]interface{}{
		"method": "wyvern",
		"tag":    "TAG-001",
		"items": []map[string]string{
			{"name": "Latte", "price": "1000.00"},
		},
	})
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var rsp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, "100.00", data["balance"])
	assert.Equal(t, "900.00", data["amount_due"])
	assert.Empty(t, ledger.txs)
}

func TestCheckoutUnknownTag(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/v1/checkout", map[string]interface{}{
		"method": "wyvern",
		"tag":    "NO-SUCH-TAG",
		"items": []map[string]string{
			{"name": "Latte", "price": "10.00"},
		},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckoutRejectsBadBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalanceCheck(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/v1/wallet/TAG-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rsp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	user := rsp.Data.(map[string]interface{})
	assert.Equal(t, "Thandi M", user["name"])
	assert.Equal(t, "100", user["balance"])
}

func TestBackOfficeRoutesRequireJWT(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/v1/users", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
