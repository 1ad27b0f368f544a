package handlers_test

import (
	"net/http"
	"testing"

	"medimart/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestRoleGate(t *testing.T) {
	a := newTestApp(t)
	_, userTok := a.user(t, "shopper", domain.RoleUser)
	_, sellerTok := a.user(t, "seller", domain.RoleSeller)
	_, adminTok := a.user(t, "admin", domain.RoleAdmin)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/users", userTok, http.StatusForbidden},
		{http.MethodGet, "/api/users", sellerTok, http.StatusForbidden},
		{http.MethodGet, "/api/users", adminTok, http.StatusOK},
		{http.MethodGet, "/api/admin/stats", sellerTok, http.StatusForbidden},
		{http.MethodGet, "/api/admin/stats", adminTok, http.StatusOK},
		{http.MethodGet, "/api/seller/stats", sellerTok, http.StatusOK},
		{http.MethodGet, "/api/seller/stats", adminTok, http.StatusForbidden},
		{http.MethodGet, "/api/sellerpayments", userTok, http.StatusForbidden},
		{http.MethodGet, "/api/sellerpayments", sellerTok, http.StatusOK},
		{http.MethodGet, "/api/cart", userTok, http.StatusOK},
		{http.MethodGet, "/api/cart", sellerTok, http.StatusForbidden},
		{http.MethodGet, "/api/cart", adminTok, http.StatusForbidden},
		{http.MethodGet, "/api/banners/all", sellerTok, http.StatusForbidden},
	}
	for _, tc := range cases {
		resp, body := a.do(t, tc.method, tc.path, tc.token, nil)
		assert.Equal(t, tc.want, resp.StatusCode, "%s %s: %s", tc.method, tc.path, body)
		if tc.want == http.StatusForbidden {
			assert.Equal(t, "Forbidden: insufficient role", decode[map[string]any](t, body)["message"])
		}
	}
	assert.Contains(t, actions(a.logs), "access.denied.role")
}

func TestSellerCannotEditStrangersMedicine(t *testing.T) {
	a := newTestApp(t)
	_, ownerTok := a.user(t, "owner", domain.RoleSeller)
	_, otherTok := a.user(t, "other", domain.RoleSeller)

	resp, body := a.do(t, http.MethodPost, "/api/medicines", ownerTok, map[string]any{"name": "Napa", "price": "2.5"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	id := decode[domain.Product](t, body).ID

	resp, body = a.do(t, http.MethodPut, "/api/medicines/"+id, otherTok, map[string]any{"name": "Mine"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Medicine not found or not yours", decode[map[string]any](t, body)["message"])

	resp, _ = a.do(t, http.MethodDelete, "/api/medicines/"+id, otherTok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = a.do(t, http.MethodPut, "/api/medicines/"+id, ownerTok, map[string]any{"name": "Napa Extra"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "Napa Extra", decode[domain.Product](t, body).Name)
}

func TestPaymentsForOtherUserForbidden(t *testing.T) {
	a := newTestApp(t)
	buyer, _ := a.user(t, "buyer", domain.RoleUser)
	_, otherTok := a.user(t, "other", domain.RoleUser)
	_, adminTok := a.user(t, "admin", domain.RoleAdmin)

	resp, _ := a.do(t, http.MethodGet, "/api/users/payments/"+buyer.ID, otherTok, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = a.do(t, http.MethodGet, "/api/users/payments/"+buyer.ID, adminTok, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
