package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ShopSmart/internal/app"
	"ShopSmart/internal/auth"
	"ShopSmart/internal/catalog"
	"ShopSmart/internal/checkout"
	"ShopSmart/internal/session"
)

const jwtSecret = "test-secret"

func newShopTS(t *testing.T) *httptest.Server {
	t.Helper()

	users := auth.NewMemStore()
	if err := auth.SeedUsers(context.Background(), users, auth.DemoSeedUsers(), zap.NewNop()); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	h := app.NewHandler(
		app.Deps{
			Log:       zap.NewNop(),
			Users:     users,
			Catalog:   catalog.NewMemStore(),
			Sessions:  session.NewMemStore(),
			Orders:    checkout.NewMemStore(),
			JWTSecret: jwtSecret,
		},
		app.HTTPDeps{
			Log:     zap.NewNop(),
			Service: "shop",
			// Registry: nil
		},
	)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

// newClient carries cookies so the session survives across requests.
func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func login(t *testing.T, c *http.Client, baseURL, username, password string) map[string]string {
	t.Helper()

	resp, raw := doJSON(t, c, http.MethodPost, baseURL+"/auth/login", map[string]any{
		"username": username,
		"password": password,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, string(raw))
	}

	var lr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &lr); err != nil {
		t.Fatalf("decode login: %v body=%s", err, string(raw))
	}
	if lr.AccessToken == "" {
		t.Fatalf("empty access_token")
	}
	return map[string]string{"Authorization": "Bearer " + lr.AccessToken}
}

func registerCustomer(t *testing.T, c *http.Client, baseURL, username string) map[string]string {
	t.Helper()

	resp, raw := doJSON(t, c, http.MethodPost, baseURL+"/auth/register", map[string]any{
		"username": username,
		"password": "password123",
	}, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", resp.StatusCode, string(raw))
	}

	return login(t, c, baseURL, username, "password123")
}

func checkoutForm() map[string]any {
	return map[string]any{
		"name":        "Ada Lovelace",
		"address":     "12 Analytical Row",
		"card_number": "4111 1111 1111 1111",
		"expiry_date": "04/27",
		"cvv":         "123",
	}
}

func TestShop_CartCheckoutFlow(t *testing.T) {
	ts := newShopTS(t)
	c := newClient(t)

	hdr := registerCustomer(t, c, ts.URL, "buyer1")

	// Seeded demo catalog: product 1 at 10.99, product 2 at 15.99.
	{
		for _, id := range []string{"1", "1", "2"} {
			resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/shop/cart/items/"+id, nil, hdr)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("add to cart status=%d body=%s", resp.StatusCode, string(raw))
			}
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/shop/cart", nil, hdr)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("view cart status=%d body=%s", resp.StatusCode, string(raw))
		}

		var cr struct {
			Items     []json.RawMessage `json:"items"`
			Total     string            `json:"total"`
			CartCount int               `json:"cart_count"`
		}
		if err := json.Unmarshal(raw, &cr); err != nil {
			t.Fatalf("decode cart: %v body=%s", err, string(raw))
		}
		if cr.CartCount != 3 {
			t.Fatalf("cart_count=%d want=3", cr.CartCount)
		}
		if len(cr.Items) != 2 {
			t.Fatalf("items=%d want=2", len(cr.Items))
		}
		if cr.Total != "37.97" {
			t.Fatalf("total=%s want=37.97", cr.Total)
		}
	}

	var orderID string
	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/shop/checkout", checkoutForm(), hdr)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("checkout status=%d body=%s", resp.StatusCode, string(raw))
		}

		var or struct {
			Order   checkout.Order `json:"order"`
			Message string         `json:"message"`
		}
		if err := json.Unmarshal(raw, &or); err != nil {
			t.Fatalf("decode checkout: %v body=%s", err, string(raw))
		}
		if or.Order.ID == "" {
			t.Fatalf("empty order id")
		}
		if or.Order.MaskedCard != "**** **** **** 1111" {
			t.Fatalf("masked_card=%s", or.Order.MaskedCard)
		}
		if !strings.HasPrefix(or.Message, "Checkout completed successfully!") {
			t.Fatalf("message=%q", or.Message)
		}
		orderID = or.Order.ID
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/shop/orders/"+orderID, nil, hdr)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("get order status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	// The checkout consumed the cart.
	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/shop/cart", nil, hdr)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("view cart status=%d body=%s", resp.StatusCode, string(raw))
		}

		var cr struct {
			CartCount int `json:"cart_count"`
		}
		if err := json.Unmarshal(raw, &cr); err != nil {
			t.Fatalf("decode cart: %v", err)
		}
		if cr.CartCount != 0 {
			t.Fatalf("cart_count=%d want=0 after checkout", cr.CartCount)
		}
	}
}

func TestShop_CheckoutValidationReportsEveryError(t *testing.T) {
	ts := newShopTS(t)
	c := newClient(t)

	hdr := registerCustomer(t, c, ts.URL, "buyer2")

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/shop/cart/items/1", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart status=%d body=%s", resp.StatusCode, string(raw))
	}

	resp, raw = doJSON(t, c, http.MethodPost, ts.URL+"/shop/checkout", map[string]any{
		"name": "Ada Lovelace",
	}, hdr)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("checkout status=%d body=%s", resp.StatusCode, string(raw))
	}

	var er struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &er); err != nil {
		t.Fatalf("decode errors: %v body=%s", err, string(raw))
	}
	if len(er.Errors) != 4 {
		t.Fatalf("errors=%v want 4 entries", er.Errors)
	}

	// The failed attempt must not consume the cart.
	resp, raw = doJSON(t, c, http.MethodGet, ts.URL+"/shop/cart", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view cart status=%d", resp.StatusCode)
	}
	var cr struct {
		CartCount int `json:"cart_count"`
	}
	if err := json.Unmarshal(raw, &cr); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if cr.CartCount != 1 {
		t.Fatalf("cart_count=%d want=1", cr.CartCount)
	}
}

func TestShop_BuyNowLeavesCartAlone(t *testing.T) {
	ts := newShopTS(t)
	c := newClient(t)

	hdr := registerCustomer(t, c, ts.URL, "buyer3")

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/shop/cart/items/1", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add to cart status=%d body=%s", resp.StatusCode, string(raw))
	}

	resp, raw = doJSON(t, c, http.MethodPost, ts.URL+"/shop/buy-now/2", nil, hdr)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("buy-now status=%d body=%s", resp.StatusCode, string(raw))
	}

	resp, raw = doJSON(t, c, http.MethodPost, ts.URL+"/shop/buy-now/checkout", map[string]any{
		"checkout_type": "quick",
	}, hdr)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("quick checkout status=%d body=%s", resp.StatusCode, string(raw))
	}

	var or struct {
		Order   checkout.Order `json:"order"`
		Message string         `json:"message"`
	}
	if err := json.Unmarshal(raw, &or); err != nil {
		t.Fatalf("decode checkout: %v body=%s", err, string(raw))
	}
	if or.Order.Status != checkout.StatusQuickPurchase {
		t.Fatalf("status=%s", or.Order.Status)
	}
	if !strings.HasPrefix(or.Message, "Quick purchase completed successfully!") {
		t.Fatalf("message=%q", or.Message)
	}

	// The multi-item cart survives a buy-now purchase.
	resp, raw = doJSON(t, c, http.MethodGet, ts.URL+"/shop/cart", nil, hdr)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view cart status=%d", resp.StatusCode)
	}
	var cr struct {
		CartCount int `json:"cart_count"`
	}
	if err := json.Unmarshal(raw, &cr); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if cr.CartCount != 1 {
		t.Fatalf("cart_count=%d want=1", cr.CartCount)
	}

	// The slot is consumed.
	resp, _ = doJSON(t, c, http.MethodGet, ts.URL+"/shop/buy-now", nil, hdr)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("buy-now view status=%d want=404", resp.StatusCode)
	}
}

func TestShop_EmptyCartCheckoutConflicts(t *testing.T) {
	ts := newShopTS(t)
	c := newClient(t)

	hdr := registerCustomer(t, c, ts.URL, "buyer4")

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/shop/checkout", checkoutForm(), hdr)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestShop_CartRequiresAuth(t *testing.T) {
	ts := newShopTS(t)
	c := newClient(t)

	resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/shop/cart", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestShop_CatalogPaginationAndSearch(t *testing.T) {
	ts := newShopTS(t)
	c := newClient(t)

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products?page=99", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list status=%d body=%s", resp.StatusCode, string(raw))
		}

		var lr struct {
			Products []catalog.Product `json:"products"`
			Meta     catalog.PageMeta  `json:"meta"`
		}
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode list: %v body=%s", err, string(raw))
		}
		if lr.Meta.Page != 1 {
			t.Fatalf("page=%d want=1 (clamped)", lr.Meta.Page)
		}
		if lr.Meta.TotalItems != len(lr.Products) {
			t.Fatalf("total_items=%d products=%d", lr.Meta.TotalItems, len(lr.Products))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products?q=SELLER+1", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("search status=%d body=%s", resp.StatusCode, string(raw))
		}

		var lr struct {
			Products []catalog.Product `json:"products"`
			Meta     catalog.PageMeta  `json:"meta"`
		}
		if err := json.Unmarshal(raw, &lr); err != nil {
			t.Fatalf("decode search: %v body=%s", err, string(raw))
		}
		if len(lr.Products) != 2 {
			t.Fatalf("products=%d want=2", len(lr.Products))
		}
		if lr.Meta.TotalItems != 2 {
			t.Fatalf("total_items=%d want=2", lr.Meta.TotalItems)
		}
		for _, p := range lr.Products {
			if !strings.Contains(strings.ToLower(p.Description), "seller 1") {
				t.Fatalf("product %d does not match query", p.ID)
			}
		}
	}
}

func TestShop_RoleGates(t *testing.T) {
	ts := newShopTS(t)
	c := newClient(t)

	customer := registerCustomer(t, c, ts.URL, "buyer5")
	admin := login(t, newClient(t), ts.URL, "admin", "admin123")
	seller := login(t, newClient(t), ts.URL, "seller1", "seller123")

	// A customer cannot reach the dashboards.
	for _, path := range []string{"/admin/products", "/seller/products"} {
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+path, map[string]any{
			"code": "X1", "description": "nope", "price": "1.00",
		}, customer)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("%s status=%d body=%s", path, resp.StatusCode, string(raw))
		}
	}

	var createdID int
	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/admin/products", map[string]any{
			"code": "P9999", "description": "Admin Special", "price": "99.50",
		}, admin)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("admin create status=%d body=%s", resp.StatusCode, string(raw))
		}

		var p catalog.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Fatalf("decode product: %v body=%s", err, string(raw))
		}
		if p.ID == 0 {
			t.Fatalf("empty product id")
		}
		createdID = p.ID
	}

	// Sellers only touch their own listings; the admin's product is
	// invisible to them.
	{
		resp, raw := doJSON(t, c, http.MethodDelete, ts.URL+"/seller/products/"+strconv.Itoa(createdID), nil, seller)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("seller delete status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/seller/products", nil, seller)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("seller list status=%d body=%s", resp.StatusCode, string(raw))
		}

		var products []catalog.Product
		if err := json.Unmarshal(raw, &products); err != nil {
			t.Fatalf("decode seller list: %v body=%s", err, string(raw))
		}
		for _, p := range products {
			if p.Seller != "seller1" {
				t.Fatalf("foreign product %d (seller=%s) in seller1's list", p.ID, p.Seller)
			}
		}
	}
}

