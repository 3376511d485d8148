//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8080")

func TestSystem_E2E_WithDB(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	client := newCookieClient(t)

	username := fmt.Sprintf("user_%d_%d", time.Now().Unix(), rand.Intn(100000))
	pass := "password123!"

	doJSON(t, client, http.MethodPost, baseURL+"/auth/register", map[string]any{
		"username": username,
		"password": pass,
	}, nil, 201)

	var loginResp struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	doJSON(t, client, http.MethodPost, baseURL+"/auth/login", map[string]any{
		"username": username,
		"password": pass,
	}, &loginResp, 200)
	if loginResp.AccessToken == "" {
		t.Fatalf("empty access_token")
	}
	token := loginResp.AccessToken

	var listing struct {
		Products []struct {
			ID int `json:"id"`
		} `json:"products"`
	}
	doJSONAuth(t, client, http.MethodGet, baseURL+"/products", token, nil, &listing, 200)
	if len(listing.Products) == 0 {
		t.Fatalf("expected non-empty products")
	}
	pid := listing.Products[0].ID
	if pid == 0 {
		t.Fatalf("product id missing in response: %#v", listing.Products[0])
	}

	addURL := fmt.Sprintf("%s/shop/cart/items/%d", baseURL, pid)
	doJSONAuth(t, client, http.MethodPost, addURL, token, nil, nil, 200)
	doJSONAuth(t, client, http.MethodPost, addURL, token, nil, nil, 200)

	var cartResp struct {
		CartCount int `json:"cart_count"`
	}
	doJSONAuth(t, client, http.MethodGet, baseURL+"/shop/cart", token, nil, &cartResp, 200)
	if cartResp.CartCount != 2 {
		t.Fatalf("cart_count=%d want=2", cartResp.CartCount)
	}

	var checkoutResp struct {
		Order struct {
			ID string `json:"id"`
		} `json:"order"`
	}
	doJSONAuth(t, client, http.MethodPost, baseURL+"/shop/checkout", token, map[string]any{
		"name":        "E2E Buyer",
		"address":     "1 Test Street",
		"card_number": "4111111111111111",
		"expiry_date": "04/27",
		"cvv":         "123",
	}, &checkoutResp, 201)

	orderID := checkoutResp.Order.ID
	if orderID == "" {
		t.Fatalf("order id missing: %#v", checkoutResp)
	}

	var got map[string]any
	doJSONAuth(t, client, http.MethodGet, baseURL+"/shop/orders/"+orderID, token, nil, &got, 200)

	// Orders must survive a service restart once they are in Postgres.
	if os.Getenv("E2E_RESTART_SHOP") == "1" {
		restartShopContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")
		doJSONAuth(t, client, http.MethodGet, baseURL+"/shop/orders/"+orderID, token, nil, &got, 200)
	}
}

func newCookieClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, out any, want int) {
	t.Helper()
	doJSONAuth(t, client, method, url, "", body, out, want)
}

func doJSONAuth(t *testing.T, client *http.Client, method, url, token string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
