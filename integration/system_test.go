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
	"os"
	"testing"
	"time"
)

var (
	baseURL   = getenv("E2E_BASE_URL", "http://localhost:8080")
	adminCode = getenv("E2E_ADMIN_CODE", "TITAN2024")
)

type product struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
}

type catalogResp struct {
	Products []product `json:"products"`
}

func TestSystem_E2E_CatalogSurvivesRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var verifyResp struct {
		Success     bool   `json:"success"`
		AccessToken string `json:"access_token"`
	}
	doJSON(t, http.MethodPost, baseURL+"/api/admin/verify", "", map[string]any{"code": adminCode}, &verifyResp, 200)
	if !verifyResp.Success || verifyResp.AccessToken == "" {
		t.Fatalf("verify failed: %+v", verifyResp)
	}

	title := fmt.Sprintf("E2E Whey %d %d", time.Now().Unix(), rand.Intn(100000))
	var created catalogResp
	doJSON(t, http.MethodPost, baseURL+"/api/admin/products", verifyResp.AccessToken, product{
		Title:       title,
		Description: "integration product",
		Price:       "$1.00",
		Category:    "protein",
	}, &created, 200)

	id := created.Products[len(created.Products)-1].ID
	if id == "" {
		t.Fatalf("id not assigned: %+v", created.Products)
	}
	t.Cleanup(func() {
		doJSON(t, http.MethodDelete, baseURL+"/api/admin/products/"+id, verifyResp.AccessToken, nil, nil, 200)
	})

	var verified struct {
		Genuine bool   `json:"genuine"`
		Title   string `json:"title"`
	}
	doJSON(t, http.MethodGet, baseURL+"/api/verify?code="+id, "", nil, &verified, 200)
	if !verified.Genuine || verified.Title != title {
		t.Fatalf("lookup: %+v", verified)
	}

	if os.Getenv("E2E_RESTART") == "1" {
		restartStorefront(t, ctx)
		doJSON(t, http.MethodGet, baseURL+"/api/products/"+id, "", nil, nil, 200)
	}
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

func doJSON(t *testing.T, method, url, token string, body any, out any, want int) {
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

	client := &http.Client{Timeout: 5 * time.Second}
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
