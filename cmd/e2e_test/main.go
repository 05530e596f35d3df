package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	baseURL = "http://localhost:8080"
	client  *http.Client
)

func main() {
	_ = godotenv.Load()
	if v := os.Getenv("E2E_BASE_URL"); v != "" {
		baseURL = strings.TrimRight(v, "/")
	}
	password := os.Getenv("DASHBOARD_PASSWORD")
	if password == "" {
		log.Fatal("DASHBOARD_PASSWORD is required")
	}

	jar, _ := cookiejar.New(nil)
	// The session cookie is Secure; run the server with COOKIE_SECURE=false
	// when testing over plain http.
	client = &http.Client{
		Jar:     jar,
		Timeout: 30 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Gate
	checkEndpoint("GET", "/api/holdings", nil, 401)
	checkEndpoint("GET", "/api/auth/verify", nil, 401)
	checkEndpoint("POST", "/api/auth/login", map[string]string{"password": "definitely-wrong"}, 401)

	// 3. Login
	checkEndpoint("POST", "/api/auth/login", map[string]string{"password": password}, 200)
	checkEndpoint("GET", "/api/auth/verify", nil, 200)

	// 4. Holdings
	checkEndpoint("POST", "/api/holdings", map[string]string{"symbol": "e2e", "amount": "1.5"}, 200)
	checkEndpoint("PUT", "/api/holdings/E2E", map[string]string{"amount": "2"}, 200)
	checkEndpoint("GET", "/api/holdings", nil, 200)

	// 5. CSV export
	exported := checkEndpoint("GET", "/api/holdings/export", nil, 200)
	if !strings.HasPrefix(exported, "Symbol,Amount") {
		log.Fatalf("unexpected export: %q", exported)
	}

	// 6. Alerts
	alert := checkEndpoint("POST", "/api/alerts", map[string]string{"symbol": "BTC", "type": "price_above", "threshold": "1000000"}, 201)
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(alert), &created); err != nil {
		log.Fatalf("decode alert: %v", err)
	}
	checkEndpoint("POST", "/api/alerts/"+created.ID+"/toggle", nil, 200)
	checkEndpoint("DELETE", "/api/alerts/"+created.ID, nil, 200)

	// 7. Prices and portfolio
	checkEndpoint("GET", "/api/prices?symbols=BTC,ETH", nil, 200)
	checkEndpoint("GET", "/api/portfolio", nil, 200)
	checkEndpoint("GET", "/api/mapping", nil, 200)

	// 8. Cleanup
	checkEndpoint("DELETE", "/api/holdings/E2E", nil, 200)

	// 9. Logout
	checkEndpoint("POST", "/api/auth/logout", nil, 200)
	checkEndpoint("GET", "/api/auth/verify", nil, 401)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) string {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", truncate(string(respBody), 300))
	return string(respBody)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
