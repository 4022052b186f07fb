// Command smoke-api runs an end-to-end exercise against a running wakil-api:
// signup, purchase, deduct, then verifies the balance adds up.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

func main() {
	base := os.Getenv("WAKIL_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 10 * time.Second}

	email := fmt.Sprintf("smoke-%d@example.test", rand.New(rand.NewSource(time.Now().UnixNano())).Int63())
	var session struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	mustCall(client, base, "POST", "/v1/users/signup", "", map[string]any{
		"email":    email,
		"password": "smoke-test-pass",
		"name":     "Smoke Test",
	}, http.StatusCreated, &session)
	log.Printf("signed up %s as %s", email, session.User.ID)

	var tx struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		PaymentID string `json:"payment_id"`
		Credits   int64  `json:"credits"`
	}
	mustCall(client, base, "POST", "/v1/credits/purchase", session.Token, map[string]any{
		"amount":  1_000,
		"credits": 50,
	}, http.StatusCreated, &tx)
	if tx.Status != "COMPLETED" {
		log.Fatalf("purchase did not settle: %+v", tx)
	}
	log.Printf("purchased 50 credits, transaction %s via %s", tx.ID, tx.PaymentID)

	var after struct {
		Balance int64 `json:"credits"`
	}
	mustCall(client, base, "POST", "/v1/credits/deduct", session.Token, map[string]any{
		"amount": 20,
		"reason": "smoke test consumption",
	}, http.StatusOK, &after)

	var balance struct {
		Balance int64 `json:"credits"`
	}
	mustCall(client, base, "GET", "/v1/credits/balance", session.Token, nil, http.StatusOK, &balance)

	if balance.Balance != 30 || after.Balance != 30 {
		log.Fatalf("credit conservation failed: deduct says %d, balance says %d, want 30",
			after.Balance, balance.Balance)
	}
	fmt.Println("smoke OK: 50 purchased - 20 consumed = 30 remaining")
}

func mustCall(client *http.Client, base, method, path, token string, body any, wantStatus int, out any) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			log.Fatalf("marshal %s body: %v", path, err)
		}
	}
	req, err := http.NewRequest(method, base+path, bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("build %s request: %v", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		log.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode %s response: %v", path, err)
		}
	}
}
