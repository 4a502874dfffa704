package etherscan

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/defi-router/internal/apperror"
	"github.com/fd1az/defi-router/internal/logger"
)

const erc20ABI = `[{"constant":true,"inputs":[],"name":"totalSupply","outputs":[{"name":"","type":"uint256"}],"type":"function"},{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func testClient(t *testing.T, apiURL string) *Client {
	t.Helper()

	cfg := DefaultConfig("test-key")
	cfg.APIURL = apiURL
	cfg.RequestsPerSecond = 1000 // don't throttle tests

	client, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(client.Close)

	return client
}

func TestClient_ContractABI(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if got := r.URL.Query().Get("action"); got != "getabi" {
			t.Errorf("expected action=getabi, got %s", got)
		}

		json.NewEncoder(w).Encode(apiResponse{
			Status:  "1",
			Message: "OK",
			Result:  erc20ABI,
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	address := common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	parsed, err := client.ContractABI(ctx, address)
	if err != nil {
		t.Fatalf("ContractABI failed: %v", err)
	}

	if _, ok := parsed.Methods["balanceOf"]; !ok {
		t.Error("expected balanceOf in parsed ABI")
	}
	if len(parsed.Methods) != 2 {
		t.Errorf("expected 2 methods, got %d", len(parsed.Methods))
	}
}

func TestClient_ContractABI_Cached(t *testing.T) {
	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		json.NewEncoder(w).Encode(apiResponse{Status: "1", Message: "OK", Result: erc20ABI})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	ctx := context.Background()
	address := common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")

	if _, err := client.ContractABI(ctx, address); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := client.ContractABI(ctx, address); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if got := requests.Load(); got != 1 {
		t.Errorf("expected 1 upstream request, got %d", got)
	}
}

func TestClient_ContractABI_NotVerified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{
			Status:  "0",
			Message: "NOTOK",
			Result:  "Contract source code not verified",
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.ContractABI(context.Background(), common.HexToAddress("0x0000000000000000000000000000000000000001"))
	if err == nil {
		t.Fatal("expected error for unverified contract")
	}
	if !apperror.HasCode(err, apperror.CodeABINotFound) {
		t.Errorf("expected code %s, got %v", apperror.CodeABINotFound, err)
	}
}

func TestClient_ContractABI_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(apiResponse{Status: "1", Message: "OK", Result: "{not valid abi"})
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	_, err := client.ContractABI(context.Background(), common.HexToAddress("0x0000000000000000000000000000000000000002"))
	if err == nil {
		t.Fatal("expected error for malformed ABI")
	}
	if !apperror.HasCode(err, apperror.CodeABIMalformed) {
		t.Errorf("expected code %s, got %v", apperror.CodeABIMalformed, err)
	}
}
