package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestAssetsCommand(t *testing.T) {
	out, err := runCommand(t, "assets", "--config", filepath.Join("..", "..", "configs", "intents.json"))
	if err != nil {
		t.Fatalf("assets: %v\n%s", err, out)
	}
	for _, want := range []string{"SYMBOL", "nep141:btc.omft.near", "nep141:wrap.near", "24"} {
		if !strings.Contains(out, want) {
			t.Fatalf("assets output missing %q:\n%s", want, out)
		}
	}
}

func TestAssetsCommandRejectsBrokenCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "assets.yaml", "assets:\n  usdc:\n    contract: usdc.near\n    decimals: 8\n")
	cfg := writeFile(t, dir, "intents.json", `{"assets":{"catalog_path":"assets.yaml"}}`)

	if _, err := runCommand(t, "assets", "--config", cfg); err == nil {
		t.Fatalf("expected decimals mismatch to fail")
	}
}

func TestQuoteCommand(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":[{"amount_in":"10000000","amount_out":"15234","quote_hash":"hash-1","expiration_time":"2026-10-18T12:00:00.000Z"}]}`, req.ID)
	}))
	defer relay.Close()

	dir := t.TempDir()
	cfg := writeFile(t, dir, "intents.json", fmt.Sprintf(`{"relay":{"url":%q}}`, relay.URL))

	out, err := runCommand(t, "quote", "--config", cfg, "--amount", "10")
	if err != nil {
		t.Fatalf("quote: %v\n%s", err, out)
	}
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("quote output is not JSON: %v\n%s", err, out)
	}
	if result["amountOut"] != "0.00015234" || result["quoteHash"] != "hash-1" {
		t.Fatalf("unexpected quote: %v", result)
	}
}

func TestQuoteCommandRequiresAmount(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "intents.json", `{"relay":{"url":"http://127.0.0.1:1/rpc"}}`)

	out, err := runCommand(t, "quote", "--config", cfg)
	if err == nil {
		t.Fatalf("expected missing amount to fail")
	}
	if !strings.Contains(out, "amount is required") {
		t.Fatalf("unexpected output: %s", out)
	}
}
