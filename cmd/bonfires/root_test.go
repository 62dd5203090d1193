package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v (stderr: %s)", err, stderr.String())
	}
	return stdout.String(), stderr.String()
}

func TestCLI(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /bonfires", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"bf1","name":"Boulder"},{"id":"bf2","name":"Denver"}]`))
	})
	mux.HandleFunc("GET /bonfires/{id}/graph", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nodes":[{"uuid":"n:a","name":"Alice"}]}`))
	})
	mux.HandleFunc("GET /bonfires/{id}/graph/expand", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"nodes":[{"uuid":"b","name":"Bob"}],"edges":[{"source":"a","target":"b"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, errOut := runCLI(t, "list", "--api-url", srv.URL, "--stats")
	if out != "bf1\tBoulder\nbf2\tDenver\n" {
		t.Fatalf("unexpected list output %q", out)
	}
	if !strings.Contains(errOut, "0 hits, 1 misses") {
		t.Fatalf("expected cache stats on stderr, got %q", errOut)
	}

	out, _ = runCLI(t, "graph", "bf1", "--api-url", srv.URL, "--expand", "n:a", "--stats=false")
	for _, want := range []string{`"uuid": "a"`, `"uuid": "b"`, `"type": "related_to"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in graph output, got %s", want, out)
		}
	}
}
