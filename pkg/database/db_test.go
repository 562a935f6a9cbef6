package database

import "testing"

func TestDSNPrefersURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "postgres://u:p@db:5432/rentdesk?sslmode=require"
	if got := cfg.DSN(); got != cfg.URL {
		t.Fatalf("expected URL to win, got %q", got)
	}
}

func TestDSNFromFields(t *testing.T) {
	cfg := DefaultConfig()
	want := "host=localhost port=5432 user=rentdesk password=dev dbname=rentdesk sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
}
