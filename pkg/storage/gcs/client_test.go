package gcs

import (
	"context"
	"strings"
	"testing"
)

func TestPublicURLEscapesSegments(t *testing.T) {
	got := PublicURL("https://cdn.example.com/", "primefit-produtos", "/novo/1700000000000-whey protein.webp")
	want := "https://cdn.example.com/primefit-produtos/novo/1700000000000-whey%20protein.webp"
	if got != want {
		t.Fatalf("PublicURL = %q, want %q", got, want)
	}
}

func TestPublicURLDefaultsBase(t *testing.T) {
	got := PublicURL("", "bucket", "p/a.png")
	if got != "https://storage.googleapis.com/bucket/p/a.png" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	var c *Client
	if _, err := c.Upload(context.Background(), Object{Path: "a", Body: strings.NewReader("x")}); err == nil {
		t.Fatalf("expected upload error on nil client")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on nil client")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if c.DefaultBucket() != "" {
		t.Fatalf("nil client has no bucket")
	}
}
