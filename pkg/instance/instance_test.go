package instance

import "testing"

func TestGetIDPrecedence(t *testing.T) {
	t.Setenv("PRIMEFIT_INSTANCE_ID", "")
	t.Setenv("K_REVISION", "")
	t.Setenv("HOSTNAME", "")
	if got := GetID(); got != "local" {
		t.Fatalf("expected local fallback, got %q", got)
	}

	t.Setenv("HOSTNAME", "pod-1")
	if got := GetID(); got != "pod-1" {
		t.Fatalf("expected hostname, got %q", got)
	}

	t.Setenv("K_REVISION", "storefront-00042")
	if got := GetID(); got != "storefront-00042" {
		t.Fatalf("expected revision, got %q", got)
	}

	t.Setenv("PRIMEFIT_INSTANCE_ID", "api-a")
	if got := GetID(); got != "api-a" {
		t.Fatalf("expected explicit id, got %q", got)
	}
}
