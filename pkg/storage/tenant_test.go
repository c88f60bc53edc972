package storage

import (
	"context"
	"testing"
)

func TestTenantContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := GetTenant(ctx); got != "" {
		t.Errorf("empty context: tenant = %q, want empty", got)
	}

	ctx = SetTenant(ctx, "rest-1")
	if got := GetTenant(ctx); got != "rest-1" {
		t.Errorf("tenant = %q, want rest-1", got)
	}

	// Overwriting replaces, derived contexts inherit.
	inner := SetTenant(ctx, "rest-2")
	if got := GetTenant(inner); got != "rest-2" {
		t.Errorf("overwritten tenant = %q, want rest-2", got)
	}
	if got := GetTenant(ctx); got != "rest-1" {
		t.Errorf("parent context mutated: tenant = %q", got)
	}
}
