package app

import "testing"

func TestProcessorsOmitsDisabledAuditWriter(t *testing.T) {
	a := &AppContext{ProfileUpdater: &ProfileUpdater{}}
	if got := len(a.Processors()); got != 1 {
		t.Fatalf("expected 1 processor without audit storage, got %d", got)
	}

	a.AuditWriter = &AuditWriter{}
	if got := len(a.Processors()); got != 2 {
		t.Fatalf("expected 2 processors with audit storage, got %d", got)
	}
}
