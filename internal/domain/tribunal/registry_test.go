package tribunal

import (
	"testing"
	"time"

	"github.com/vigiajus/vigiajus/internal/config"
	"github.com/vigiajus/vigiajus/internal/domain/cnj"
	"github.com/vigiajus/vigiajus/pkg/clock"
	"github.com/vigiajus/vigiajus/pkg/errors"
)

func newTestRegistry() *Registry {
	parser := cnj.NewParser(clock.NewMock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))
	return NewRegistry(parser)
}

func TestIdentifyKnownTribunal(t *testing.T) {
	r := newTestRegistry()

	ident, err := r.Identify("0000001-45.2024.8.26.0001")
	if err != nil {
		t.Fatalf("Identify() error: %v", err)
	}
	if ident.Tribunal == nil || ident.Tribunal.Code != "8.26" {
		t.Fatalf("tribunal = %+v", ident.Tribunal)
	}
	if ident.Tribunal.Name != "Tribunal de Justiça de São Paulo" {
		t.Errorf("name = %q", ident.Tribunal.Name)
	}
	if ident.Tribunal.Class != ClassState {
		t.Errorf("class = %q, want state", ident.Tribunal.Class)
	}
	if ident.Number == nil || ident.Number.Year != 2024 {
		t.Errorf("number = %+v", ident.Number)
	}
}

func TestIdentifyParseFailurePropagates(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Identify("0000001-00.2024.8.26.0001")
	if errors.GetCode(err) != errors.ErrCodeChecksumMismatch {
		t.Errorf("code = %v", errors.GetCode(err))
	}
}

func TestIdentifyInactiveTribunalReturnsConfig(t *testing.T) {
	r := newTestRegistry()
	inactive := false
	if _, err := r.UpdateConfig("8.26", ConfigPatch{IsActive: &inactive}); err != nil {
		t.Fatal(err)
	}

	ident, err := r.Identify("0000001-45.2024.8.26.0001")
	if errors.GetCode(err) != errors.ErrCodeTribunalUnavailable {
		t.Fatalf("code = %v", errors.GetCode(err))
	}
	// Config still populated for diagnostic display.
	if ident == nil || ident.Tribunal == nil || ident.Tribunal.Code != "8.26" {
		t.Errorf("ident = %+v", ident)
	}
}

func TestIdentifyUnknownCodeSuggestsSameSegment(t *testing.T) {
	r := newTestRegistry()
	// Trim São Paulo from the registry so the lookup misses.
	r.mu.Lock()
	delete(r.configs, "8.26")
	r.mu.Unlock()

	ident, err := r.Identify("0000001-45.2024.8.26.0001")
	if errors.GetCode(err) != errors.ErrCodeTribunalNotFound {
		t.Fatalf("code = %v", errors.GetCode(err))
	}
	if len(ident.Suggestions) != maxSuggestions {
		t.Fatalf("suggestions = %d, want %d", len(ident.Suggestions), maxSuggestions)
	}
	for _, s := range ident.Suggestions {
		if s.Segment != cnj.SegmentState {
			t.Errorf("suggestion %s from segment %d", s.Code, s.Segment)
		}
	}
}

func TestGetAllAndBySegment(t *testing.T) {
	r := newTestRegistry()

	all := r.GetAll()
	if len(all) == 0 {
		t.Fatal("empty registry")
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Code >= all[i].Code {
			t.Fatalf("GetAll not sorted: %s before %s", all[i-1].Code, all[i].Code)
		}
	}

	state := r.GetBySegment(cnj.SegmentState)
	if len(state) != 27 {
		t.Errorf("state tribunals = %d, want 27", len(state))
	}
	trfs := r.GetBySegment(cnj.SegmentFederal)
	if len(trfs) != 6 {
		t.Errorf("federal tribunals = %d, want 6", len(trfs))
	}
}

func TestUpdateConfigMergesPatch(t *testing.T) {
	r := newTestRegistry()
	endpoint := "https://esaj.tjsp.jus.br"
	updated, err := r.UpdateConfig("8.26", ConfigPatch{Endpoint: &endpoint})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Endpoint != endpoint {
		t.Errorf("endpoint = %q", updated.Endpoint)
	}
	// Untouched fields survive.
	if updated.Name != "Tribunal de Justiça de São Paulo" || !updated.IsActive {
		t.Errorf("patch clobbered other fields: %+v", updated)
	}

	if _, err := r.UpdateConfig("8.99", ConfigPatch{Endpoint: &endpoint}); errors.GetCode(err) != errors.ErrCodeTribunalNotFound {
		t.Errorf("unknown code error = %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := newTestRegistry()
	cfg, err := r.Get("8.26")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Name = "mutated"

	again, _ := r.Get("8.26")
	if again.Name == "mutated" {
		t.Error("Get exposed internal state")
	}
}

func TestBudgetResolver(t *testing.T) {
	r := newTestRegistry()
	cfg := config.RateLimitConfig{
		ClassBudgets: map[string]config.BudgetConfig{
			"state":    {RequestsPerMinute: 6, RequestsPerHour: 50, RequestsPerDay: 500, Cooldown: 15 * time.Minute},
			"superior": {RequestsPerMinute: 3, RequestsPerHour: 30, RequestsPerDay: 200, Cooldown: 30 * time.Minute},
		},
		Overrides: map[string]config.BudgetConfig{
			"8.26": {RequestsPerMinute: 2, RequestsPerHour: 20, RequestsPerDay: 100, Cooldown: 10 * time.Minute},
		},
	}
	resolver := NewBudgetResolver(r, cfg)

	if b := resolver.Resolve("8.26"); b.RequestsPerMinute != 2 {
		t.Errorf("override not applied: %+v", b)
	}
	if b := resolver.Resolve("8.19"); b.RequestsPerMinute != 6 {
		t.Errorf("class default not applied: %+v", b)
	}
	if b := resolver.Resolve("3.00"); b.RequestsPerMinute != 3 {
		t.Errorf("superior default not applied: %+v", b)
	}
	// Labor class has no configured budget, so the fallback applies.
	if b := resolver.Resolve("5.02"); b.RequestsPerMinute != fallbackBudget.RequestsPerMinute {
		t.Errorf("fallback not applied: %+v", b)
	}
}
