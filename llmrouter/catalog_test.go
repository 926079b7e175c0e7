package llmrouter

import "testing"

func TestGetModelInfo(t *testing.T) {
	// By exact ID.
	info := GetModelInfo("claude-opus-4-6")
	if info == nil {
		t.Fatal("expected to find claude-opus-4-6")
	}
	if info.Provider != "anthropic" {
		t.Errorf("expected provider %q, got %q", "anthropic", info.Provider)
	}
	if info.ContextWindow != 200000 {
		t.Errorf("expected context window 200000, got %d", info.ContextWindow)
	}

	// By alias.
	info = GetModelInfo("haiku")
	if info == nil {
		t.Fatal("expected to find model by alias 'haiku'")
	}
	if info.ID != "claude-haiku-4-5" {
		t.Errorf("expected id %q, got %q", "claude-haiku-4-5", info.ID)
	}

	// Unknown model.
	info = GetModelInfo("nonexistent-model")
	if info != nil {
		t.Errorf("expected nil for unknown model, got %v", info)
	}
}

func TestListModels(t *testing.T) {
	all := ListModels("")
	if len(all) != len(Models) {
		t.Errorf("expected %d models, got %d", len(Models), len(all))
	}

	anthropic := ListModels("anthropic")
	if len(anthropic) != 3 {
		t.Errorf("expected 3 Anthropic models, got %d", len(anthropic))
	}
	for _, m := range anthropic {
		if m.Provider != "anthropic" {
			t.Errorf("expected provider anthropic, got %q", m.Provider)
		}
	}

	empty := ListModels("nonexistent")
	if len(empty) != 0 {
		t.Errorf("expected 0 models for nonexistent provider, got %d", len(empty))
	}
}

func TestCombinedCost(t *testing.T) {
	m := ModelInfo{InputCostPerMillion: 1.25, OutputCostPerMillion: 5.0}
	if got := m.CombinedCost(); got != 6.25 {
		t.Errorf("expected combined cost 6.25, got %v", got)
	}
}

func TestModelInfoFields(t *testing.T) {
	for _, m := range Models {
		if m.ID == "" {
			t.Error("model ID must not be empty")
		}
		if m.Provider == "" {
			t.Errorf("model %q: provider must not be empty", m.ID)
		}
		if m.ContextWindow <= 0 {
			t.Errorf("model %q: context_window must be positive", m.ID)
		}
		if m.CombinedCost() <= 0 {
			t.Errorf("model %q: cost must be positive for cheap-fallback ranking", m.ID)
		}
	}
}
