package llm

import "testing"

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"QUIZFORGE_LLM_PROVIDER",
		"QUIZFORGE_ANTHROPIC_API_KEY", "QUIZFORGE_ANTHROPIC_MODEL",
		"QUIZFORGE_OPENAI_API_KEY", "QUIZFORGE_OPENAI_MODEL", "QUIZFORGE_OPENAI_BASE_URL",
		"QUIZFORGE_GEMINI_API_KEY", "QUIZFORGE_GEMINI_MODEL",
		"QUIZFORGE_OPENROUTER_API_KEY", "QUIZFORGE_OPENROUTER_MODEL",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(v, "")
	}
}

func TestDiscoverConfigNoKeys(t *testing.T) {
	clearLLMEnv(t)
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected discovery to fail with no keys set")
	}
}

func TestDiscoverConfigBareKeyPriority(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-oai")

	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected discovery to succeed")
	}
	if cfg.Provider != "openai" {
		t.Errorf("provider = %q, want openai ahead of anthropic", cfg.Provider)
	}
	if cfg.OpenAI.APIKey != "sk-oai" {
		t.Errorf("api key = %q", cfg.OpenAI.APIKey)
	}
}

func TestDiscoverConfigAppliesModelOverride(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("QUIZFORGE_GEMINI_MODEL", "gemini-2.5-pro")

	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected discovery to succeed")
	}
	if cfg.Provider != "gemini" {
		t.Errorf("provider = %q", cfg.Provider)
	}
	if cfg.Gemini.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q, want the QUIZFORGE_GEMINI_MODEL override", cfg.Gemini.Model)
	}
}

func TestDiscoverConfigPrefixedKey(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("QUIZFORGE_OPENROUTER_API_KEY", "or-key")

	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected discovery to succeed")
	}
	if cfg.Provider != "openrouter" || cfg.OpenRouter.APIKey != "or-key" {
		t.Errorf("provider = %q, key = %q", cfg.Provider, cfg.OpenRouter.APIKey)
	}
}

func TestDiscoverConfigExplicitProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("QUIZFORGE_LLM_PROVIDER", "anthropic")
	t.Setenv("QUIZFORGE_ANTHROPIC_API_KEY", "a-key")

	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected discovery to succeed")
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("provider = %q, want the explicit selection", cfg.Provider)
	}
}

func TestDiscoverConfigExplicitProviderMissingKey(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("QUIZFORGE_LLM_PROVIDER", "anthropic")

	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected discovery to fail when the selected provider has no key")
	}
}
