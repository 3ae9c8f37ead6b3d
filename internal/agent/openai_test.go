package agent

import "testing"

func TestNewOpenAICompleter_ModelDefaulting(t *testing.T) {
	if _, err := NewOpenAICompleter("", "gpt-4o", 0); err == nil {
		t.Fatal("expected error for missing API key")
	}

	c, err := NewOpenAICompleter("test-key", "", 0.2)
	if err != nil {
		t.Fatalf("NewOpenAICompleter: %v", err)
	}
	if c.model != defaultChatModel {
		t.Fatalf("model = %q, want %q", c.model, defaultChatModel)
	}

	c, err = NewOpenAICompleter("test-key", "gpt-4o", 0.2)
	if err != nil {
		t.Fatalf("NewOpenAICompleter: %v", err)
	}
	if c.model != "gpt-4o" {
		t.Fatalf("model = %q, want explicit override", c.model)
	}
}
