package ai

import (
	"strings"
	"testing"
)

func TestBuildRecipePrompt(t *testing.T) {
	prompt := BuildRecipePrompt([]string{"rice", "egg", "leftover chicken"})

	contains := []string{
		"<ROLE>",
		"<TASK>",
		"<GUIDELINES>",
		"<OUTPUT_FORMAT>",
		"EXACTLY 3 distinct recipes",
		"rice, egg, leftover chicken",
		"Easy, Medium, Hard",
		"at most 3 words",
		"salt, pepper, oil, garlic, soy sauce",
	}
	for _, s := range contains {
		if !strings.Contains(prompt, s) {
			t.Errorf("BuildRecipePrompt() did not contain expected string: %s", s)
		}
	}
}

func TestRecipeSchema(t *testing.T) {
	schema := RecipeSchema()
	if schema.Type != "array" || schema.Items == nil {
		t.Fatalf("expected array of objects, got %+v", schema)
	}

	item := schema.Items
	if len(item.Required) != 7 {
		t.Errorf("expected 7 required fields, got %d", len(item.Required))
	}
	for _, field := range item.Required {
		if _, ok := item.Properties[field]; !ok {
			t.Errorf("required field %q has no property", field)
		}
	}

	difficulty := item.Properties["difficulty"]
	if strings.Join(difficulty.Enum, "|") != "Easy|Medium|Hard" {
		t.Errorf("unexpected difficulty enum: %v", difficulty.Enum)
	}
	if item.Properties["instructions"].Items == nil {
		t.Error("instructions must be a list of strings")
	}
}

func TestBuildImagePrompt(t *testing.T) {
	got := BuildImagePrompt("Indonesian fried rice")
	want := "A delicious, professional, photorealistic food photograph of: Indonesian fried rice. Centered, high resolution, vibrant colors, appetizing, studio lighting."
	if got != want {
		t.Errorf("BuildImagePrompt() = %q, want %q", got, want)
	}
}

func TestBuildChatPrompt(t *testing.T) {
	prompt := BuildChatPrompt(`How do I keep "rice" fluffy?`)

	for _, s := range []string{"ChefAI", "friendly", "* first item", "**bold text**", "encouraging", `User question: "How do I keep \"rice\" fluffy?"`} {
		if !strings.Contains(prompt, s) {
			t.Errorf("BuildChatPrompt() did not contain expected string: %s", s)
		}
	}
}
