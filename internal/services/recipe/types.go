package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Difficulty is the closed set of recipe difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

var difficultyAliases = map[string]Difficulty{
	"easy":   DifficultyEasy,
	"medium": DifficultyMedium,
	"hard":   DifficultyHard,
	"mudah":  DifficultyEasy,
	"sedang": DifficultyMedium,
	"sulit":  DifficultyHard,
}

// ParseDifficulty maps a label to a Difficulty, ignoring case. The
// Indonesian labels Mudah, Sedang and Sulit are accepted as well.
func ParseDifficulty(s string) (Difficulty, error) {
	if d, ok := difficultyAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("invalid difficulty %q", s)
}

// UnmarshalJSON normalises the label and rejects anything outside the enum.
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDifficulty(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Recipe is one suggested dish. ImageURL is set by enrichment and holds
// either a URL or a data: URI.
type Recipe struct {
	RecipeName    string     `json:"recipeName"`
	Description   string     `json:"description"`
	CookTime      string     `json:"cookTime"`
	Difficulty    Difficulty `json:"difficulty"`
	Ingredients   []string   `json:"ingredients"`
	Instructions  []string   `json:"instructions"`
	ImageKeywords string     `json:"imageKeywords"`
	ImageURL      string     `json:"imageUrl,omitempty"`
}

// ShareText renders the recipe as plain text: name, bulleted ingredients
// and numbered steps.
func (r Recipe) ShareText() string {
	var sb strings.Builder
	sb.WriteString("Recipe: ")
	sb.WriteString(r.RecipeName)
	sb.WriteString("\n\nIngredients:\n")
	for _, ing := range r.Ingredients {
		sb.WriteString("- ")
		sb.WriteString(ing)
		sb.WriteString("\n")
	}
	sb.WriteString("\nInstructions:\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}
	return strings.TrimSpace(sb.String())
}
