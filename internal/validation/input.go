package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/socialchef/leftovers/internal/errors"
)

const (
	MaxIngredients      = 20
	MaxIngredientLength = 64
	MaxQuestionLength   = 2000
)

// EmptyIngredientsMessage is shown when nothing usable was submitted.
const EmptyIngredientsMessage = "Please add at least one ingredient."

// NormalizeIngredients trims entries, drops blanks and removes
// case-insensitive duplicates while keeping the first spelling and order.
func NormalizeIngredients(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))

	for _, item := range raw {
		item = strings.Join(strings.Fields(item), " ")
		if item == "" {
			continue
		}
		if len(item) > MaxIngredientLength {
			return nil, errors.NewValidationError(
				fmt.Sprintf("Ingredient %q is longer than %d characters.", truncate(item, 20), MaxIngredientLength),
				"INGREDIENT_TOO_LONG",
				"Use a shorter name for the ingredient.",
			)
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}

	if len(out) == 0 {
		return nil, errors.NewValidationError(EmptyIngredientsMessage, "NO_INGREDIENTS", "Add the ingredients you have left over.")
	}
	if len(out) > MaxIngredients {
		return nil, errors.NewValidationError(
			fmt.Sprintf("Too many ingredients: %d (max %d).", len(out), MaxIngredients),
			"TOO_MANY_INGREDIENTS",
			"Pick the main ingredients you want to use up.",
		)
	}
	return out, nil
}

// ValidateQuestion trims a chat question and enforces its bounds.
func ValidateQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", errors.NewValidationError("Please type a question.", "EMPTY_QUESTION", "")
	}
	if len(q) > MaxQuestionLength {
		return "", errors.NewValidationError(
			fmt.Sprintf("Question is longer than %d characters.", MaxQuestionLength),
			"QUESTION_TOO_LONG",
			"Shorten your question.",
		)
	}
	return q, nil
}

var placeholderPattern = regexp.MustCompile(`(?i)^(n/?a|none|null|unknown|not specified|tbd|todo|x+|-+|\.+|\[.*\]|<.*>)$`)

// DetectPlaceholders reports whether a generated field is blank or a
// placeholder value such as "N/A" or "[name]".
func DetectPlaceholders(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || placeholderPattern.MatchString(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
