package ai

import (
	"fmt"
	"strings"

	"github.com/socialchef/leftovers/internal/services/llm"
)

const (
	// RecipeTemperature is the sampling temperature for recipe suggestions.
	RecipeTemperature = 0.8
	// ChatTemperature is the sampling temperature for chef answers.
	ChatTemperature = 0.7

	// RecipeCount is the exact number of recipes every suggestion returns.
	RecipeCount = 3
)

const recipeRoleSection = `<ROLE>
You are an expert chef and food stylist who specializes in turning leftover ingredients into special dishes that look and sound delicious.
</ROLE>`

const recipeTaskSection = `<TASK>
Suggest EXACTLY %d distinct recipes that use the following main ingredients: %s.
</TASK>`

const recipeGuidelinesSection = `<GUIDELINES>
- Focus on recipes that are genuinely appetizing and practical to cook at home.
- Every recipe name must be unique and appealing.
- Build each recipe around the given ingredients. You may add common pantry staples (such as salt, pepper, oil, garlic, soy sauce) when a complete dish needs them.
- difficulty must be exactly one of: Easy, Medium, Hard.
- cookTime is a short human-readable estimate, for example "15 minutes".
- ingredients lists everything the recipe needs, one ingredient per entry.
- instructions lists the cooking steps in the order they are performed.
- imageKeywords is ONE short image search phrase IN ENGLISH (at most 3 words), specific enough to find a professional, delicious-looking photo on a stock photo site. Examples: "Indonesian fried rice", "chicken satay grilled", "beef rendang close up".
</GUIDELINES>`

const recipeOutputSection = `<OUTPUT_FORMAT>
Respond only with a JSON array of %d recipe objects. Each object has the fields recipeName, description, cookTime, difficulty, ingredients, instructions and imageKeywords. All fields are required and must not be empty.
</OUTPUT_FORMAT>`

// BuildRecipePrompt builds the suggestion prompt for a list of ingredients.
func BuildRecipePrompt(ingredients []string) string {
	var sb strings.Builder
	sb.WriteString(recipeRoleSection)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf(recipeTaskSection, RecipeCount, strings.Join(ingredients, ", ")))
	sb.WriteString("\n\n")
	sb.WriteString(recipeGuidelinesSection)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf(recipeOutputSection, RecipeCount))
	return sb.String()
}

// RecipeSchema is the structured output schema of BuildRecipePrompt.
func RecipeSchema() *llm.Schema {
	str := func(desc string) *llm.Schema { return &llm.Schema{Type: "string", Description: desc} }
	list := func(desc string) *llm.Schema {
		return &llm.Schema{Type: "array", Description: desc, Items: &llm.Schema{Type: "string"}}
	}

	return &llm.Schema{
		Type: "array",
		Items: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"recipeName":  str("An appealing, specific recipe name."),
				"description": str("A short, appetizing description of the dish."),
				"cookTime":    str(`Estimated cooking time, for example "15 minutes".`),
				"difficulty": {
					Type:        "string",
					Description: "Difficulty level of the recipe.",
					Enum:        []string{"Easy", "Medium", "Hard"},
				},
				"ingredients":   list("Ingredients the recipe needs."),
				"instructions":  list("Cooking steps in order."),
				"imageKeywords": str("One English image search phrase of at most 3 words."),
			},
			Required: []string{"recipeName", "description", "cookTime", "difficulty", "ingredients", "instructions", "imageKeywords"},
		},
	}
}

// BuildImagePrompt wraps image keywords into a food photography prompt.
func BuildImagePrompt(keywords string) string {
	return fmt.Sprintf("A delicious, professional, photorealistic food photograph of: %s. Centered, high resolution, vibrant colors, appetizing, studio lighting.", keywords)
}

const chatPersonaSection = `<ROLE>
You are ChefAI, a friendly, helpful and highly knowledgeable virtual culinary expert.
Your mission is to help users with everything related to cooking.
</ROLE>

<STYLE>
- Answer the user's question clearly, in a structured and easy to understand way.
- When useful, use markdown for lists (for example '* first item') or to emphasize important points (for example '**bold text**').
- Always keep a positive and encouraging persona.
</STYLE>`

// BuildChatPrompt wraps a user question in the ChefAI persona.
func BuildChatPrompt(question string) string {
	return fmt.Sprintf("%s\n\nUser question: %q", chatPersonaSection, question)
}
