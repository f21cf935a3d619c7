package agents

import (
	"github.com/bububa/calorielens/components/systemprompt"
	"github.com/bububa/calorielens/components/systemprompt/cot"
)

// HintTitle title of the context section carrying the user hint
const HintTitle = "User hint"

// NutritionPrompt returns the system prompt generator used to estimate calories and macros from a meal photo
func NutritionPrompt() *cot.Generator {
	return cot.New(
		cot.WithBackground([]string{
			"- You are a nutrition expert estimating calories and macros from a meal photo.",
		}),
		cot.WithSteps([]string{
			"1. Look at the image and identify each visible food or drink item that a person would reasonably eat or drink.",
			"2. For each item, estimate a realistic portion size in grams.",
			"3. Using typical nutritional values, estimate for EACH item: calories (kcal), protein (g), carbohydrates (g), fat (g).",
			"4. Compute totals by summing over all items.",
			"5. For each item, provide a brief, high-level explanation of the key assumptions.",
			"6. If something is uncertain, make a reasonable assumption and mention it briefly in the explanation or in the overall notes.",
		}),
		cot.WithOutputInstructs([]string{
			"- Keep explanations concise (no long step-by-step reasoning).",
			"- Use ONLY the provided JSON schema; do not add extra fields.",
			"- If you are unsure about an exact value, pick a reasonable estimate rather than leaving it empty.",
		}),
		cot.WithJSONOutput(),
	)
}

// QueryPrompt returns the system prompt generator describing the meal as a nutrition database query
func QueryPrompt() *cot.Generator {
	return cot.New(
		cot.WithBackground([]string{
			"- You are helping to estimate calories via the CalorieNinjas API.",
		}),
		cot.WithSteps([]string{
			"1. Look at this image and identify all visible food and drinks.",
			"2. Write a single English sentence that could be used as the `query` parameter for CalorieNinjas, including approximate but realistic quantities and units.",
		}),
		cot.WithOutputInstructs([]string{
			"- ONLY output the query sentence.",
			"- Do NOT add explanations, labels, bullets, or extra text.",
			"- Do NOT include newlines.",
		}),
		cot.WithContextProviders(systemprompt.NewStaticContext("Examples of valid outputs", `- "2 scrambled eggs and 1 slice of white toast and 1 tablespoon butter"
- "1 medium cheeseburger and 1 small serving of french fries and 1 can of cola"`)),
	)
}

func hintContext(hint string) []systemprompt.ContextProvider {
	if hint == "" {
		return nil
	}
	return []systemprompt.ContextProvider{systemprompt.NewStaticContext(HintTitle, hint)}
}
