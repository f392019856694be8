package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/domain/recipe"
)

var (
	genFeedback    string
	genIngredients []string
	genMethod      string
	genUtensil     string
	genLanguage    string
	genSave        bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <base recipe name>",
	Short: "Generate a set of recipe variants",
	Long: `Generate asks the configured backend for a set of variants of a base recipe.

Examples:
  evolvectl generate "Bolo de cenoura"
  evolvectl generate "Lasagna" --feedback "less cheese" --language en --save`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genFeedback, "feedback", "f", "", "Free-form feedback on the previous attempt")
	generateCmd.Flags().StringArrayVarP(&genIngredients, "ingredient", "i", nil, "Ingredient to include (repeatable)")
	generateCmd.Flags().StringVar(&genMethod, "method", string(generation.MethodStove), "Cooking method")
	generateCmd.Flags().StringVar(&genUtensil, "utensil", string(generation.UtensilPot), "Main utensil")
	generateCmd.Flags().StringVarP(&genLanguage, "language", "l", string(generation.DefaultLanguage), "Output language code")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "Save every generated variant to the notebook")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	params := generation.Params{
		BaseName:      strings.Join(args, " "),
		Feedback:      genFeedback,
		Ingredients:   genIngredients,
		CookingMethod: generation.CookingMethod(genMethod),
		Utensil:       generation.Utensil(genUtensil),
		Language:      generation.Language(genLanguage),
	}

	return withServices(cmd.Context(), func(svc services) error {
		variants, err := svc.Evolution.Evolve(cmd.Context(), params)
		if err != nil {
			return err
		}

		if genSave {
			for i, v := range variants {
				saved, err := svc.Evolution.Save(cmd.Context(), v.ID)
				if err != nil {
					return fmt.Errorf("save %q: %w", v.Name, err)
				}
				variants[i] = saved
			}
		}

		if jsonOutput {
			return printJSON(variants)
		}
		for _, v := range variants {
			printVariant(v)
		}
		return nil
	})
}

func printVariant(v recipe.Variant) {
	fmt.Printf("%s  %s\n", v.ID, v.Name)
	fmt.Printf("  %s · %s · %s · %s\n", v.MealType, v.Difficulty, v.EstimatedMinutes, v.VariationFocus)
	if v.ChangesSummary != "" {
		fmt.Printf("  %s\n", v.ChangesSummary)
	}
	for _, ing := range v.Ingredients {
		fmt.Printf("  - %s\n", ing)
	}
	for i, step := range v.Steps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	for _, tip := range v.SafetyTips {
		fmt.Printf("  ! %s\n", tip)
	}
	fmt.Println()
}
