package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alchemorsel/evolver/internal/domain/generation"
	"github.com/alchemorsel/evolver/internal/ports/inbound"
)

var safetyLanguage string

var imageCmd = &cobra.Command{
	Use:   "image <id>",
	Short: "Attach a generated image to a saved recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(svc services) error {
			res, err := svc.Enrichment.RequestImage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}
			state := "generated"
			if res.Cached {
				state = "cached"
			}
			fmt.Printf("%s: image %s (%d bytes of data URI)\n", res.Recipe.Name, state, len(res.Recipe.ImageURL))
			return nil
		})
	},
}

var safetyCmd = &cobra.Command{
	Use:   "safety <id>",
	Short: "Attach food safety tips to a saved recipe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(svc services) error {
			res, err := requestSafety(cmd.Context(), svc, args[0], generation.Language(safetyLanguage))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}
			if res.Fallback {
				fmt.Println("(backend unavailable, showing generic advice)")
			}
			for _, tip := range res.Recipe.SafetyTips {
				fmt.Printf("- %s\n", tip)
			}
			return nil
		})
	},
}

func init() {
	safetyCmd.Flags().StringVarP(&safetyLanguage, "language", "l", string(generation.DefaultLanguage), "Language of the tips")
}

// requestSafety selects lang before asking for tips, since each process
// starts from default parameters.
func requestSafety(ctx context.Context, svc services, id string, lang generation.Language) (inbound.SafetyResult, error) {
	if err := svc.Evolution.SetLanguage(lang); err != nil {
		return inbound.SafetyResult{}, err
	}
	return svc.Enrichment.RequestSafetyTips(ctx, id)
}
