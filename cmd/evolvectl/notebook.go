package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var notebookCmd = &cobra.Command{
	Use:   "notebook",
	Short: "Inspect and curate saved recipes",
}

var notebookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved recipes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(svc services) error {
			saved := svc.Evolution.Notebook(cmd.Context())
			if jsonOutput {
				return printJSON(saved)
			}
			if len(saved) == 0 {
				fmt.Println("Notebook is empty")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tIMAGE\tTIPS")
			for _, v := range saved {
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\n", v.ID, v.Name, v.Category, v.HasImage(), len(v.SafetyTips))
			}
			return w.Flush()
		})
	},
}

var notebookRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a recipe from the notebook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(svc services) error {
			if err := svc.Evolution.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		})
	},
}

var notebookRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a saved recipe",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(cmd.Context(), func(svc services) error {
			v, err := svc.Evolution.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(v)
			}
			fmt.Printf("Renamed %s to %q\n", v.ID, v.Name)
			return nil
		})
	},
}

func init() {
	notebookCmd.AddCommand(notebookListCmd)
	notebookCmd.AddCommand(notebookRemoveCmd)
	notebookCmd.AddCommand(notebookRenameCmd)
}
