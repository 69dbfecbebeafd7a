package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/histoires/internal/transcript/numword"
	"github.com/MrWong99/histoires/internal/transcript/phonetic"
)

func newKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "key <text...>",
		Short: "Print the phonetic key of a French text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), phonetic.Key(strings.Join(args, " ")))
			return nil
		},
	}
}

func newNumberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "number <n | text...>",
		Short: "Spell a number in French, or read the number named by a text",
		Example: `  histoires number 71                    # soixante et onze
  histoires number quatre vingt dix-sept  # 97`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if n, err := strconv.Atoi(args[0]); err == nil {
					words, err := numword.ToWords(n)
					if err != nil {
						return err
					}
					forms, _ := numword.SpokenForms(n)
					fmt.Fprintln(out, words)
					for _, f := range forms {
						fmt.Fprintf(out, "  - %s\n", f)
					}
					return nil
				}
			}

			text := strings.Join(args, " ")
			n, ok := numword.Parse(text)
			if !ok {
				return fmt.Errorf("no number recognised in %q", text)
			}
			fmt.Fprintln(out, n)
			return nil
		},
	}
}
