package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/academy"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog [file]",
		Short: "validate a quiz catalog and list its quizzes",
		Long:  "Without a file the built-in catalog is checked.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			c, err := academy.LoadCatalog(path)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "QUIZ\tTOPIC\tQUESTIONS\tPOINTS")
			for _, q := range c.QuizzesFor("") {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", q.ID, q.Topic, q.Questions, q.Points)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d topics, %d quizzes\n", len(c.Topics), c.QuizCount())
			return nil
		},
	}
	return cmd
}
