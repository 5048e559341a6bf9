package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-reader/internal/document"
)

func searchCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <pdf> <term>",
		Short: "Find every occurrence of a term, case-insensitively",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Open(args[0], c.logger)
			if err != nil {
				return err
			}
			matches := doc.Search(args[1])
			out := cmd.OutOrStdout()

			if asJSON {
				if matches == nil {
					matches = []document.Match{}
				}
				return writeJSON(out, matches)
			}

			cur := document.NewCursor(matches)
			if cur.Len() == 0 {
				fmt.Fprintln(out, "no matches")
				return nil
			}
			for m, ok := cur.Current(); ok; m, ok = cur.Next() {
				fmt.Fprintf(out, "%d/%d  p.%d  %s\n", cur.Index()+1, cur.Len(), m.Page, m.Snippet)
				if cur.Index() == cur.Len()-1 {
					break
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print matches as JSON")
	return cmd
}
