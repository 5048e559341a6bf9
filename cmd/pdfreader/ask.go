package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-reader/internal"
	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/document"
	"github.com/thywilljoshua/pdf-reader/internal/outline"
)

func askCmd(c *cli) *cobra.Command {
	var selection string
	var html bool
	var progress int

	cmd := &cobra.Command{
		Use:   "ask <tool> <pdf>",
		Short: "Run one AI tool against a PDF",
		Long:  "Run one AI tool against a PDF. Tools: " + strings.Join(ai.Tools(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := ai.ParseTool(args[0])
			if err != nil {
				return err
			}
			doc, err := document.Open(args[1], c.logger)
			if err != nil {
				return err
			}
			assistant, err := internal.NewAssistant(cmd.Context(), c.cfg.AI, c.logger)
			if err != nil {
				return err
			}

			ctx, cancel := c.aiContext(cmd.Context())
			defer cancel()
			docContext := doc.Context(c.cfg.AI.ContextPages)

			if tool == ai.ToolOutline {
				policy, err := outline.ParsePolicy(c.cfg.AI.OutlinePolicy)
				if err != nil {
					return err
				}
				res, err := ai.Outline(ctx, assistant, docContext, policy)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			}

			answer, err := assistant.Ask(ctx, ai.Request{
				Tool:      tool,
				Selection: selection,
				Context:   docContext,
				Progress:  progress,
			})
			if err != nil {
				return err
			}
			if html {
				answer = ai.ToHTML(answer)
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&selection, "selection", "s", "", "selected text (required by simplify and terminology)")
	cmd.Flags().BoolVar(&html, "html", false, "render the answer as HTML")
	cmd.Flags().IntVar(&progress, "progress", 0, "reading progress in percent, for feedback")
	return cmd
}
