package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-reader/internal"
	"github.com/thywilljoshua/pdf-reader/internal/ai"
	"github.com/thywilljoshua/pdf-reader/internal/canvas"
	"github.com/thywilljoshua/pdf-reader/internal/document"
	"github.com/thywilljoshua/pdf-reader/internal/outline"
)

func outlineCmd(c *cli) *cobra.Command {
	var out string
	var source string
	var fallback string
	var maxDepth int
	var width, height int

	cmd := &cobra.Command{
		Use:   "outline [pdf]",
		Short: "Build a concept map of a PDF and write it as JSON, SVG or PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fallback == "" {
				fallback = c.cfg.AI.OutlinePolicy
			}
			policy, err := outline.ParsePolicy(fallback)
			if err != nil {
				return err
			}

			var doc *document.Document
			if source != "demo" {
				if len(args) == 0 {
					return fmt.Errorf("source %q needs a PDF", source)
				}
				if doc, err = document.Open(args[0], c.logger); err != nil {
					return err
				}
			}

			res, err := buildOutline(cmd.Context(), c, doc, source, policy, maxDepth)
			if err != nil {
				return err
			}
			if res.Fallback {
				c.logger.Warn("outline fell back to demo data", zap.Error(res.Err))
			}
			return writeOutline(cmd.OutOrStdout(), out, res, canvas.SurfaceOptions{Width: width, Height: height})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.json, .svg or .png); JSON to stdout when empty")
	cmd.Flags().StringVar(&source, "source", "toc", "node source: ai|toc|bookmarks|demo")
	cmd.Flags().StringVar(&fallback, "fallback", "", "what to do when the AI answer cannot be parsed: error|demo (default from config)")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 3, "maximum section depth for toc and bookmarks")
	cmd.Flags().IntVar(&width, "width", 1280, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", 800, "image height in pixels")
	return cmd
}

func buildOutline(ctx context.Context, c *cli, doc *document.Document, source string, policy outline.Policy, maxDepth int) (outline.Result, error) {
	switch source {
	case "demo":
		return outline.Result{Nodes: outline.Demo()}, nil
	case "toc":
		nodes, err := outline.FromToC(doc.Pages, maxDepth)
		return outline.Result{Nodes: nodes}, err
	case "bookmarks":
		nodes, err := outline.FromBookmarks(doc.Bookmarks, maxDepth)
		return outline.Result{Nodes: nodes}, err
	case "ai":
		assistant, err := internal.NewAssistant(ctx, c.cfg.AI, c.logger)
		if err != nil {
			return outline.Result{}, err
		}
		ctx, cancel := c.aiContext(ctx)
		defer cancel()
		return ai.Outline(ctx, assistant, doc.Context(c.cfg.AI.ContextPages), policy)
	}
	return outline.Result{}, fmt.Errorf("unknown source %q (want ai|toc|bookmarks|demo)", source)
}

// writeOutline picks the format from the file extension.
func writeOutline(stdout io.Writer, path string, res outline.Result, opts canvas.SurfaceOptions) error {
	if path == "" {
		return writeJSON(stdout, res)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".svg" && ext != ".png" {
		return fmt.Errorf("unsupported output %q (want .json, .svg or .png)", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scene := canvas.New(res.Nodes).Scene()
	switch ext {
	case ".json":
		err = writeJSON(f, res)
	case ".svg":
		err = canvas.WriteSVG(f, scene, opts)
	case ".png":
		err = canvas.WritePNG(f, scene, opts)
	}
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d nodes to %s\n", len(res.Nodes), path)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
