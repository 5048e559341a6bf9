package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-reader/internal"
)

func serveCmd(c *cli) *cobra.Command {
	var port int
	var libraryPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reader API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.App.HTTP.Port = port
			}
			if libraryPath != "" {
				c.cfg.Library.Path = libraryPath
			}
			if err := c.cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}

			opts := []internal.Option{
				internal.WithConfig(c.cfg),
				internal.WithLogger(c.logger),
			}
			if err := internal.Run(cmd.Context(), opts...); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override app.http.port")
	cmd.Flags().StringVar(&libraryPath, "library", "", "override library.path")
	return cmd
}
