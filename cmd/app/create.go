package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"shortlink-proxy/internal/apperrors"
)

func newCreateCmd() *cobra.Command {
	var longURL, host string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a short link for a long URL",
		Long: `Registers a long URL in the configured store and prints the short URL.

Example:
  shortlink-proxy create --url "https://cdn.example.com/movie.mp4" --host proxy.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(true)
			if err != nil {
				return err
			}
			defer a.close()

			shortURL, err := a.links.Register(cmd.Context(), longURL, host)
			if err != nil {
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) {
					return errors.New(appErr.Message)
				}
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), shortURL)
			return err
		},
	}
	cmd.Flags().StringVarP(&longURL, "url", "u", "", "long URL to shorten (required)")
	cmd.Flags().StringVar(&host, "host", "localhost:8080", "host used in the printed short URL when server.base_url is empty")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
