package main

import (
	"errors"
	"os"

	"pathways_backend/internal/client"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "assessor",
	Short:        "Take pathways unit assessments from the terminal",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "Base URL of the pathways server")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides PATHWAYS_TOKEN env var)")

	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(progressCmd)
}

// transportFor builds the HTTP transport from --server and --token / PATHWAYS_TOKEN.
func transportFor(cmd *cobra.Command) (*client.HTTPTransport, error) {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("PATHWAYS_TOKEN")
	}
	if token == "" {
		return nil, errors.New("no token: pass --token or set PATHWAYS_TOKEN")
	}
	return client.NewHTTPTransport(server, token), nil
}
