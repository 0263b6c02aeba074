// Command taskctl is a command-line client for the task tracker API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yukikurage/task-tracker-api/internal/client"
)

var (
	serverURL string
	tokenFile string
)

var rootCmd = &cobra.Command{
	Use:           "taskctl",
	Short:         "Manage your tasks from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	defaultServer := os.Getenv("TASKCTL_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer, "API base URL (env TASKCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "Where the login token is kept (default: user config dir)")
}

// newClient builds an API client backed by the token file.
func newClient() (*client.Client, error) {
	path := tokenFile
	if path == "" {
		var err error
		if path, err = client.DefaultTokenPath(); err != nil {
			return nil, err
		}
	}
	return client.New(serverURL, client.NewFileTokenStore(path)), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
