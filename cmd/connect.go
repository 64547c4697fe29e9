package cmd

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rotaworks/workforce-auth/internal/workforce"
	"github.com/rotaworks/workforce-auth/pkg/logger"
)

var (
	connectCmd = &cobra.Command{
		Use:   "connect [email]",
		Short: "Exchange Workforce credentials for an API token",
		Long:  `Perform the password-grant exchange against the Workforce API and print the resulting bearer token. Store it under workforce.access_token in the config.`,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runConnect(args[0])
		},
	}
	connectScopes []string
)

func init() {
	connectCmd.Flags().StringSliceVar(&connectScopes, "scope", []string{"me", "location", "department", "user"}, "scopes to request")
}

func runConnect(email string) {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	fmt.Fprint(os.Stderr, "Workforce password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
		os.Exit(1)
	}

	client := workforce.NewClient(workforce.Config{
		BaseURL: cfg.Workforce.BaseURL,
		APIURL:  cfg.Workforce.APIURL,
		Timeout: cfg.Workforce.Timeout,
	}, lg)

	token, err := client.GetToken(context.Background(), email, string(password), connectScopes)
	if err != nil {
		lg.Error("token exchange failed", "error", err)
		os.Exit(1)
	}

	client.SetToken(token.AccessToken)
	if err := client.TestConnection(context.Background()); err != nil {
		lg.Warn("token obtained but connection test failed", "error", err)
	}

	fmt.Println(token.AccessToken)
}
