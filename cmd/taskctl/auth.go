package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yukikurage/task-tracker-api/internal/client"
)

var registerCmd = &cobra.Command{
	Use:   "register <name> <email>",
	Short: "Create an account",
	Long: `Create an account. The password is read from --password or, when that
is empty, prompted for without echo. Piped input supplies it as the first line.

Examples:
  taskctl register Ann ann@example.com --password s3cretpass
  echo s3cretpass | taskctl register Ann ann@example.com`,
	Args: cobra.ExactArgs(2),
	RunE: runRegister,
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and remember the token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

func init() {
	registerCmd.Flags().String("password", "", "Account password")
	loginCmd.Flags().String("password", "", "Account password")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd)
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	user, err := c.Register(cmd.Context(), client.RegisterRequest{
		Name:     args[0],
		Email:    args[1],
		Password: password,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (id %d)\n", user.Email, user.ID)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	c, err := newClient()
	if err != nil {
		return err
	}

	resp, err := c.Login(cmd.Context(), args[0], password)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (token expires %s)\n",
		resp.User.Email, resp.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	if password != "" {
		return password, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		pwBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr()) // newline after password
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(pwBytes)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		password = strings.TrimRight(line, "\r\n")
		if password == "" && err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
	}

	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}
