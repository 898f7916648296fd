package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session management commands",
	}

	cmd.AddCommand(newSessionNewCmd())
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionEndCmd())

	return cmd
}

// startSession creates a server-side session and saves its token
func startSession() (SessionResult, error) {
	var result SessionResult
	client.SetToken("")
	if err := client.Post("/api/v1/sessions", nil, &result); err != nil {
		return result, err
	}

	if err := cfg.SaveToken(result.SessionToken); err != nil {
		return result, fmt.Errorf("failed to save token: %w", err)
	}
	client.SetToken(result.SessionToken)
	return result, nil
}

// ensureSession starts a session unless the saved one is still live
func ensureSession() error {
	if client.Token() != "" {
		var s Session
		err := client.Get("/api/v1/session", &s)
		if err == nil {
			return nil
		}
		if !IsUnauthorized(err) {
			return err
		}
		if cfg.Verbose {
			fmt.Println("Saved session expired, starting a new one")
		}
	}
	_, err := startSession()
	return err
}

func newSessionNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new signed-out session",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := startSession()
			if err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if client.Token() == "" {
				return fmt.Errorf("no session; run 'cgame session new' first")
			}

			var result Session
			if err := client.Get("/api/v1/session", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end",
		Short: "End the session on the server and forget its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if client.Token() != "" {
				if err := client.Delete("/api/v1/session"); err != nil && !IsUnauthorized(err) {
					return err
				}
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Session ended")
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var email, pass, username string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create an account and its player profile, then sign in.

The username is optional; without one the part of the email before the @ is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureSession(); err != nil {
				return err
			}

			req := map[string]string{
				"email":    email,
				"password": pass,
				"username": username,
			}
			var result Session

			if err := client.Post("/api/v1/session/register", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	cmd.Flags().StringVar(&username, "username", "", "Username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var email, pass string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensureSession(); err != nil {
				return err
			}

			req := map[string]string{
				"email":    email,
				"password": pass,
			}
			var result Session

			if err := client.Post("/api/v1/session/login", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out, keeping the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)
			if client.Token() == "" {
				out.PrintMessage("Not signed in")
				return nil
			}

			var result Session
			if err := client.Post("/api/v1/session/logout", nil, &result); err != nil {
				if IsUnauthorized(err) {
					out.PrintMessage("Not signed in")
					return nil
				}
				return err
			}

			out.Print(result)
			return nil
		},
	}
}

func newResetPasswordCmd() *cobra.Command {
	var email, token, pass string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Request or complete a password reset",
		Long: `With --email, ask for a password reset link to be emailed.

With --reset-token and --pass, set a new password using the token from the link.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			switch {
			case token != "":
				if pass == "" {
					return fmt.Errorf("--pass is required with --reset-token")
				}
				req := map[string]string{"token": token, "password": pass}
				if err := client.Post("/api/v1/password-reset/confirm", req, nil); err != nil {
					return err
				}
				out.PrintMessage("Password updated")
			case email != "":
				if err := ensureSession(); err != nil {
					return err
				}
				if err := client.Post("/api/v1/session/password-reset", map[string]string{"email": email}, nil); err != nil {
					return err
				}
				out.PrintMessage("If that address has an account, a reset link is on its way")
			default:
				return fmt.Errorf("either --email or --reset-token is required")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address to send the reset link to")
	cmd.Flags().StringVar(&token, "reset-token", "", "Token from the reset link")
	cmd.Flags().StringVar(&pass, "pass", "", "New password")

	return cmd
}
