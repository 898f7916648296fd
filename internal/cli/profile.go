package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Player profile commands (requires sign in)",
	}

	cmd.AddCommand(newProfileShowCmd())
	cmd.AddCommand(newProfileUpdateCmd())
	cmd.AddCommand(newProfileRepairCmd())

	return cmd
}

func newProfileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your player profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile
			if err := client.Get("/api/v1/profile", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newProfileUpdateCmd() *cobra.Command {
	var username, imageURL string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change your username or profile image",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if cmd.Flags().Changed("username") {
				req["username"] = username
			}
			if cmd.Flags().Changed("image-url") {
				req["profile_image_url"] = imageURL
			}
			if len(req) == 0 {
				return fmt.Errorf("at least one of --username or --image-url is required")
			}

			var result Profile
			if err := client.Patch("/api/v1/profile", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "New username")
	cmd.Flags().StringVar(&imageURL, "image-url", "", "New profile image URL (empty to clear)")

	return cmd
}

func newProfileRepairCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Create the missing profile of a signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Profile
			if err := client.Post("/api/v1/profile", map[string]string{"username": username}, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username (defaults to the email's local part)")

	return cmd
}
