package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teamodea/meetfinder/internal/calendar"
	"github.com/teamodea/meetfinder/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth [authorization-code]",
		Short: "Authenticate with Google Calendar",
		Long: `Authenticate with Google Calendar via OAuth.

Without arguments, prints the authorization URL to visit in a browser.
After granting access, run the command again with the authorization code
to save the token:

  meetfinder auth
  meetfinder auth 4/0AX4XfW...

Tokens are stored per account, so multiple Google accounts can be used:

  meetfinder auth --account work 4/0AX4XfW...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runAuthURL(cmd.OutOrStdout())
			}
			return runAuthSave(cmd.Context(), account, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Account name to store the token under")

	return cmd
}

func runAuthURL(out io.Writer) error {
	authURL, err := google.GetAuthURL()
	if err != nil {
		return fmt.Errorf("failed to build authorization URL: %w", err)
	}

	fmt.Fprintln(out, "Visit the following URL to authorize meetfinder:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %s\n", authURL)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Then run 'meetfinder auth <authorization-code>' with the code you receive.")
	return nil
}

func runAuthSave(ctx context.Context, account, authCode string, out io.Writer) error {
	if err := google.SaveTokenForAccount(ctx, account, authCode); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Fprintf(out, "Authorization successful for account %q.\n", account)

	// Verify the token works by looking up the primary calendar.
	client, err := calendar.NewClientForAccount(ctx, account)
	if err != nil {
		fmt.Fprintf(out, "Warning: token saved but calendar client creation failed: %v\n", err)
		return nil
	}

	info, err := client.GetPrimaryCalendar(ctx)
	if err != nil {
		fmt.Fprintf(out, "Warning: token saved but calendar lookup failed: %v\n", err)
		return nil
	}

	fmt.Fprintf(out, "Primary calendar: %s (%s)\n", info.Summary, info.TimeZone)
	return nil
}
