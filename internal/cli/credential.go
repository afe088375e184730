package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vnstock-advisor/internal/dashboard"
)

func newCredentialCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the OpenAI API key",
		Long: `The assistant key is read from OPENAI_API_KEY first, then from the key saved
with 'credential set'.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Save the API key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			key := ""
			if len(args) == 1 {
				key = args[0]
			} else {
				output.Printf("OpenAI API key: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("reading key: %w", err)
				}
				key = strings.TrimSpace(line)
			}

			if err := app.Dispatcher.Dispatch(contextOf(cmd), dashboard.SaveCredential{Key: key}); err != nil {
				return err
			}
			app.credentialOrigin = CredentialFromStore
			if app.Store == nil {
				output.Warning("⚠️  Store unavailable; the key is kept for this run only")
				return nil
			}
			output.Success("✓ API key saved")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the saved API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Dispatcher.Dispatch(contextOf(cmd), dashboard.ClearCredential{}); err != nil {
				return err
			}
			app.credentialOrigin = CredentialNone
			output.Success("✓ API key cleared")
			if app.Config.Credentials.OpenAIKey != "" {
				output.Dim("OPENAI_API_KEY is still set in the environment and applies on the next run.")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show which API key is in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			key := app.Dispatcher.State().Credential()
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"configured": key != "",
					"origin":     app.credentialOrigin,
					"key":        MaskKey(key),
				})
			}
			if key == "" {
				output.Warning("No API key configured")
				return nil
			}
			output.Printf("Key:    %s\n", MaskKey(key))
			output.Printf("Origin: %s\n", app.credentialOrigin)
			return nil
		},
	})

	return cmd
}
