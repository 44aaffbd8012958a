package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/parlour/pkg/client"
)

func newChatCmd() *cobra.Command {
	var character string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message to a character",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := apiClient.Chat().Send(context.Background(), client.ChatRequest{
				User:      strings.Join(args, " "),
				Character: character,
			})
			if err != nil {
				return explainLimit(err)
			}

			out := cmd.OutOrStdout()
			if getOutputFormat() != "table" {
				return printOutput(out, reply)
			}

			fmt.Fprintf(out, "%s: %s\n", reply.Character, reply.Response)
			if reply.Usage.Limit >= 0 {
				fmt.Fprintf(out, "\n(%d of %d messages left this month)\n", reply.Usage.Remaining, reply.Usage.Limit)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&character, "character", "c", "", "character id (default character when empty)")
	return cmd
}

func newCharactersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "characters",
		Short: "List available characters",
		RunE: func(cmd *cobra.Command, args []string) error {
			chars, err := apiClient.Chat().Characters(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list characters: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(cmd.OutOrStdout(), chars)
			}

			table := NewTable(cmd.OutOrStdout(), "ID", "NAME", "DESCRIPTION")
			for _, c := range chars {
				table.AddRow(c.ID, c.Name, truncate(c.Description, 60))
			}
			table.Render()
			return nil
		},
	}
}

func newTTSCmd() *cobra.Command {
	var voice, outFile string

	cmd := &cobra.Command{
		Use:     "tts <text>",
		Aliases: []string{"speak"},
		Short:   "Synthesize speech to an audio file",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			audio, err := apiClient.Chat().Speak(context.Background(), client.SpeakRequest{
				Text:  strings.Join(args, " "),
				Voice: voice,
			})
			if err != nil {
				return explainLimit(err)
			}

			if err := os.WriteFile(outFile, audio.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write audio: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes of %s to %s\n", len(audio.Data), audio.ContentType, outFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "voice id (server default when empty)")
	cmd.Flags().StringVar(&outFile, "out", "speech.mp3", "output file")
	return cmd
}

// explainLimit turns a usage-limit rejection into an upgrade hint
func explainLimit(err error) error {
	var apiErr *client.APIError
	if stderrors.As(err, &apiErr) && apiErr.IsLimitExceeded() {
		return fmt.Errorf("%s (%d/%d used). Run 'parlour checkout' for unlimited use",
			apiErr.Reason, apiErr.Current, apiErr.Limit)
	}
	return err
}
