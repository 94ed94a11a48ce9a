package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadzzz/readmebot/internal/message"
)

// printResponse writes the reply to stdout and saves attachments under dir.
func printResponse(cmd *cobra.Command, resp *message.Response, dir string) error {
	out := cmd.OutOrStdout()
	if resp.Transcript != "" {
		fmt.Fprintf(out, "transcript: %s\n\n", resp.Transcript)
	}
	fmt.Fprintln(out, resp.Message)
	fmt.Fprintf(out, "\n[phase %s", resp.Phase)
	if resp.Error != "" {
		fmt.Fprintf(out, ", error %s", resp.Error)
	}
	if len(resp.Actions) > 0 {
		fmt.Fprintf(out, ", next: %s", strings.Join(resp.Actions, " | "))
	}
	fmt.Fprintln(out, "]")

	for _, a := range resp.Attachments {
		path := filepath.Join(dir, filepath.Base(a.Name))
		if err := os.WriteFile(path, a.Data, 0o644); err != nil {
			return fmt.Errorf("saving %s: %w", a.Name, err)
		}
		fmt.Fprintf(out, "saved %s (%d bytes)\n", path, len(a.Data))
	}
	return nil
}
