package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxpilot/voxpilot/internal/agent"
	"github.com/voxpilot/voxpilot/internal/output"
)

var execCmd = &cobra.Command{
	Use:   "exec \"<command>\"",
	Short: "Run a single natural-language command",
	Long: `Run one command through the agent and print the result.

Examples:
  voxpilot exec "click on the Gmail link"
  voxpilot exec "write a short thank-you email, I'll click where it goes"
  voxpilot exec "what is on my screen?"`,
	Args: cobra.ExactArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().Bool("no-wait", false, "Exit immediately instead of waiting for a deferred placement click")
}

func runExec(cmd *cobra.Command, args []string) error {
	router, err := buildAgent()
	if err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	res := router.Route(cmd.Context(), args[0])
	if err := output.Print(res); err != nil {
		return err
	}

	if res.Status == agent.StatusWaitingForUser {
		noWait, _ := cmd.Flags().GetBool("no-wait")
		if noWait {
			router.CancelDeferred()
			return nil
		}
		// Keep the process alive until the placement click, the timeout, or
		// an interrupt. The engine cleans up in all three cases.
		select {
		case <-router.DeferredDone():
		case <-cmd.Context().Done():
			router.CancelDeferred()
		}
	}
	return nil
}
