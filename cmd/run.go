package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxpilot/voxpilot/internal/output"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Interactive command loop",
	Long: `Read commands from stdin, one per line, and route each through the agent.
Type "exit" or press Ctrl-D to quit. A pending deferred action is cancelled
automatically when the next command arrives.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	router, err := buildAgent()
	if err != nil {
		return fmt.Errorf("failed to start agent: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer router.CancelDeferred()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stderr, "> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			fmt.Fprint(os.Stderr, "> ")
			continue
		case "exit", "quit":
			return nil
		}

		res := router.Route(ctx, line)
		if err := output.Print(res); err != nil {
			return err
		}
		fmt.Fprint(os.Stderr, "> ")
	}
	return scanner.Err()
}
