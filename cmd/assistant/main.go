package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agentkube/assistant/internal/log"
)

var (
	version = "0.1.0"
)

func init() {
	// Load .env file if it exists (silent fail if not found)
	_ = godotenv.Load()

	// Initialize logging (enabled via ASSISTANT_DEBUG=1)
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "assistant [message]",
	Short: "Assistant - chat with the cluster orchestrator from the terminal",
	Long: `Assistant streams agent responses from a local orchestrator,
shows tool calls as they run, and prompts before guarded tools execute.

Usage:
  assistant "your message"        Send a message directly
  echo "message" | assistant      Send a message via stdin
  assistant -s <id> "message"     Continue an existing session`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		message := getInputMessage(args)
		if message == "" {
			return cmd.Help()
		}
		cmd.SilenceUsage = true
		return runChat(message)
	},
}

var (
	promptFlag      string
	sessionFlag     string
	modelFlag       string
	reasoningFlag   string
	autoApproveFlag bool
	kubeContextFlag string
)

func init() {
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Custom prompt to send")
	rootCmd.Flags().StringVarP(&sessionFlag, "session", "s", "", "Session ID to continue")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Model override for this turn")
	rootCmd.Flags().StringVar(&reasoningFlag, "reasoning", "", "Reasoning effort: low, medium or high")
	rootCmd.Flags().BoolVarP(&autoApproveFlag, "yes", "y", false, "Approve all tool calls without prompting")
	rootCmd.Flags().StringVar(&kubeContextFlag, "context", "", "Kubernetes context for this turn")

	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(versionCmd)
}

// getInputMessage gets input from args, flags, or stdin
func getInputMessage(args []string) string {
	if promptFlag != "" {
		return promptFlag
	}

	if len(args) > 0 {
		return strings.Join(args, " ")
	}

	// Check if stdin has data (non-interactive pipe)
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		reader := bufio.NewReader(os.Stdin)
		data, err := io.ReadAll(reader)
		if err == nil && len(data) > 0 {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("assistant version %s\n", version)
	},
}
