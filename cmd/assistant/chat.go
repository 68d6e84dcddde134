package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/agentkube/assistant/internal/config"
	"github.com/agentkube/assistant/internal/orchestrator"
	"github.com/agentkube/assistant/internal/protocol"
	"github.com/agentkube/assistant/internal/stream"
	"github.com/agentkube/assistant/internal/toolcall"
)

const decideTimeout = 15 * time.Second

// runChat executes one chat turn and prints the stream to the
// terminal. Ctrl-C cancels the turn and notifies the orchestrator.
func runChat(message string) error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(settings)

	client := orchestrator.NewClient(orchestrator.Config{
		BaseURL: settings.OrchestratorURL,
		Headers: settings.Headers,
	})
	driver := stream.NewDriver(client)
	driver.NotifyAbort = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	req := orchestrator.ChatRequest{
		Message:         message,
		Model:           settings.Model,
		SessionID:       sessionFlag,
		AutoApprove:     settings.AutoApproveEnabled(),
		ReasoningEffort: settings.ReasoningEffort,
		KubeContext:     settings.KubeContext,
		KubeConfig:      settings.KubeConfig,
	}

	printer := &chatPrinter{client: client, stdin: bufio.NewReader(os.Stdin)}
	res, err := driver.Run(ctx, req, printer.handlers())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	if res.SessionID != "" && sessionFlag == "" {
		fmt.Fprintf(os.Stderr, "\nsession: %s  (continue with -s %s)\n", res.SessionID, res.SessionID)
	}
	return nil
}

func applyFlags(s *config.Settings) {
	if modelFlag != "" {
		s.Model = modelFlag
	}
	if reasoningFlag != "" {
		s.ReasoningEffort = reasoningFlag
	}
	if kubeContextFlag != "" {
		s.KubeContext = kubeContextFlag
	}
	if autoApproveFlag {
		on := true
		s.AutoApprove = &on
	}
}

// chatPrinter renders stream events to the terminal and answers
// approval prompts over the side channel.
type chatPrinter struct {
	client    *orchestrator.Client
	stdin     *bufio.Reader
	sessionID string
	inText    bool
}

func (p *chatPrinter) handlers() stream.Handlers {
	return stream.Handlers{
		OnSession: func(sessionID, traceID string) {
			p.sessionID = sessionID
		},
		OnText: func(content string) {
			p.inText = true
			fmt.Print(content)
		},
		OnReasoningText: func(content string) {
			// Reasoning is kept out of the transcript output.
		},
		OnToolCallStart: func(call *toolcall.Call) {
			p.breakLine()
			fmt.Printf("⚙ %s %s\n", call.Tool, compactArgs(call.Arguments))
		},
		OnToolApprovalRequest: p.promptApproval,
		OnToolDenied: func(call *toolcall.Call, msg string) {
			p.breakLine()
			fmt.Printf("✗ %s denied\n", call.Tool)
		},
		OnToolRedirected: func(call *toolcall.Call, instruction string) {
			p.breakLine()
			fmt.Printf("↪ redirected: %s\n", instruction)
		},
		OnToolTimeout: func(call *toolcall.Call) {
			p.breakLine()
			fmt.Printf("✗ %s approval timed out\n", call.Tool)
		},
		OnToolCallEnd: func(call *toolcall.Call) {
			p.breakLine()
			if call.Result != nil && !call.Result.Success {
				fmt.Printf("✗ %s failed: %s\n", call.Tool, firstLine(call.Result.Output))
				return
			}
			fmt.Printf("✓ %s\n", call.Tool)
		},
		OnTodosChanged: func(todos []protocol.TodoItem) {
			p.breakLine()
			printTodos(todos)
		},
		OnErrorEvent: func(msg string) {
			p.breakLine()
			fmt.Fprintf(os.Stderr, "agent error: %s\n", msg)
		},
		OnDone: func(reason string, usage *protocol.TokenUsage) {
			p.breakLine()
			if usage != nil {
				fmt.Fprintf(os.Stderr, "[%s] tokens: %d in / %d out\n", reason, usage.Input, usage.Output)
			}
		},
		OnUserCancelled: func(msg string) {
			p.breakLine()
			fmt.Fprintln(os.Stderr, "cancelled")
		},
		OnError: func(err error) {
			p.breakLine()
			fmt.Fprintf(os.Stderr, "stream failed: %v\n", err)
		},
	}
}

// promptApproval asks the user to decide a pending tool call and sends
// the decision over the approval side channel.
func (p *chatPrinter) promptApproval(call *toolcall.Call, prompt string) {
	p.breakLine()
	if prompt == "" {
		prompt = fmt.Sprintf("Run %s?", call.Tool)
	}
	fmt.Printf("%s\n[y]es / [n]o / [a]lways this session / [r]edirect: ", prompt)

	decision := orchestrator.ApprovalDecision{
		SessionID: p.sessionID,
		CallID:    call.CallID,
	}

	line, err := p.stdin.ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr, "\nno input available, letting the approval window expire")
		return
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "":
		decision.Decision = orchestrator.DecisionApprove
	case "a", "always":
		decision.Decision = orchestrator.DecisionApproveForSession
	case "r", "redirect":
		fmt.Print("new instruction: ")
		msg, err := p.stdin.ReadString('\n')
		if err != nil {
			fmt.Fprintln(os.Stderr, "\nno input available, letting the approval window expire")
			return
		}
		decision.Decision = orchestrator.DecisionRedirect
		decision.Message = strings.TrimSpace(msg)
	default:
		decision.Decision = orchestrator.DecisionDeny
	}

	ctx, cancel := context.WithTimeout(context.Background(), decideTimeout)
	defer cancel()
	if err := p.client.Decide(ctx, decision); err != nil {
		if errors.Is(err, orchestrator.ErrApprovalExpired) {
			fmt.Fprintln(os.Stderr, "approval window already expired")
			return
		}
		fmt.Fprintf(os.Stderr, "failed to send decision: %v\n", err)
	}
}

// breakLine terminates a partially printed text part before other
// output is interleaved.
func (p *chatPrinter) breakLine() {
	if p.inText {
		fmt.Println()
		p.inText = false
	}
}

func compactArgs(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	s := string(raw)
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func printTodos(todos []protocol.TodoItem) {
	for _, todo := range todos {
		mark := " "
		switch todo.Status {
		case protocol.TodoInProgress:
			mark = ">"
		case protocol.TodoCompleted:
			mark = "x"
		case protocol.TodoCancelled:
			mark = "-"
		}
		fmt.Printf("  [%s] %s\n", mark, todo.Content)
	}
}
