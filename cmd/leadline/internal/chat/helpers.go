package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/leadline-ai/leadline/cmd/leadline/internal"
	"github.com/leadline-ai/leadline/pkg/logger"
	"github.com/leadline-ai/leadline/pkg/session"
)

func chatCmd(message, sessionKey, leadID string, debug bool) error {
	if sessionKey == "" {
		sessionKey = "cli:default"
	}

	if debug {
		logger.SetLevel(logger.DEBUG)
		fmt.Println("🔍 Debug mode enabled")
	}

	rt, err := internal.BuildRuntime(sessionKey)
	if err != nil {
		return err
	}

	sess := session.New(sessionKey)
	if leadID != "" {
		if _, ok := rt.Leads.Get(leadID); !ok {
			return fmt.Errorf("lead %q not found", leadID)
		}
		sess.SetSubject(leadID)
	}

	if message != "" {
		if err := rt.Controller.Send(context.Background(), sess, message); err != nil {
			return fmt.Errorf("error processing message: %w", err)
		}
		printLastReply(sess)
		return nil
	}

	fmt.Printf("%s Interactive mode (Ctrl+C to exit, /help for commands)\n\n", internal.Logo)
	interactiveMode(rt, sess)

	return nil
}

func interactiveMode(rt *internal.Runtime, sess *session.Session) {
	prompt := fmt.Sprintf("%s You: ", internal.Logo)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), ".leadline_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		simpleInteractiveMode(rt, sess)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if done := handleLine(rt, sess, strings.TrimSpace(line)); done {
			return
		}
	}
}

func simpleInteractiveMode(rt *internal.Runtime, sess *session.Session) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s You: ", internal.Logo)
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println("\nGoodbye!")
				return
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		if done := handleLine(rt, sess, strings.TrimSpace(line)); done {
			return
		}
	}
}

// handleLine processes one input line. Returns true when the loop should
// exit.
func handleLine(rt *internal.Runtime, sess *session.Session, input string) bool {
	if input == "" {
		return false
	}
	if input == "exit" || input == "quit" {
		fmt.Println("Goodbye!")
		return true
	}

	if strings.HasPrefix(input, "/") {
		runSlashCommand(rt, sess, input)
		return false
	}

	sess.SetPendingInput(input)
	err := rt.Controller.Send(context.Background(), sess, input)
	switch {
	case errors.Is(err, session.ErrBusy):
		fmt.Println("Still working on the previous message.")
		return false
	case err != nil:
		fmt.Printf("Error: %v\n", err)
		return false
	}

	printLastReply(sess)
	return false
}

func runSlashCommand(rt *internal.Runtime, sess *session.Session, input string) {
	cmd, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		fmt.Println("Commands: /research <company>, /plan, /upgrade, /leads, exit")
	case "research":
		if err := rt.Controller.Research(context.Background(), sess, arg); err != nil {
			if errors.Is(err, session.ErrBusy) {
				fmt.Println("Still working on the previous message.")
				return
			}
			fmt.Printf("Error: %v\n", err)
			return
		}
		printLastReply(sess)
	case "plan":
		plan := rt.Quota.Snapshot()
		if plan.Active {
			fmt.Printf("Plan: %s (unmetered)\n", plan.Name)
		} else {
			fmt.Printf("Plan: %s, %d/%d free messages used\n", plan.Name, plan.UsageCount, plan.UsageLimit)
		}
	case "upgrade":
		rt.Quota.Upgrade()
		fmt.Println("✅ Upgraded to Premium. Usage is no longer metered.")
	case "leads":
		for _, lead := range rt.Leads.All() {
			fmt.Printf("  [%d] %s — %s (%s)\n", lead.Score, lead.Name, lead.Company, lead.Status)
		}
	default:
		fmt.Printf("Unknown command %q; try /help\n", cmd)
	}
}

// printLastReply renders the newest transcript entry by tone.
func printLastReply(sess *session.Session) {
	snap := sess.Snapshot()
	if len(snap.Transcript) == 0 {
		return
	}
	last := snap.Transcript[len(snap.Transcript)-1]
	if last.Sender == session.SenderUser {
		return
	}

	switch last.Tone {
	case session.ToneError:
		fmt.Printf("\n⚠️  %s\n\n", last.Text)
	default:
		fmt.Printf("\n%s %s\n\n", internal.Logo, last.Text)
	}

	if snap.Paywalled {
		fmt.Println("💳 Free tier exhausted. Run /upgrade to continue without limits.")
	}
}
