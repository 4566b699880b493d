package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/assetrag/internal/core/ports/driving"
)

const chatPrompt = "> "

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start a multi-turn conversation",
	Long: `Opens a conversation session and answers questions interactively.
Follow-up questions such as "what about its price?" are resolved against
the recent turns.

Type /history to print the conversation, /exit (or Ctrl-D) to leave.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume a session by ID")
	rootCmd.AddCommand(chatCmd)
}

// lineReader yields one user line at a time. io.EOF ends the chat.
type lineReader interface {
	ReadLine() (string, error)
}

// scanReader reads lines from a non-terminal input.
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scanReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, chatPrompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	svc, err := loadServices(cmd.Context())
	if err != nil {
		return err
	}
	if svc.Sessions == nil {
		return errors.New("session service not configured")
	}

	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	var reader lineReader = &scanReader{scanner: bufio.NewScanner(in), out: out}

	// On a real terminal use line editing with history.
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("enter raw mode: %w", err)
		}
		defer term.Restore(int(f.Fd()), state) //nolint:errcheck

		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{f, out}, chatPrompt)
		reader, out = t, t
	}

	return chatLoop(cmd.Context(), svc.Sessions, chatSessionID, reader, out)
}

// chatLoop runs one session until EOF or /exit, then closes it.
func chatLoop(
	ctx context.Context, sessions driving.SessionService, sessionID string, in lineReader, out io.Writer,
) error {
	info, err := sessions.Open(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := sessions.Close(context.WithoutCancel(ctx), info.ID); err != nil {
			fmt.Fprintf(out, "Failed to close session: %v\n", err)
		}
	}()

	fmt.Fprintf(out, "Session %s. Type /exit to quit.\n", info.ID)

	for {
		line, err := in.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/history":
			printHistory(ctx, sessions, info.ID, out)
			continue
		}

		result, err := sessions.Ask(ctx, info.ID, line)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "%s\n(confidence %.2f)\n\n", result.Response, result.Confidence)
	}
}

func printHistory(ctx context.Context, sessions driving.SessionService, id string, out io.Writer) {
	messages, err := sessions.History(ctx, id)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	for _, m := range messages {
		fmt.Fprintf(out, "%s: %s\n", m.Role, m.Content)
	}
}
