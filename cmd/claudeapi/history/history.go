package historycmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/claudeapi/api"
	"github.com/papercomputeco/claudeapi/pkg/llm"
)

const historyLongDesc string = `Show conversations held by a running claudeapi server.

With a conversation id, fetches its turns and renders them as markdown.
Without one, lists the known conversation ids.

Examples:
  claudeapi history http://localhost:8000
  claudeapi history http://localhost:8000 default
  claudeapi history --raw http://localhost:8000 my-chat`

const historyShortDesc string = "Show conversation history from a running server"

const defaultWidth = 80

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Faint(true)
)

type historyCommander struct {
	raw    bool
	style  string
	width  int
	client *http.Client
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{
		client: &http.Client{Timeout: 30 * time.Second},
	}

	cmd := &cobra.Command{
		Use:   "history <server-url> [conversation-id]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverURL := strings.TrimRight(args[0], "/")
			if len(args) == 1 {
				return cmder.list(cmd.Context(), cmd.OutOrStdout(), serverURL)
			}
			return cmder.show(cmd.Context(), cmd.OutOrStdout(), serverURL, args[1])
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the server's JSON instead of rendering it")
	cmd.Flags().StringVar(&cmder.style, "style", "auto", "Markdown style: auto, dark, light, notty")
	cmd.Flags().IntVar(&cmder.width, "width", 0, "Wrap width (default: terminal width)")

	return cmd
}

func (c *historyCommander) list(ctx context.Context, out io.Writer, serverURL string) error {
	var resp api.ConversationListResponse
	body, err := c.get(ctx, serverURL+"/api/conversations", &resp)
	if err != nil {
		return err
	}
	if c.raw {
		_, err := out.Write(body)
		return err
	}

	if len(resp.Conversations) == 0 {
		fmt.Fprintln(out, "No conversations found")
		return nil
	}
	for _, id := range resp.Conversations {
		fmt.Fprintln(out, id)
	}
	return nil
}

func (c *historyCommander) show(ctx context.Context, out io.Writer, serverURL, conversationID string) error {
	var resp api.ConversationResponse
	body, err := c.get(ctx, serverURL+"/api/conversation/"+url.PathEscape(conversationID), &resp)
	if err != nil {
		return err
	}
	if c.raw {
		_, err := out.Write(body)
		return err
	}

	if len(resp.Conversation) == 0 {
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("Conversation %s is empty", conversationID)))
		return nil
	}

	renderer, err := c.renderer()
	if err != nil {
		return fmt.Errorf("could not create markdown renderer: %w", err)
	}

	for _, turn := range resp.Conversation {
		fmt.Fprintln(out, header(turn.Role))
		rendered, err := renderer.Render(turn.Content)
		if err != nil {
			return fmt.Errorf("could not render turn: %w", err)
		}
		fmt.Fprint(out, rendered)
	}
	return nil
}

func (c *historyCommander) get(ctx context.Context, target string, v any) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp llm.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	return body, nil
}

func (c *historyCommander) renderer() (*glamour.TermRenderer, error) {
	width := c.width
	if width <= 0 {
		width = terminalWidth()
	}

	styleOpt := glamour.WithAutoStyle()
	if c.style != "" && c.style != "auto" {
		styleOpt = glamour.WithStandardStyle(c.style)
	}

	return glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
}

func header(role llm.Role) string {
	switch role {
	case llm.RoleUser:
		return userStyle.Render("User")
	case llm.RoleAssistant:
		return assistantStyle.Render("Assistant")
	default:
		return dimStyle.Render(string(role))
	}
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
