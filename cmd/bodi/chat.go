package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/comigor/bodi-go/internal/apiclient"
	"github.com/comigor/bodi-go/internal/catalog"
	"github.com/comigor/bodi-go/internal/history"
	"github.com/comigor/bodi-go/internal/llm"
	"github.com/comigor/bodi-go/internal/logger"
	"github.com/comigor/bodi-go/internal/session"
	"github.com/comigor/bodi-go/internal/term"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with BODI in the terminal",
	Long: `Chat with BODI in the terminal against a running API server.

Commands:
  /lang en|pidgin   switch reply language
  /all              print the "view all" link for the last recommendations
  /open ID          show one listing
  /quit             leave`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), os.Stdin, cmd.OutOrStdout())
	},
}

// console serialises writes from the prompt loop and catalog callbacks.
type console struct {
	mu      sync.Mutex
	out     io.Writer
	sess    *session.Session
	catalog *catalog.Provider

	// last assistant message with recommendations and how many cards it showed
	last  history.Message
	shown int
}

func (c *console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *console) prompt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\n%s\n> ", term.Placeholder(c.sess.Language()))
}

// showCards prints the recommendation strip for msg and remembers it so a
// later catalog load can re-render it.
func (c *console) showCards(msg history.Message) {
	set := c.sess.Recommendations(msg)
	link, _ := c.sess.ViewAll(msg)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.last, c.shown = msg, len(set)
	if out := term.Recommendations(set, link, c.sess.Language()); out != "" {
		fmt.Fprintln(c.out, out)
	}
}

// catalogChanged re-correlates the last recommendations against snap.
func (c *console) catalogChanged(snap *catalog.Snapshot) {
	logger.L.Info("catalog loaded", "listings", snap.Len())

	c.mu.Lock()
	msg, shown := c.last, c.shown
	c.mu.Unlock()

	if !msg.HasRecommendations() || len(c.sess.Recommendations(msg)) == shown {
		return
	}
	c.showCards(msg)
}

func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	lang, err := llm.ParseLanguage(cfg.Chat.Language)
	if err != nil {
		return err
	}

	client := apiclient.New(cfg.Chat.APIURL, &http.Client{})
	provider := catalog.NewProvider(client)
	sess := session.New(client, provider,
		session.WithContextLimit(cfg.Chat.ContextLimit),
		session.WithTimeout(cfg.Chat.Timeout),
		session.WithLanguage(lang),
		session.WithViewAllBase(strings.TrimRight(cfg.Chat.APIURL, "/")+"/api/properties"),
	)
	c := &console{out: out, sess: sess, catalog: provider}

	provider.Subscribe(c.catalogChanged)

	loadCtx, cancelLoad := context.WithCancel(ctx)
	defer cancelLoad()
	go func() {
		if _, err := provider.Refresh(loadCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.L.Warn("catalog unavailable; replies will show without listings", "error", err)
		}
	}()

	for _, msg := range sess.Messages() {
		c.println(term.Message(msg, session.Blocks(msg)))
	}

	scanner := bufio.NewScanner(in)
	for {
		c.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "/") {
			if quit := c.command(line); quit {
				return nil
			}
			continue
		}

		sess.Compose()
		turn, err := sess.Send(ctx, line)
		switch {
		case errors.Is(err, session.ErrEmptyInput):
			continue
		case err != nil:
			return err
		}

		if turn.Failed() {
			c.println(term.Failure(turn.Message.Text))
			continue
		}
		c.println(term.Message(turn.Message, turn.Blocks))
		if turn.Message.HasRecommendations() {
			c.showCards(turn.Message)
		}
	}
}

// command handles a slash command and reports whether to quit.
func (c *console) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/lang":
		lang, err := llm.ParseLanguage(arg)
		if err != nil {
			c.println(err.Error())
			return false
		}
		c.sess.SetLanguage(lang)
		c.println("language: " + string(lang))
	case "/all":
		c.mu.Lock()
		msg := c.last
		c.mu.Unlock()
		link, ok := c.sess.ViewAll(msg)
		if !ok {
			c.println("no recommendations yet")
			return false
		}
		c.println(link)
	case "/open":
		if arg == "" {
			c.println("usage: /open ID")
			return false
		}
		entry, ok := c.catalog.Snapshot().Lookup(arg)
		if !ok {
			c.println("listing " + arg + " not found")
			return false
		}
		c.println(term.Card(entry, c.sess.Language()) + "\n" + c.sess.Open(entry.ID))
	default:
		c.println("unknown command " + name)
	}
	return false
}
