package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/i474232898/farm-advisor/internal/client"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:5000", "farm-advisor base URL")
	session := flag.String("session", "", "session id to continue (empty starts a new one)")
	lat := flag.Float64("lat", 0, "latitude for weather context")
	lon := flag.Float64("lon", 0, "longitude for weather context")
	useLocation := flag.Bool("location", false, "send -lat/-lon with each question")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "per-question timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(*server, *timeout)
	opts := client.AskOptions{SessionID: *session}
	if *useLocation {
		opts.Location = &client.Location{Lat: *lat, Lon: *lon}
	}

	// One-shot mode when the question is given as arguments.
	if flag.NArg() > 0 {
		if !ask(ctx, c, &opts, strings.Join(flag.Args(), " ")) {
			os.Exit(1)
		}
		return
	}

	fmt.Println("Ask a farming question. Commands: /history, /clear, /quit")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return
		case "/history":
			printHistory(ctx, c, opts.SessionID)
		case "/clear":
			if opts.SessionID != "" {
				if err := c.ClearHistory(ctx, opts.SessionID); err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
			}
			fmt.Println("history cleared")
		default:
			ask(ctx, c, &opts, line)
		}
	}
}

func ask(ctx context.Context, c *client.Client, opts *client.AskOptions, question string) bool {
	start := time.Now()
	resp, err := c.Ask(ctx, question, *opts)
	if errors.Is(err, client.ErrTimeout) {
		fmt.Fprintln(os.Stderr, "request timed out, please try again")
		return false
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return false
	}
	opts.SessionID = resp.SessionID
	fmt.Printf("%s\n\n[session %s, %d turns, %s]\n", resp.Reply, resp.SessionID, resp.ConversationLength, time.Since(start).Round(time.Millisecond))
	return true
}

func printHistory(ctx context.Context, c *client.Client, sessionID string) {
	if sessionID == "" {
		fmt.Println("no session yet")
		return
	}
	h, err := c.History(ctx, sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	for _, t := range h.History {
		fmt.Printf("%s [%s]: %s\n", t.Role, time.UnixMilli(t.Timestamp).Format(time.Kitchen), t.Text)
	}
}
