package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"ircclient/internal/client"
	"ircclient/internal/config"
	"ircclient/internal/metrics"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	// Load .env file if present; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	c := client.New(cfg, logger, m)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return startMetricsServer(ctx, cfg.Metrics.Addr, logger)
		})
	}

	// Print events as they arrive; the joiner rejoins the configured
	// channels each time a connection completes registration.
	joiner := &autoJoiner{channels: cfg.IRC.Channels, join: c.JoinChannel, logger: logger}
	c.Subscribe(func(ev client.Event) {
		if snap, ok := ev.(client.StateSnapshot); ok {
			joiner.observe(snap)
			return
		}
		if line := formatEvent(ev); line != "" {
			fmt.Println(line)
		}
	})

	dialCtx, dialCancel := context.WithTimeout(ctx, 30*time.Second)
	err = c.Connect(dialCtx)
	dialCancel()
	if err != nil {
		logger.Error("connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The input loop runs outside the errgroup because a blocked stdin read
	// cannot be interrupted; it cancels the context when the user quits.
	go func() {
		fmt.Println("Type /help for commands")
		scanner := bufio.NewScanner(os.Stdin)
		current := ""
		for scanner.Scan() {
			if handleInput(c, scanner.Text(), &current) {
				break
			}
		}
		cancel()
	}()

	g.Go(func() error {
		return stopSignalHandler(ctx, cancel, logger)
	})

	if err := g.Wait(); err != nil {
		logger.Error("client terminated with error", slog.String("error", err.Error()))
	}

	if err := c.Disconnect(); err != nil {
		logger.Error("disconnect failed", slog.String("error", err.Error()))
	}
	logger.Info("ircclient stopped")
}

// setupLogger creates a structured logger with the specified level and format.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// startMetricsServer runs the Prometheus metrics HTTP server and blocks
// until the context is cancelled.
func startMetricsServer(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Starting metrics server", slog.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error", slog.String("error", err.Error()))
			return err
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func stopSignalHandler(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-c:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
		return nil
	case <-ctx.Done():
		return nil
	}
}

// autoJoiner joins a fixed set of channels whenever a connection completes
// registration, including again after a reconnect.
type autoJoiner struct {
	channels []string
	join     func(string) error
	logger   *slog.Logger

	mu         sync.Mutex
	registered bool
}

// observe tracks the registration state through snapshots and fires the
// joins on each transition into the registered state.
func (a *autoJoiner) observe(snap client.StateSnapshot) {
	a.mu.Lock()
	fresh := snap.Registered && !a.registered
	a.registered = snap.Registered
	a.mu.Unlock()

	if !fresh {
		return
	}
	for _, ch := range a.channels {
		if err := a.join(ch); err != nil {
			a.logger.Warn("autojoin failed",
				slog.String("channel", ch),
				slog.String("error", err.Error()))
		}
	}
}

// parseInput splits one line of user input into a slash command name and its
// argument string. Lines without a leading slash are plain chat text.
func parseInput(line string) (string, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	if !strings.HasPrefix(line, "/") {
		return "say", line
	}
	name, args, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	return strings.ToLower(name), strings.TrimSpace(args)
}

// channelName adds the # marker to unmarked channel names, mirroring what
// the client does on join, so the prompt's current target matches the
// channel names in events.
func channelName(name string) string {
	name = strings.TrimSpace(name)
	if name != "" && !strings.HasPrefix(name, "#") && !strings.HasPrefix(name, "&") {
		return "#" + name
	}
	return name
}

// handleInput applies one line of user input to the client. It returns true
// when the user asked to quit.
func handleInput(c *client.Client, input string, current *string) bool {
	name, args := parseInput(input)

	switch name {
	case "":
		return false

	case "quit", "exit":
		return true

	case "help":
		fmt.Println("Commands: /join <channel>, /part [channel], /msg <target> <text>,")
		fmt.Println("          /channels, /connect, /disconnect, /quit")
		fmt.Println("Plain text goes to the current channel.")

	case "connect":
		if err := c.Connect(context.Background()); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "disconnect":
		if err := c.Disconnect(); err != nil {
			fmt.Printf("error: %v\n", err)
		}

	case "join":
		if args == "" {
			fmt.Println("usage: /join <channel>")
			return false
		}
		if err := c.JoinChannel(args); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		*current = channelName(args)

	case "part":
		target := channelName(args)
		if target == "" {
			target = *current
		}
		if target == "" {
			fmt.Println("usage: /part <channel>")
			return false
		}
		if err := c.PartChannel(target); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		if target == *current {
			*current = ""
		}

	case "msg":
		target, text, _ := strings.Cut(args, " ")
		if target == "" || strings.TrimSpace(text) == "" {
			fmt.Println("usage: /msg <target> <text>")
			return false
		}
		if err := c.SendMessage(target, text); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Printf("[%s] <%s> %s\n", target, c.Nick(), text)

	case "channels":
		channels := c.Channels()
		if len(channels) == 0 {
			fmt.Println("Not in any channels")
			return false
		}
		for _, ch := range channels {
			if ch.Topic != "" {
				fmt.Printf("%s (%d users) %s\n", ch.Name, ch.UserCount, ch.Topic)
			} else {
				fmt.Printf("%s (%d users)\n", ch.Name, ch.UserCount)
			}
		}

	case "say":
		if *current == "" {
			fmt.Println("Join a channel first, or use /msg <target> <text>")
			return false
		}
		if err := c.SendMessage(*current, args); err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Printf("[%s] <%s> %s\n", *current, c.Nick(), args)

	default:
		fmt.Printf("unknown command: /%s\n", name)
	}
	return false
}

// formatEvent renders one client event as a display line. Snapshots carry
// state rather than output and render as the empty string.
func formatEvent(ev client.Event) string {
	switch v := ev.(type) {
	case client.ChatMessage:
		switch v.Kind {
		case client.KindMessage:
			return fmt.Sprintf("[%s] <%s> %s", v.Channel, v.Nick, v.Content)
		case client.KindNotice:
			return fmt.Sprintf("[%s] -%s- %s", v.Channel, v.Nick, v.Content)
		case client.KindJoin:
			return fmt.Sprintf("[%s] * %s joined", v.Channel, v.Nick)
		case client.KindPart:
			if v.Content != "" {
				return fmt.Sprintf("[%s] * %s left (%s)", v.Channel, v.Nick, v.Content)
			}
			return fmt.Sprintf("[%s] * %s left", v.Channel, v.Nick)
		case client.KindQuit:
			if v.Content != "" {
				return fmt.Sprintf("[%s] * %s quit (%s)", v.Channel, v.Nick, v.Content)
			}
			return fmt.Sprintf("[%s] * %s quit", v.Channel, v.Nick)
		case client.KindTopic:
			return fmt.Sprintf("[%s] * %s set the topic to: %s", v.Channel, v.Nick, v.Content)
		case client.KindNick:
			return fmt.Sprintf("* %s is now known as %s", v.Nick, v.Content)
		}
	case client.SystemNotice:
		return "-- " + v.Text
	}
	return ""
}
