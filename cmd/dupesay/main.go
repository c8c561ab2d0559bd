// Command dupesay sends lines read from stdin to a chat channel. Repeated
// lines get an invisible suffix so the server does not drop them.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/nicebartender/dupeguard/chat"
)

type config struct {
	URL             string        `env:"DUPEGUARD_URL" envDefault:"ws://localhost:8090"`
	Username        string        `env:"DUPEGUARD_USERNAME"`
	Channel         string        `env:"DUPEGUARD_CHANNEL"`
	Join            bool          `env:"DUPEGUARD_JOIN" envDefault:"true"`
	AvoidDuplicates bool          `env:"DUPEGUARD_AVOID_DUPLICATES" envDefault:"true"`
	Timeout         time.Duration `env:"DUPEGUARD_TIMEOUT" envDefault:"30s"`
	LogLevel        slog.Level    `env:"DUPEGUARD_LOG_LEVEL" envDefault:"INFO"`
}

func loadConfig(args []string) (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}

	fs := flag.NewFlagSet("dupesay", flag.ContinueOnError)
	fs.StringVar(&cfg.URL, "url", cfg.URL, "Relay websocket URL")
	fs.StringVar(&cfg.Username, "username", cfg.Username, "Login name")
	fs.StringVar(&cfg.Channel, "channel", cfg.Channel, "Channel to send to")
	fs.BoolVar(&cfg.Join, "join", cfg.Join, "Join the channel before sending")
	fs.BoolVar(&cfg.AvoidDuplicates, "avoid-duplicates", cfg.AvoidDuplicates, "Append an invisible suffix to repeated messages")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	fs.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if cfg.Username == "" {
		return config{}, errors.New("username is required")
	}
	if chat.NormalizeChannel(cfg.Channel) == "" {
		return config{}, errors.New("channel is required")
	}
	return cfg, nil
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "dupesay: %v\n", err)
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin); err != nil {
		slog.Error("dupesay failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, in io.Reader) error {
	client := chat.NewClient(chat.Config{
		URL:             cfg.URL,
		Username:        cfg.Username,
		AvoidDuplicates: cfg.AvoidDuplicates,
		RequestTimeout:  cfg.Timeout,
	})
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	client.OnMessage(func(m chat.Message) {
		slog.Info("message", "channel", m.Channel, "sender", m.Sender, "action", m.Action, "text", m.Text)
	})

	if cfg.Join {
		if err := client.Join(ctx, cfg.Channel); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, arg := parseLine(scanner.Text())
		if cmd == cmdQuit {
			return nil
		}
		if err := execute(ctx, client, cfg.Channel, cmd, arg); err != nil {
			var reqErr *chat.RequestError
			if !errors.As(err, &reqErr) {
				return err
			}
			slog.Warn("request rejected", "code", reqErr.Code, "message", reqErr.Message)
		}
	}
	return scanner.Err()
}

type command int

const (
	cmdNone command = iota
	cmdSay
	cmdMe
	cmdJoin
	cmdPart
	cmdQuit
)

// parseLine maps an input line to a command. Lines starting with "//" are
// sent as text with the first slash removed.
func parseLine(line string) (command, string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return cmdNone, ""
	}
	if strings.HasPrefix(line, "//") {
		return cmdSay, line[1:]
	}
	if !strings.HasPrefix(line, "/") {
		return cmdSay, line
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	switch name {
	case "me":
		return cmdMe, arg
	case "join":
		return cmdJoin, ""
	case "part":
		return cmdPart, ""
	case "quit":
		return cmdQuit, ""
	}
	return cmdSay, line
}

func execute(ctx context.Context, client *chat.Client, channel string, cmd command, arg string) error {
	switch cmd {
	case cmdSay:
		return client.Say(ctx, channel, arg)
	case cmdMe:
		return client.Me(ctx, channel, arg)
	case cmdJoin:
		return client.Join(ctx, channel)
	case cmdPart:
		return client.Part(ctx, channel)
	}
	return nil
}
