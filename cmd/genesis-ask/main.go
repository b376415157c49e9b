// Command genesis-ask runs the pipeline in-process and prints every stage.
//
//	go run ./cmd/genesis-ask "¿Qué es Docker?"
//	go run ./cmd/genesis-ask             # interactive, one question per line
//	go run ./cmd/genesis-ask -history 5
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/genesis/internal/app"
	"github.com/kailas-cloud/genesis/internal/config"
	logpkg "github.com/kailas-cloud/genesis/internal/logger"
	chatuc "github.com/kailas-cloud/genesis/internal/usecase/chat"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file (default: config/$ENV.yaml)")
	userID := flag.String("user", "", "user id recorded with each interaction")
	history := flag.Int("history", 0, "print the last N interactions after answering")
	logLevel := flag.String("log-level", "error", "log level")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, *logLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}
	defer a.Close()

	p := newPrinter(os.Stdout)
	logger.Debug("Knowledge base ready", zap.Int("documents", a.Index.Len()))

	if q := strings.TrimSpace(strings.Join(flag.Args(), " ")); q != "" {
		if err := ask(ctx, a.Chat, p, q, *userID); err != nil {
			return err
		}
	} else if *history == 0 {
		if err := repl(ctx, a.Chat, p, *userID); err != nil {
			return err
		}
	}

	if *history > 0 {
		items, err := a.Chat.Recent(ctx, *history)
		if err != nil {
			return fmt.Errorf("list interactions: %w", err)
		}
		p.History(items)
	}
	return nil
}

func ask(ctx context.Context, chat *chatuc.Service, p *printer, query, userID string) error {
	res, err := chat.Ask(ctx, chatuc.Request{Message: query, UserID: userID})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	p.Result(res)
	return nil
}

func repl(ctx context.Context, chat *chatuc.Service, p *printer, userID string) error {
	p.Prompt()
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
		case "salir", "exit", "quit":
			return nil
		default:
			if err := ask(ctx, chat, p, line, userID); err != nil {
				p.Error(err)
			}
		}
		p.Prompt()
	}
	return sc.Err()
}
