package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/joho/godotenv"

	"github.com/zhouzirui/persona-interview/backend/internal/config"
	"github.com/zhouzirui/persona-interview/backend/internal/service/bot"
	"github.com/zhouzirui/persona-interview/backend/internal/service/interview"
)

var shellCommands = []string{
	"/progress        show section progress",
	"/export [path]   save the persona once the interview is complete",
	"/help            list commands",
	"/quit            leave the interview",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	factory, err := bot.NewFactoryFromConfig(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to prepare interview bot: %v", err)
	}

	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, ".persona-interview", "history")
	}
	input, err := newLineInput(historyPath)
	if err != nil {
		log.Printf("readline unavailable, using plain input: %v", err)
	}
	defer input.Close()

	sh := &shell{
		controller: interview.NewController(factory.New()),
		input:      input,
		out:        os.Stdout,
	}
	if err := sh.run(ctx); err != nil {
		log.Fatalf("interview failed: %v", err)
	}
}

// shell drives one interview from a line-oriented terminal.
type shell struct {
	controller *interview.Controller
	input      lineInput
	out        io.Writer
	width      int
}

func (s *shell) run(ctx context.Context) error {
	fmt.Fprintln(s.out, interviewerStyle.Render("Persona Interview"))
	fmt.Fprintln(s.out, mutedStyle.Render("Type your answers. Commands: /progress, /export [path], /help, /quit"))
	fmt.Fprintln(s.out)

	opening, err := s.controller.Begin(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, renderEntry(opening))

	for {
		line, err := s.input.ReadLine(s.prompt())
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(s.out)
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(s.out, mutedStyle.Render("bye"))
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}

		text := strings.TrimSpace(line)
		if strings.HasPrefix(text, "/") {
			if quit := s.handleCommand(text); quit {
				return nil
			}
			continue
		}

		entries, err := s.controller.Submit(ctx, text)
		if err != nil {
			fmt.Fprintln(s.out, renderError(err))
			continue
		}
		// The first entry echoes the user's own answer.
		for _, entry := range entries[min(1, len(entries)):] {
			fmt.Fprintln(s.out, renderEntry(entry))
		}
		if len(entries) > 0 && s.controller.Phase() == interview.PhaseComplete {
			s.printSummary()
		}
	}
}

func (s *shell) prompt() string {
	if remaining, err := s.controller.RemainingTime(); err == nil {
		return fmt.Sprintf("[%s] you> ", formatClock(remaining.Round(time.Second)))
	}
	return "you> "
}

func (s *shell) handleCommand(text string) bool {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/exit":
		fmt.Fprintln(s.out, mutedStyle.Render("bye"))
		return true
	case "/progress":
		fmt.Fprintln(s.out, renderProgress(s.controller.SectionProgress()))
	case "/export":
		path := ""
		if len(fields) > 1 {
			path = fields[1]
		}
		saved, err := s.export(path)
		if err != nil {
			fmt.Fprintln(s.out, renderError(err))
			return false
		}
		fmt.Fprintln(s.out, successStyle.Render("persona saved to "+saved))
	case "/help":
		for _, cmd := range shellCommands {
			fmt.Fprintf(s.out, "  %s\n", cmd)
		}
	default:
		fmt.Fprintln(s.out, renderError(fmt.Errorf("unknown command %s", fields[0])))
	}
	return false
}

func (s *shell) export(path string) (string, error) {
	record, err := s.controller.Export()
	if err != nil {
		return "", err
	}
	if path == "" {
		path = record.FileName()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode persona: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write persona: %w", err)
	}
	return path, nil
}

func (s *shell) printSummary() {
	state := s.controller.Snapshot()
	if state.Summary == nil {
		return
	}
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, renderMarkdown(state.Summary.Markdown(), s.width))
	fmt.Fprintln(s.out, mutedStyle.Render("Use /export [path] to save the persona, /quit to leave."))
}
