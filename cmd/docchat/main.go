package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docchat/internal/config"
	"docchat/internal/service"
	"docchat/internal/stream"
	"docchat/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	root := &cobra.Command{
		Use:          "docchat [files...]",
		Short:        "Chat with your documents",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cfgPath, args)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docchat/config.yaml if not provided)")

	ask := &cobra.Command{
		Use:   "ask <question> [files...]",
		Short: "Answer one question and print the streamed reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cfgPath, args[0], args[1:])
		},
	}

	chunks := &cobra.Command{
		Use:   "chunks <files...>",
		Short: "Print the chunks built from the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChunks(cmd.Context(), cfgPath, args)
		},
	}

	root.AddCommand(ask, chunks)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.AppConfig, error) {
	if path == "" {
		cfg, _, err := config.LoadDefault()
		return cfg, err
	}
	return config.Load(path)
}

// prepare builds the app, restores persisted state and ingests paths.
func prepare(ctx context.Context, cfgPath string, paths []string, quiet bool) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	a, err := buildApp(ctx, cfg, quiet)
	if err != nil {
		return nil, err
	}
	if _, err := a.service.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if len(paths) == 0 {
		return a, nil
	}
	report, err := a.service.IngestDocuments(ctx, paths)
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "skipped %s: %v\n", f.Path, f.Err)
	}
	if err != nil && !errors.Is(err, service.ErrNoDocuments) {
		a.Close()
		return nil, fmt.Errorf("ingest failed: %w", err)
	}
	return a, nil
}

func runChat(ctx context.Context, cfgPath string, paths []string) error {
	a, err := prepare(ctx, cfgPath, paths, true)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.service.Summary()
	if err != nil {
		return err
	}
	if docs := a.service.Documents(); len(docs) > 0 {
		summary = strings.Join(docs, ", ") + "\n" + summary
	} else {
		summary = "No documents loaded. Start docchat with file arguments to add some."
	}
	m := tui.New(ctx, a.service, summary)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func runAsk(ctx context.Context, cfgPath, question string, paths []string) error {
	a, err := prepare(ctx, cfgPath, paths, false)
	if err != nil {
		return err
	}
	defer a.Close()

	token := stream.NewCancelToken()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)
	go func() {
		if _, ok := <-sig; ok {
			token.Cancel()
		}
	}()

	turn, err := a.service.Ask(ctx, question, token)
	if err != nil {
		return err
	}
	for {
		ev, more := turn.Next()
		if !more {
			break
		}
		if ev.Kind == stream.EventDelta {
			fmt.Print(ev.Text)
		}
	}
	msg := turn.Message()
	switch turn.Outcome() {
	case service.OutcomeCompleted:
		fmt.Println()
		for _, src := range msg.Sources {
			fmt.Printf("source: %s\n", src.Title)
		}
	case service.OutcomeCancelled:
		fmt.Println()
		fmt.Fprintln(os.Stderr, "cancelled")
	default:
		fmt.Println(msg.Text)
	}
	b := a.service.Budget()
	fmt.Fprintf(os.Stderr, "tokens %d/%d, about %d turns left\n", b.Consumed, b.TotalLimit, b.RemainingTurns)
	if turn.Outcome() == service.OutcomeFailed {
		return turn.Err()
	}
	return nil
}

func runChunks(ctx context.Context, cfgPath string, paths []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// Inspection only: nothing is persisted.
	cfg.Store = config.StoreConfig{Type: "memory"}
	a, err := buildApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.service.IngestDocuments(ctx, paths)
	for _, f := range report.Failures {
		fmt.Fprintf(os.Stderr, "skipped %s: %v\n", f.Path, f.Err)
	}
	if err != nil {
		return err
	}
	for _, c := range a.index.Current().Chunks {
		fmt.Printf("[%d] %d chars\n%s\n\n", c.Index, len([]rune(c.Text)), c.Text)
	}
	return nil
}
