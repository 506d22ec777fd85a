package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/watchlist/internal/backend"
	"github.com/mmcdole/watchlist/internal/config"
	"github.com/mmcdole/watchlist/internal/domain"
	"github.com/mmcdole/watchlist/internal/itemlist"
	"github.com/mmcdole/watchlist/internal/log"
	"github.com/mmcdole/watchlist/internal/opener"
	"github.com/mmcdole/watchlist/internal/session"
	"github.com/mmcdole/watchlist/internal/tui"
	"github.com/mmcdole/watchlist/internal/tui/styles"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

const maxSetupAttempts = 3

func main() {
	var showVersion bool
	var query string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&query, "q", "", "start with the list filtered by a title search")
	flag.Parse()

	if showVersion {
		fmt.Printf("watchlist %s\n", Version)
		return
	}

	if err := run(query); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(query string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting watchlist", "version", Version, "backend", cfg.Store.Backend)

	b, err := backend.New(context.Background(), cfg, config.SessionFile{}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("failed to close backend", "error", err)
		}
	}()

	if b.Auth.CurrentUser() == nil {
		if err := runSetupFlow(b.Auth); err != nil {
			return err
		}
	}

	sessions := session.NewController(b.Auth, itemlist.NewRepository(b.Docs), logger)
	defer sessions.Stop()

	links := make([]tui.Link, 0, len(cfg.UI.Links))
	for _, l := range cfg.UI.Links {
		links = append(links, tui.Link{Name: l.Name, URL: l.URL})
	}

	model := tui.NewModel(sessions, opener.New(cfg.UI.Opener, logger), links, logger).WithSearch(query)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI")

	final, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := final.(tui.Model); ok && m.SignedOut() {
		fmt.Println("Signed out.")
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow signs the user in, or creates an account, from the terminal
func runSetupFlow(auth domain.AuthClient) error {
	fmt.Println()
	fmt.Println("Welcome to Watchlist!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	signUp, err := promptChoice(reader)
	if err != nil {
		return err
	}

	for attempt := 1; ; attempt++ {
		email, err := promptLine(reader, "Email: ")
		if err != nil {
			return err
		}
		password, err := promptPassword(reader, "Password: ")
		if err != nil {
			return err
		}
		if email == "" || password == "" {
			fmt.Println("Email and password cannot be empty. Please try again.")
			continue
		}

		result, err := authenticateWithSpinner(auth, email, password, signUp)
		if err == nil {
			fmt.Println(styles.SuccessStyle.Render("✓ Signed in as " + result.Email))
			fmt.Println()
			return nil
		}

		fmt.Printf("✗ %s\n", describeAuthError(err))
		if attempt >= maxSetupAttempts {
			return fmt.Errorf("authentication failed: %w", err)
		}
		fmt.Println()
	}
}

func promptChoice(reader *bufio.Reader) (signUp bool, err error) {
	for {
		answer, err := promptLine(reader, "[s]ign in or [c]reate an account? ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "", "s", "sign in", "signin":
			return false, nil
		case "c", "create":
			return true, nil
		}
		fmt.Println("Please answer s or c.")
	}
}

func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

// promptPassword reads a password without echo when stdin is a terminal
func promptPassword(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func describeAuthError(err error) string {
	switch {
	case errors.Is(err, domain.ErrAuthFailed):
		return "Wrong email or password."
	case errors.Is(err, domain.ErrEmailExists):
		return "An account with that email already exists."
	case errors.Is(err, domain.ErrWeakPassword):
		return "Password is too weak."
	case errors.Is(err, domain.ErrStoreOffline):
		return "Could not reach the server."
	}
	return err.Error()
}

// authenticateWithSpinner runs the auth call with a visual spinner
func authenticateWithSpinner(auth domain.AuthClient, email, password string, signUp bool) (*domain.AuthResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	type result struct {
		res *domain.AuthResult
		err error
	}
	resultCh := make(chan result, 1)

	go func() {
		var res *domain.AuthResult
		var err error
		if signUp {
			res, err = auth.SignUp(ctx, email, password)
		} else {
			res, err = auth.SignIn(ctx, email, password)
		}
		resultCh <- result{res, err}
	}()

	frame := 0
	label := "Signing in..."
	if signUp {
		label = "Creating account..."
	}
	fmt.Printf("\r%s %s", styles.SpinnerFrames[frame], label)

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case r := <-resultCh:
			fmt.Print(clearSpinnerLine)
			return r.res, r.err

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s %s", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)], label)

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return nil, fmt.Errorf("sign-in timed out")
		}
	}
}
