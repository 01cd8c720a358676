// Package cli is the pathlight terminal client. It drives the same backend
// client, session guard and dashboard service as the web front-end, with a
// bbolt file standing in for browser storage.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"pathlight-web/internal/config"
	"pathlight-web/internal/container"
	"pathlight-web/pkg/logger"
	"pathlight-web/pkg/tokenstore"
)

// SessionFile is the token store file name under the pathlight home dir
const SessionFile = "session.db"

// App holds what every command needs
type App struct {
	Container *container.Container
	Store     tokenstore.Store

	In  io.Reader
	Out io.Writer

	// ReadPassword reads a line without echo; replaced in tests
	ReadPassword func(fd int) ([]byte, error)

	closeStore func() error
	reader     *bufio.Reader
}

// NewApp builds an App from config, logging to stderr so command output
// stays clean
func NewApp(cfg *config.Config) (*App, error) {
	log, err := logger.NewWithWriter(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	c, err := container.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("creating container: %w", err)
	}
	return &App{
		Container:    c,
		In:           os.Stdin,
		Out:          os.Stdout,
		ReadPassword: term.ReadPassword,
	}, nil
}

// openStore opens the bbolt session file unless a store was injected
func (a *App) openStore() error {
	if a.Store != nil {
		return nil
	}
	path := filepath.Join(a.Container.GetConfig().Home, SessionFile)
	store, err := tokenstore.OpenBoltStore(path)
	if err != nil {
		return err
	}
	a.Store = store
	a.closeStore = store.Close
	return nil
}

func (a *App) close() error {
	if a.closeStore == nil {
		return nil
	}
	err := a.closeStore()
	a.closeStore = nil
	a.Store = nil
	return err
}

func (a *App) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.Out, format, args...)
}

// prompt prints label and reads one trimmed line
func (a *App) prompt(label string) (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.In)
	}
	a.printf("%s: ", label)
	line, err := a.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) password() (string, error) {
	a.printf("Password: ")
	b, err := a.ReadPassword(int(os.Stdin.Fd()))
	a.printf("\n")
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
