package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"CyMarker/internal/cli/api"
	"CyMarker/internal/cli/repo"
	"CyMarker/internal/cli/repo/fs"
	"CyMarker/internal/config"
)

// ErrUsage is returned by a command when arguments are invalid and usage should be shown.
var ErrUsage = errors.New("usage")

// Command represents a CLI subcommand.
type Command interface {
	// Name returns the command name as typed by the user, e.g. "login".
	Name() string
	// Description is a short human-readable description shown in help.
	Description() string
	// Usage returns the exact usage string, e.g. "login <username> <password>".
	Usage() string
	// Run executes the command with provided args (without the command name).
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// registry holds available commands by name.
var registry = map[string]Command{}

// Out — общий writer для вывода CLI. По умолчанию os.Stdout, но в тестах может переназначаться.
var Out io.Writer = os.Stdout

// RegisterCmd adds a command to the registry. Should be called from init() of each command.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get returns a command by name.
func Get(name string) (Command, bool) {
	c, ok := registry[name]
	return c, ok
}

// List returns all registered commands sorted by name.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// FormatGlobalUsage builds a help text for all commands.
func FormatGlobalUsage() string {
	lines := []string{
		"CyMarker CLI",
		"",
		"Usage:",
		"  cymarker [--base-url <host:port>] [--token-file <path>] <command> [args]",
		"",
		"Commands:",
	}
	for _, c := range List() {
		lines = append(lines, fmt.Sprintf("  %-44s %s", c.Usage(), c.Description()))
	}
	return strings.Join(lines, "\n") + "\n"
}

// tokenStore — хранилище токена по пути из конфигурации.
func tokenStore(cfg *config.Config) repo.TokenStore {
	return fs.TokenFile{Path: cfg.TokenFile}
}

// anonymousClient — клиент без токена.
func anonymousClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.ServerURL, "")
}

// authedClient — клиент с сохранённым токеном. Без токена просит выполнить login.
func authedClient(cfg *config.Config) (*api.Client, error) {
	token, err := tokenStore(cfg).Load()
	if errors.Is(err, fs.ErrNoToken) {
		return nil, errors.New("not logged in, run: login <username> <password>")
	}
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.ServerURL, token), nil
}
