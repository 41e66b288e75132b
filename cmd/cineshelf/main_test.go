package main

import (
	"testing"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCmd()

	want := map[string]bool{
		"version":   false,
		"browse":    false,
		"details":   false,
		"watchlist": false,
		"config":    false,
		"bot":       false,
		"mcp-serve": false,
	}

	for _, cmd := range root.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	root := newRootCmd()
	flag := root.PersistentFlags().Lookup("config")
	if flag == nil {
		t.Fatal("--config flag not registered")
	}
	if flag.DefValue != "configs/cineshelf.yaml" {
		t.Errorf("--config default = %q, want %q", flag.DefValue, "configs/cineshelf.yaml")
	}
	if flag.Shorthand != "c" {
		t.Errorf("--config shorthand = %q, want %q", flag.Shorthand, "c")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("Use = %q, want %q", cmd.Use, "version")
	}
}

func TestDetailsCommand_RequiresOneArg(t *testing.T) {
	cmd := newDetailsCmd()
	if err := cmd.Args(cmd, []string{}); err == nil {
		t.Error("details command should require a movie id")
	}
	if err := cmd.Args(cmd, []string{"1", "2"}); err == nil {
		t.Error("details command should reject extra args")
	}
	if err := cmd.Args(cmd, []string{"603"}); err != nil {
		t.Errorf("details command should accept one arg: %v", err)
	}
}

func TestConfigCommand_HasValidateSubcommand(t *testing.T) {
	cmd := newConfigCmd()
	found := false
	for _, sub := range cmd.Commands() {
		if sub.Name() == "validate" {
			found = true
			break
		}
	}
	if !found {
		t.Error("config command missing 'validate' subcommand")
	}
}

func TestWatchlistCommand_Subcommands(t *testing.T) {
	cmd := newWatchlistCmd()
	want := map[string]bool{"list": false, "add": false, "remove": false, "contains": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("watchlist subcommand %q not registered", name)
		}
	}
}

func TestBotCommand_MissingTelegramConfig(t *testing.T) {
	t.Setenv("CINESHELF_TELEGRAM_BOT_TOKEN", "")
	t.Setenv("CINESHELF_TMDB_API_KEY", "test-key")

	path := writeConfig(t, `
tmdb:
  api_key: test-key
storage:
  driver: sqlite3
  dsn: ":memory:"
`)
	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })

	err := runBot()
	if err == nil {
		t.Fatal("expected error without telegram config")
	}
}
