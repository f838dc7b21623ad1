package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadDefaultsAndEnvironment(t *testing.T) {
	home := t.TempDir()
	t.Setenv(EnvHome, home)
	t.Setenv(EnvUserDir, "")
	t.Setenv(EnvLanguage, " go ")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	cfg, err := Load(LoadOptions{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Home != home {
		t.Fatalf("expected home from environment, got %s", cfg.Home)
	}
	if cfg.Language != "go" {
		t.Fatalf("expected active language, got %q", cfg.Language)
	}
	if cfg.WorkspaceDir != ".vscode" {
		t.Fatalf("expected default workspace dir, got %q", cfg.WorkspaceDir)
	}
	if cfg.ScratchDir() != filepath.Join(home, "snippets") {
		t.Fatalf("unexpected scratch dir %s", cfg.ScratchDir())
	}
}

func TestLoadSettingsFileAndOverrides(t *testing.T) {
	home := t.TempDir()
	settings := "userDir: /from/settings\nfixedLanguages: [go, go, python]\nscopeLanguages: [go]\neditor: nano\n"
	if err := os.WriteFile(filepath.Join(home, SettingsFile), []byte(settings), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv(EnvUserDir, "")

	cfg, err := Load(LoadOptions{Home: home})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UserDir != "/from/settings" || cfg.Editor != "nano" {
		t.Fatalf("expected settings values, got %#v", cfg.Settings)
	}
	if !reflect.DeepEqual(cfg.FixedLanguages, []string{"go", "python"}) {
		t.Fatalf("expected deduplicated fixed languages, got %v", cfg.FixedLanguages)
	}

	t.Setenv(EnvUserDir, "/from/env")
	cfg, err = Load(LoadOptions{Home: home})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.UserDir != "/from/env" {
		t.Fatalf("expected environment to win, got %s", cfg.UserDir)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte(EnvLanguage+"=rust\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv(EnvLanguage, "")
	os.Unsetenv(EnvLanguage)

	cfg, err := Load(LoadOptions{Home: dir, EnvFiles: []string{envFile, filepath.Join(dir, "missing.env")}})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Language != "rust" {
		t.Fatalf("expected language from dotenv, got %q", cfg.Language)
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	home := t.TempDir()
	cfg := &Config{Home: home}
	if err := cfg.SaveSettings(Settings{FixedLanguages: []string{"go"}, Editor: "vim"}); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	loaded, err := Load(LoadOptions{Home: home})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Editor != "vim" || !reflect.DeepEqual(loaded.FixedLanguages, []string{"go"}) {
		t.Fatalf("unexpected settings after round trip %#v", loaded.Settings)
	}
}

func TestUpdateFixedLanguagesKeepsOverridesOutOfFile(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, SettingsFile), []byte("fixedLanguages: [go, python]\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv(EnvUserDir, "/from/env")

	cfg, err := Load(LoadOptions{Home: home})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.UpdateFixedLanguages([]string{" rust ", "go"}, []string{"python"}); err != nil {
		t.Fatalf("UpdateFixedLanguages failed: %v", err)
	}
	if !reflect.DeepEqual(cfg.FixedLanguages, []string{"go", "rust"}) {
		t.Fatalf("expected in-memory update, got %v", cfg.FixedLanguages)
	}

	stored, err := cfg.ReadSettings()
	if err != nil {
		t.Fatalf("ReadSettings failed: %v", err)
	}
	if !reflect.DeepEqual(stored.FixedLanguages, []string{"go", "rust"}) {
		t.Fatalf("expected stored update, got %v", stored.FixedLanguages)
	}
	if stored.UserDir != "" {
		t.Fatalf("expected environment override to stay out of settings, got %q", stored.UserDir)
	}
}

func TestLayout(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{Settings: Settings{UserDir: "/user", WorkspaceDir: ".vscode", Workspaces: []string{"/configured"}}}

	layout, err := cfg.Layout([]string{root, root})
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	folders := layout.Folders.WorkspaceFolders()
	if len(folders) != 1 || folders[0].Root != root {
		t.Fatalf("expected explicit workspace to win, got %#v", folders)
	}
	if layout.WorkspaceDir(root) != filepath.Join(root, ".vscode") {
		t.Fatalf("unexpected workspace dir %s", layout.WorkspaceDir(root))
	}

	layout, err = cfg.Layout(nil)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if folders := layout.Folders.WorkspaceFolders(); len(folders) != 1 || folders[0].Root != "/configured" {
		t.Fatalf("expected configured workspace, got %#v", folders)
	}
}

func TestDefaultUserDir(t *testing.T) {
	env := map[string]string{"HOME": "/home/me", "APPDATA": `C:\Users\me\AppData\Roaming`}
	getenv := func(key string) string { return env[key] }

	if got := DefaultUserDir("linux", getenv); got != filepath.Join("/home/me", ".config", "Code", "User", "snippets") {
		t.Fatalf("unexpected linux dir %s", got)
	}
	if got := DefaultUserDir("darwin", getenv); got != filepath.Join("/home/me", "Library", "Application Support", "Code", "User", "snippets") {
		t.Fatalf("unexpected darwin dir %s", got)
	}
}
