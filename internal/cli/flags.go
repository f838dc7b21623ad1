package cli

import (
	"fmt"
	"strings"

	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/spf13/cobra"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string, fallback bool) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return fallback, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalIntFlag(cmd *cobra.Command, name string, fallback int) (int, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return fallback, nil
	}
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func stringSliceFlag(cmd *cobra.Command, name string) ([]string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return nil, nil
	}
	values, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return values, nil
}

// ParseKindFlag reads --kind. An empty flag returns 0.
func ParseKindFlag(cmd *cobra.Command) (snippet.Kind, error) {
	value, err := OptionalStringFlag(cmd, "kind")
	if err != nil || value == "" {
		return 0, err
	}
	return snippet.ParseKind(value)
}
