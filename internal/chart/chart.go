// Package chart loads a chart of accounts from YAML and applies it through the account registry.
package chart

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/SscSPs/backoffice_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/backoffice_ledger/internal/core/ports/services"
	"github.com/SscSPs/backoffice_ledger/internal/middleware"
	"gopkg.in/yaml.v3"
)

// AccountDefinition is one account of the seed file.
type AccountDefinition struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Chart is the root of a chart of accounts file.
type Chart struct {
	Accounts []AccountDefinition `yaml:"accounts"`
}

// Load reads and validates the chart file at path.
func Load(path string) (*Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart of accounts %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a chart of accounts and checks every definition.
func Parse(data []byte) (*Chart, error) {
	var c Chart
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse chart of accounts: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Accounts))
	for i, def := range c.Accounts {
		if strings.TrimSpace(def.Code) == "" {
			return nil, fmt.Errorf("chart entry %d has no code", i)
		}
		if strings.TrimSpace(def.Name) == "" {
			return nil, fmt.Errorf("chart entry %s has no name", def.Code)
		}
		if _, err := domain.ParseAccountType(def.Type); err != nil {
			return nil, fmt.Errorf("chart entry %s: %w", def.Code, err)
		}
		if _, dup := seen[def.Code]; dup {
			return nil, fmt.Errorf("chart entry %s is listed twice", def.Code)
		}
		seen[def.Code] = struct{}{}
	}
	return &c, nil
}

// Seed ensures every account of the chart exists. Accounts that already exist are
// left as they are, so seeding twice is harmless. It returns the number of accounts applied.
func Seed(ctx context.Context, accounts portssvc.AccountWriterSvc, c *Chart) (int, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	for i, def := range c.Accounts {
		if _, err := accounts.EnsureAccount(ctx, def.Code, def.Name, domain.AccountType(def.Type)); err != nil {
			return i, fmt.Errorf("failed to seed account %s: %w", def.Code, err)
		}
	}
	logger.Info("Chart of accounts applied", slog.Int("accounts", len(c.Accounts)))
	return len(c.Accounts), nil
}
