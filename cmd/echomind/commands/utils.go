// ABOUTME: Shared helpers for CLI commands
// ABOUTME: Config loading, app startup, situation flags, and output formatting
package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/harper/echomind/internal/app"
	"github.com/harper/echomind/internal/config"
	"github.com/harper/echomind/internal/models"
)

// loadConfig reads .env, the config file, and the environment, then applies
// the --db override
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	return cfg, nil
}

// openApp loads configuration and starts the engine. Collection setup
// failures are left in App.InitErr for the caller to judge.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := app.NewLogger(verbose, quiet)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	return a, nil
}

// situationFlags are the user, category, and context flags shared by the
// lookup and record commands
type situationFlags struct {
	user      string
	category  string
	timeOfDay string
	day       string
	location  string
}

func (s *situationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.user, "user", "u", "", "User id (default from config)")
	cmd.Flags().StringVarP(&s.category, "category", "c", "", "Category: body, feelings, activities, help, or the full name")
	cmd.Flags().StringVar(&s.timeOfDay, "time", "", "Time of day: morning, afternoon, evening (default: now)")
	cmd.Flags().StringVar(&s.day, "day", "", "Day of week (default: today)")
	cmd.Flags().StringVar(&s.location, "location", "", "Where the child is (default: unknown)")
	_ = cmd.MarkFlagRequired("category")
}

// resolve returns the user id and canonical category
func (s *situationFlags) resolve(cfg *config.Config) (string, models.Category, error) {
	category, err := models.ParseCategory(s.category)
	if err != nil {
		return "", "", err
	}
	userID := strings.TrimSpace(s.user)
	if userID == "" {
		userID = cfg.DefaultUser
	}
	return userID, category, nil
}

// fields fills time of day and day of week from now when not given
func (s *situationFlags) fields(now time.Time) models.ContextFields {
	current := models.ContextAt(now, s.location)
	f := models.ContextFields{
		TimeOfDay: s.timeOfDay,
		DayOfWeek: s.day,
		Location:  s.location,
	}
	if f.TimeOfDay == "" {
		f.TimeOfDay = current.TimeOfDay
	}
	if f.DayOfWeek == "" {
		f.DayOfWeek = current.DayOfWeek
	}
	return f
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
	return nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// validatePositiveInt returns error if n is not positive
func validatePositiveInt(n int, name string) error {
	if n <= 0 {
		return fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return nil
}
