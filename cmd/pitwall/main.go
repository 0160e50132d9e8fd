// Package main provides the pitwall command line: sync runs, the HTTP server and admin tooling.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/pitwall/internal/api"
	"github.com/yourusername/pitwall/internal/calendar"
	"github.com/yourusername/pitwall/internal/config"
	applogger "github.com/yourusername/pitwall/internal/logger"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/scheduler"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	customerID string
	tokenRole  string
	tokenTTL   time.Duration
	logLimit   int
	cfg        *config.Config
	logger     *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	userStatsCmd.Flags().StringVar(&customerID, "customer-id", "", "iRacing customer id overriding the stored one")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(models.RoleAdmin), "Role claim (ADMIN or USER)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	syncLogCmd.Flags().IntVar(&logLimit, "limit", 10, "Number of runs to show")
}

var rootCmd = &cobra.Command{
	Use:           "pitwall",
	Short:         "iRacing team event sync",
	Long:          `Syncs iRacing special and endurance events into the team calendar and serves calendar exports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger = applogger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		metrics.InitRegistry()
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one manual sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			result := a.sync.Run(ctx, models.SyncSourceManual)
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("sync failed: %s", result.Error)
			}
			return nil
		})
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run scheduled syncs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), serve)
	},
}

var userStatsCmd = &cobra.Command{
	Use:   "user-stats <user-id>",
	Short: "Refresh one user's license stats",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}
		var override *string
		if customerID != "" {
			override = &customerID
		}

		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			result := a.userStats.SyncUserStats(ctx, userID, override)
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("user stats refresh failed: %s", result.Error)
			}
			return nil
		})
	},
}

var syncLogCmd = &cobra.Command{
	Use:   "sync-log",
	Short: "Show the most recent sync runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if logLimit <= 0 {
			return fmt.Errorf("--limit must be positive, got %d", logLimit)
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			logs, err := a.repos.SyncLog.ListRecent(ctx, logLimit)
			if err != nil {
				return fmt.Errorf("failed to list sync logs: %w", err)
			}
			return printJSON(logs)
		})
	},
}

var icsCmd = &cobra.Command{
	Use:   "ics <event-external-id>",
	Short: "Print the calendar file for a stored event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			ev, err := a.repos.EventReader.GetByExternalID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load event %s: %w", args[0], err)
			}
			doc := calendar.BuildICS(calendar.FromModel(ev, cfg.App.BaseURL, cfg.Location()), time.Now())
			_, err = fmt.Fprint(os.Stdout, doc)
			return err
		})
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify <event-external-id>",
	Short: "Announce a stored event to the team channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			payload, err := a.notifier.NotifyEvent(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(payload.Message())
			return nil
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a signed API token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := models.Role(tokenRole)
		if role != models.RoleAdmin && role != models.RoleUser {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		tokens, err := api.NewTokenManager(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		tok, err := tokens.IssueToken(args[0], role, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pitwall %s (%s)\n", Version, GitCommit)
	},
}

func main() {
	rootCmd.AddCommand(syncCmd, serveCmd, userStatsCmd, syncLogCmd, icsCmd, notifyCmd, tokenCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	return config.ValidateEnvironment(cfg)
}

func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func serve(ctx context.Context, a *app) error {
	deps := api.Dependencies{
		Sync:        a.sync,
		UserStats:   a.userStats,
		Events:      a.repos.EventReader,
		Pages:       a.pages,
		SyncLogs:    a.repos.SyncLog,
		DriverStats: a.repos.DriverStats,
		Notifier:    a.notifier,
		DB:          a.db,
		Upstream:    a.httpClient,
	}
	if cfg.Auth.JWTSecret != "" {
		tokens, err := api.NewTokenManager(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		deps.Tokens = tokens
	} else {
		logger.Warn("auth.jwt_secret is not set; admin endpoints are disabled")
	}

	if cfg.Sync.Schedule != "" {
		sched := scheduler.NewScheduler(a.sync, cfg.Location(), logger)
		if err := sched.ScheduleSync(cfg.Sync.Schedule); err != nil {
			return fmt.Errorf("failed to schedule sync: %w", err)
		}
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
		logger.WithField("next_run", sched.NextRun()).Info("Scheduled sync enabled")
	}

	server := api.NewServer(cfg, deps, Version, logger)
	server.SetReady(true)

	logger.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("Pitwall starting")

	err := server.Start(ctx)

	hits, misses, ratio := a.pages.Stats()
	logger.WithFields(logrus.Fields{
		"page_cache_hits":   hits,
		"page_cache_misses": misses,
		"page_cache_ratio":  ratio,
	}).Info("Pitwall stopped")

	return err
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
