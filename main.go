package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/learnstate/internal/achievements"
	"github.com/example/learnstate/internal/challenges"
	"github.com/example/learnstate/internal/config"
	"github.com/example/learnstate/internal/database"
	"github.com/example/learnstate/internal/engine"
	"github.com/example/learnstate/internal/excel"
	"github.com/example/learnstate/internal/scheduler"
	"github.com/example/learnstate/internal/snapshot"
	"github.com/example/learnstate/internal/worker"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "learnstate",
		Short:         "Learner progress, badges and flashcard scheduling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", ".env", "optional .env file")

	root.AddCommand(newProgressCmd(&envFile))
	root.AddCommand(newStatsCmd(&envFile))
	root.AddCommand(newRecordStatCmd(&envFile))
	root.AddCommand(newDueCmd(&envFile))
	root.AddCommand(newReviewCmd(&envFile))
	root.AddCommand(newImportCmd(&envFile))
	root.AddCommand(newExportCmd(&envFile))
	root.AddCommand(newMaintainCmd(&envFile))
	return root
}

// app is everything a command needs; close releases the connection
type app struct {
	cfg       config.Config
	store     *database.Store
	snapshots *snapshot.FileStore
	engine    *engine.Engine
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}
}

func loadApp(ctx context.Context, envFile string) (*app, error) {
	cfg := config.Load(envFile)

	badges := achievements.DefaultCatalog()
	if cfg.BadgeCatalog != "" {
		c, err := achievements.LoadCatalog(cfg.BadgeCatalog)
		if err != nil {
			return nil, err
		}
		badges = c
	}
	daily := challenges.DefaultCatalog()
	if cfg.ChallengeCatalog != "" {
		c, err := challenges.LoadCatalog(cfg.ChallengeCatalog)
		if err != nil {
			return nil, err
		}
		daily = c
	}

	store, err := database.Open(cfg.Target(), cfg.Options())
	if err != nil {
		// progress still works from snapshot files
		log.Printf("Database unavailable, running offline: %v", err)
		store = nil
	}

	snapshots := snapshot.NewFileStore(cfg.SnapshotDir)
	eng, err := engine.New(ctx, engine.Deps{
		Store:            store,
		Snapshots:        snapshots,
		Badges:           badges,
		Challenges:       daily,
		ChallengesPerDay: cfg.ChallengesPerDay,
		MasteryThreshold: cfg.MasteryThreshold,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return &app{cfg: cfg, store: store, snapshots: snapshots, engine: eng}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newProgressCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <user> <curriculum>",
		Short: "Show a progress record and where it was loaded from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			p, source := a.engine.Progress(ctx, args[0], args[1])
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "source: %s\n", source)
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newStatsCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <user>",
		Short: "Print aggregate statistics for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.engine.Stats(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newRecordStatCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "record-stat <user> <curriculum> <event>",
		Short: "Count a study event (section_studied, perfect_quiz, tutor_question, short_answer, curriculum_completed)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := achievements.ParseEvent(args[2])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			out, err := a.engine.RecordStat(ctx, args[0], args[1], ev)
			if err != nil {
				return err
			}
			if !out.Saved.OK() {
				return fmt.Errorf("failed to save progress for %s/%s", args[0], args[1])
			}
			for _, b := range out.NewBadges {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "badge earned: %s (+%d XP)\n", b.Name, b.XPBonus)
			}
			for _, ch := range out.Challenges {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "challenge completed: %s (+%d XP)\n", ch.Title, ch.XPReward)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "xp %d, level %d, streak %d\n",
				out.Progress.XP, out.Progress.Level, out.Progress.Stats.CurrentStreak)
			return nil
		},
	}
}

func newDueCmd(envFile *string) *cobra.Command {
	var curriculum string
	var limit int

	cmd := &cobra.Command{
		Use:   "due <user>",
		Short: "List flashcards due for review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			cards, err := a.engine.DueFlashcards(ctx, args[0], curriculum, limit)
			if err != nil {
				return err
			}
			for _, c := range cards {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.ID, c.NextReview.Format("2006-01-02"), c.Front)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&curriculum, "curriculum", "", "only cards of this curriculum")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of cards")
	return cmd
}

func newReviewCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "review <user> <card-id> <quality 0-5>",
		Short: "Rate a flashcard and reschedule it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			quality, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("quality must be a number from 0 to 5: %w", err)
			}
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			item, out, err := a.engine.ReviewFlashcard(ctx, args[0], args[1], quality)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "next review %s (interval %d days, ef %.2f)\n",
				item.NextReview.Format("2006-01-02"), item.Interval, item.EasinessFactor)
			for _, ch := range out.Challenges {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "challenge completed: %s (+%d XP)\n", ch.Title, ch.XPReward)
			}
			return nil
		},
	}
}

func newImportCmd(envFile *string) *cobra.Command {
	var curriculum, sheet string
	var startRow int

	cmd := &cobra.Command{
		Use:   "import-cards <user> <file>",
		Short: "Import flashcards from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			cfg := excel.DefaultImportConfig()
			cfg.UserID = args[0]
			cfg.FilePath = args[1]
			cfg.CurriculumID = curriculum
			cfg.SheetName = sheet
			cfg.StartRow = startRow

			result, err := excel.ImportFlashcards(ctx, a.engine, cfg)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "processed %d, created %d, skipped %d\n",
				result.TotalProcessed, result.Created, result.Skipped)
			for _, e := range result.Errors {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&curriculum, "curriculum", "", "curriculum for rows before any header row")
	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (first sheet if empty)")
	cmd.Flags().IntVar(&startRow, "start-row", 2, "first row to import")
	return cmd
}

func newExportCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export-report <user> <file.xlsx>",
		Short: "Write a progress report workbook",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, *envFile)
			if err != nil {
				return err
			}
			defer a.close()

			stats, err := a.engine.Stats(ctx, args[0])
			if err != nil {
				return err
			}
			if err := excel.ExportProgressReport(args[1], stats); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", args[1])
			return nil
		},
	}
}

func newMaintainCmd(envFile *string) *cobra.Command {
	var once string

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run snapshot backups and challenge pruning in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load(*envFile)
			pool := worker.NewPool(cfg.WorkerCount, cfg.Target(), cfg.Options())
			defer pool.Close()

			s := scheduler.New(pool, snapshot.NewFileStore(cfg.SnapshotDir), scheduler.Config{
				BackupInterval:         cfg.BackupInterval,
				ChallengeRetentionDays: cfg.ChallengeRetentionDays,
			})

			if once != "" {
				task, err := s.RunNow(once)
				if err != nil {
					return err
				}
				return task.Wait()
			}

			// signal channel for graceful shutdown
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			if err := s.Start(); err != nil {
				return err
			}
			log.Println("Maintenance started. Press Ctrl+C to stop.")

			sig := <-sigChan
			log.Printf("Received signal: %v\n", sig)
			s.Stop()
			log.Println("Maintenance stopped successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&once, "once", "", "run one job (snapshot-backup or challenge-prune) and exit")
	return cmd
}
