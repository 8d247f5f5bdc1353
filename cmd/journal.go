package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/iceguest/internal/config"
	"github.com/zjrosen/iceguest/internal/infrastructure/sqlite"
	"github.com/zjrosen/iceguest/internal/presentation"
)

var (
	journalLimit  int
	journalFormat string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect recorded guest sessions",
	Long: `Sessions are recorded when journaling is enabled (journal.enabled in the
config, or --journal on connect and replay).`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions, newest first",
	Long: `List recorded sessions, newest first.

Examples:
  iceguest journal list
  iceguest journal list --limit 5 --format yaml
  iceguest journal list | jq '.[].guid'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := presentation.ParseFormat(journalFormat)
		if err != nil {
			return err
		}
		db, err := openJournalDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		sessions, err := db.JournalRepository().ListSessions(cmd.Context(), journalLimit)
		if err != nil {
			return err
		}
		dtos := make([]presentation.SessionDTO, 0, len(sessions))
		for _, s := range sessions {
			dtos = append(dtos, presentation.FromSession(s))
		}
		return presentation.NewFormatter(cmd.OutOrStdout(), format).FormatSessions(dtos)
	},
}

var journalShowCmd = &cobra.Command{
	Use:   "show <guid>",
	Short: "Print a session and every event dispatched in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := presentation.ParseFormat(journalFormat)
		if err != nil {
			return err
		}
		db, err := openJournalDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		repo := db.JournalRepository()
		session, err := repo.FindSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		entries, err := repo.Entries(cmd.Context(), session.ID)
		if err != nil {
			return err
		}
		detail := presentation.SessionDetailDTO{
			SessionDTO: presentation.FromSession(session),
			Events:     entries,
		}
		detail.Entries = len(entries)
		return presentation.NewFormatter(cmd.OutOrStdout(), format).FormatSession(detail)
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd, journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalFormat, "format", "f", "json", "output format: json or yaml")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum sessions to list (0 for all)")
}

func openJournalDB() (*sqlite.DB, error) {
	path := cfg.Journal.Path
	if path == "" {
		path = config.DefaultJournalPath()
	}
	db, err := sqlite.NewDB(path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	return db, nil
}
