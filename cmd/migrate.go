package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/killallgit/eafkit/internal/database"
	"github.com/killallgit/eafkit/internal/models"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Manage the schema of the corpus index database.

Available subcommands:
  up      - Create or update the index tables
  status  - Show the index tables and their row counts`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Create or update the index tables",
		Long: `Apply the corpus index schema to the database.

Missing tables, columns and indexes are created. Existing data is kept.`,
		Args: cobra.NoArgs,
		RunE: runMigrateUp,
	}
	addDBFlag(up)
	up.Flags().Bool("dry-run", false, "show what would be done without making changes")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long: `Display the current status of the corpus index schema: which tables
exist and how many records each holds.`,
		Args: cobra.NoArgs,
		RunE: runMigrateStatus,
	}
	addDBFlag(status)

	cmd.AddCommand(up, status)
	return cmd
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Fprintln(out, "Dry run mode - no changes will be made")
		for _, name := range tableNames() {
			fmt.Fprintf(out, "  would migrate %s\n", name)
		}
		return nil
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, name := range tableNames() {
		fmt.Fprintf(out, "  migrated %s\n", name)
	}
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	path := databasePath(cmd)
	db, err := database.Initialize(path, appConfig.Database.Verbose)
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n", path)
	tw := newTable(out)
	fmt.Fprintln(tw, "TABLE\tEXISTS\tRECORDS")
	for _, m := range models.All() {
		name := tableName(m)
		exists := db.Migrator().HasTable(m)
		var count int64
		if exists {
			if err := db.Model(m).Count(&count).Error; err != nil {
				return err
			}
		}
		fmt.Fprintf(tw, "%s\t%t\t%d\n", name, exists, count)
	}
	return tw.Flush()
}

type tabler interface{ TableName() string }

func tableName(m any) string {
	if t, ok := m.(tabler); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", m)
}

func tableNames() []string {
	var names []string
	for _, m := range models.All() {
		names = append(names, tableName(m))
	}
	return names
}
