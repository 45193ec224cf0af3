package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/killallgit/eafkit/internal/database"
	"github.com/killallgit/eafkit/internal/services/corpus"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

func addDBFlag(cmd *cobra.Command) {
	cmd.Flags().String("db", "", "corpus database path (overrides config)")
}

func databasePath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		return path
	}
	return appConfig.Database.Path
}

// openDatabase opens and migrates the corpus index named by --db or the config
func openDatabase(cmd *cobra.Command) (*database.DB, error) {
	db, err := database.Initialize(databasePath(cmd), appConfig.Database.Verbose)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newCorpusService(db *database.DB) corpus.Service {
	return corpus.NewService(
		corpus.NewRepository(db.DB),
		corpus.WithWorkers(appConfig.Corpus.Workers),
		corpus.WithSearchLimit(appConfig.Corpus.SearchLimit),
	)
}

// collectEAF expands directories into the .eaf files below them
func collectEAF(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "reading %s", arg)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".eaf") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeIO, "walking %s", arg)
		}
	}
	return paths, nil
}

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index <file|dir>...",
		Short: "Add documents to the corpus index",
		Long: `Read annotation documents and store their rows in the sqlite corpus
index. Directories are searched for .eaf files. Documents already in the
index are replaced.

Example:
  eafkit index recordings/
  eafkit index a.eaf b.eaf --db /tmp/corpus.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: runIndex,
	}
	addDBFlag(cmd)
	cmd.Flags().Bool("prune", false, "remove indexed documents whose file no longer exists")
	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	paths, err := collectEAF(args)
	if err != nil {
		return err
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	svc := newCorpusService(db)
	ctx := cmd.Context()

	docs, err := svc.IndexFiles(ctx, paths)
	rows := 0
	for _, d := range docs {
		rows += d.AnnotationCount
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d of %d documents (%d rows)\n", len(docs), len(paths), rows)
	if err != nil {
		return err
	}

	if prune, _ := cmd.Flags().GetBool("prune"); prune {
		indexed, err := svc.ListDocuments(ctx)
		if err != nil {
			return err
		}
		for _, d := range indexed {
			if _, statErr := os.Stat(d.Path); !os.IsNotExist(statErr) {
				continue
			}
			if err := svc.RemoveDocument(ctx, d.UUID); err != nil {
				return err
			}
			logrus.WithField("path", d.Path).Info("pruned missing document")
		}
	}
	return nil
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search the corpus index",
		Long: `Search indexed annotation values (case-insensitive substring) and print
one line per match with document, tier, participant, times and value.

Example:
  eafkit search apple
  eafkit search --tier "Person1 (Utterance)" --participant P001 --limit 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSearch,
	}
	addDBFlag(cmd)
	cmd.Flags().String("tier", "", "only this tier")
	cmd.Flags().String("participant", "", "only this participant")
	cmd.Flags().String("document", "", "only the document with this UUID")
	cmd.Flags().Int("limit", 0, "maximum rows (default from config)")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	var q corpus.Query
	if len(args) == 1 {
		q.Text = args[0]
	}
	q.TierID, _ = cmd.Flags().GetString("tier")
	q.Participant, _ = cmd.Flags().GetString("participant")
	q.Document, _ = cmd.Flags().GetString("document")
	q.Limit, _ = cmd.Flags().GetInt("limit")
	if q.Text == "" && q.TierID == "" && q.Participant == "" && q.Document == "" {
		return apperrors.New(apperrors.ErrCodeMissingField, "give search text or at least one of --tier, --participant, --document")
	}

	db, err := openDatabase(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := newCorpusService(db).Search(cmd.Context(), q)
	if err != nil {
		return err
	}

	tw := newTable(cmd.OutOrStdout())
	fmt.Fprintln(tw, "DOCUMENT\tTIER\tPARTICIPANT\tFROM\tTO\tVALUE")
	for _, r := range rows {
		name := ""
		if r.Document != nil {
			name = r.Document.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			name, r.TierID, r.Participant, seconds(r.FromSec), seconds(r.ToSec), r.Text)
	}
	return tw.Flush()
}

func seconds(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', appConfig.Export.Precision, 64)
}
