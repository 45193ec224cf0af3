package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/killallgit/eafkit/internal/services/export"
	"github.com/killallgit/eafkit/pkg/eaf"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// serializeOptions renders documents the way the document config asks
func serializeOptions() eaf.SerializeOptions {
	if appConfig == nil {
		return eaf.SerializeOptions{}
	}
	return eaf.SerializeOptions{
		Compact: !appConfig.Document.PrettyPrint,
		Indent:  appConfig.Document.Indent,
	}
}

// addOutputFlag registers -o for commands that rewrite a document in place
func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "write the result here instead of overwriting the input")
}

// saveDoc writes doc to the -o path, or back over the file it was read from
func saveDoc(cmd *cobra.Command, doc *eaf.Doc) error {
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = doc.Path()
	}
	if err := doc.Save(out, serializeOptions()); err != nil {
		return err
	}
	logrus.WithField("path", out).Debug("document written")
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Describe a document",
		Long: `Print the header metadata of an annotation document followed by one
line per tier with its linguistic type, stereotype, parent, participant
and number of annotations.`,
		Args: cobra.ExactArgs(1),
		RunE: runInfo,
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	doc, err := eaf.Read(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:         %s\n", doc.Path())
	fmt.Fprintf(out, "Author:       %s\n", doc.Author())
	fmt.Fprintf(out, "Date:         %s\n", doc.Date())
	fmt.Fprintf(out, "Format:       %s\n", doc.Format())
	fmt.Fprintf(out, "Media URL:    %s\n", doc.MediaURL())
	fmt.Fprintf(out, "Media path:   %s\n", doc.MediaPath())
	fmt.Fprintf(out, "Time slots:   %d\n", doc.TimeOrder().Len())
	fmt.Fprintf(out, "Annotations:  %d\n", doc.AnnotationCount())
	var participants []string
	for _, p := range doc.Participants() {
		if p != "" {
			participants = append(participants, p)
		}
	}
	if len(participants) > 0 {
		fmt.Fprintf(out, "Participants: %s\n", strings.Join(participants, ", "))
	}
	fmt.Fprintln(out)

	tw := newTable(out)
	fmt.Fprintln(tw, "TIER\tTYPE\tSTEREOTYPE\tPARENT\tPARTICIPANT\tVOCAB\tANNOTATIONS")
	for _, t := range doc.Tiers() {
		vocab := ""
		if cv := t.Vocab(); cv != nil {
			vocab = cv.ID()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			t.ID(), t.LinguisticTypeRef(), t.Stereotype(), t.ParentRef(), t.Participant(), vocab, t.Len())
	}
	return tw.Flush()
}

func newRowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows <file>",
		Short: "Export every annotation as a flat row",
		Long: `Export the annotations of a document, tier by tier, as rows of
tier, participant, from, to, duration and value.

Times are in seconds and empty when a boundary is not anchored.

Example:
  eafkit rows session.eaf
  eafkit rows session.eaf -o session.csv --format csv --header
  eafkit rows session.eaf --tier "Person1 (Utterance)" --format jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: runRows,
	}
	cmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	cmd.Flags().String("format", "", "csv, tsv or jsonl (default: delimited with the configured delimiter)")
	cmd.Flags().String("delimiter", "", `field delimiter, e.g. "," or "\t" (overrides config)`)
	cmd.Flags().Int("precision", -1, "decimals for times (overrides config)")
	cmd.Flags().Bool("header", false, "write a header line")
	cmd.Flags().StringSlice("tier", nil, "only export these tiers")
	return cmd
}

func runRows(cmd *cobra.Command, args []string) error {
	doc, err := eaf.Read(args[0])
	if err != nil {
		return err
	}

	cfg := appConfig.Export
	if d, _ := cmd.Flags().GetString("delimiter"); d != "" {
		cfg.Delimiter = d
	}
	if p, _ := cmd.Flags().GetInt("precision"); p >= 0 {
		cfg.Precision = p
	}
	if cmd.Flags().Changed("header") {
		cfg.Header, _ = cmd.Flags().GetBool("header")
	}
	format, _ := cmd.Flags().GetString("format")
	exp, err := export.New(export.Format(strings.ToLower(format)), cfg)
	if err != nil {
		return err
	}

	rows := doc.Rows()
	if tiers, _ := cmd.Flags().GetStringSlice("tier"); len(tiers) > 0 {
		rows = rows[:0]
		for _, id := range tiers {
			t := doc.Tier(id)
			if t == nil {
				return apperrors.NotFound("tier", id)
			}
			rows = append(rows, t.Rows()...)
		}
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		return exp.Export(cmd.OutOrStdout(), rows)
	}
	if err := export.WriteFile(out, exp, rows); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"path": out, "rows": len(rows)}).Info("rows exported")
	return nil
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <file>",
		Short: "Create a blank document",
		Long: `Create a new annotation document with one "default" tier and the
standard stereotype constraints declared.

Example:
  eafkit create session.eaf --media session.wav --author "J. Doe"`,
		Args: cobra.ExactArgs(1),
		RunE: runCreate,
	}
	cmd.Flags().String("media", "", "media file the document annotates")
	cmd.Flags().String("author", "", "document author (default from config)")
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	path := args[0]
	if force, _ := cmd.Flags().GetBool("force"); !force {
		if _, err := os.Stat(path); err == nil {
			return apperrors.AlreadyExists("file", path)
		}
	}

	mediaFile, _ := cmd.Flags().GetString("media")
	author, _ := cmd.Flags().GetString("author")
	if author == "" {
		author = appConfig.Document.Author
	}

	doc, err := eaf.Create(eaf.CreateOptions{MediaFile: mediaFile, Author: author})
	if err != nil {
		return err
	}
	if err := doc.Save(path, serializeOptions()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}

func newRenameTierCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename-tier <file> <old> <new>",
		Short: "Rename a tier",
		Long: `Rename a tier and repoint its child tiers at the new name. The file is
rewritten in place unless -o is given.`,
		Args: cobra.ExactArgs(3),
		RunE: runRenameTier,
	}
	addOutputFlag(cmd)
	return cmd
}

func runRenameTier(cmd *cobra.Command, args []string) error {
	doc, err := eaf.Read(args[0])
	if err != nil {
		return err
	}
	if err := doc.RenameTier(args[1], args[2]); err != nil {
		return err
	}
	return saveDoc(cmd, doc)
}
