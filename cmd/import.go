package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/killallgit/eafkit/internal/services/importer"
	"github.com/killallgit/eafkit/pkg/eaf"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
	"github.com/killallgit/eafkit/pkg/transcript"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file> <tier> <transcript>",
		Short: "Import a transcript as annotations",
		Long: `Add one annotation per transcript segment to a tier. The transcript may
be a WebVTT, SRT or JSON file, or an http(s) URL.

Only tiers without a stereotype accept free time spans. Nothing is
written when any segment is rejected.

Example:
  eafkit import session.eaf "Person1 (Utterance)" session.vtt
  eafkit import session.eaf subtitles https://example.com/s.srt --create --participant P001`,
		Args: cobra.ExactArgs(3),
		RunE: runImport,
	}
	cmd.Flags().String("format", "", "vtt, srt, json or text (default: detected)")
	cmd.Flags().Bool("create", false, "create the tier when missing")
	cmd.Flags().String("type", importer.DefaultLinguisticType, "linguistic type of a created tier")
	cmd.Flags().String("participant", "", "participant of a created tier")
	cmd.Flags().Bool("speaker-prefix", false, `prefix values with "speaker: " when known`)
	addOutputFlag(cmd)
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	doc, err := eaf.Read(args[0])
	if err != nil {
		return err
	}

	var opts importer.Options
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		if opts.Format, err = transcript.ParseFormat(f); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid --format")
		}
	}
	opts.CreateTier, _ = cmd.Flags().GetBool("create")
	opts.LinguisticType, _ = cmd.Flags().GetString("type")
	opts.Participant, _ = cmd.Flags().GetString("participant")
	opts.SpeakerPrefix, _ = cmd.Flags().GetBool("speaker-prefix")

	res, err := importer.New(nil).ImportSource(cmd.Context(), doc, args[1], args[2], opts)
	if err != nil {
		return err
	}
	if err := saveDoc(cmd, doc); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s segments into %s", len(res.Created), res.Format, res.Tier)
	if res.Skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d empty skipped)", res.Skipped)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
