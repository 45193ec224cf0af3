package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/killallgit/eafkit/pkg/config"
	"github.com/killallgit/eafkit/pkg/eaf"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
	"github.com/killallgit/eafkit/pkg/media"
)

// newCutter is replaced in tests
var newCutter = func(cfg config.MediaConfig) (eaf.Cutter, error) {
	ff := media.New(cfg.FFmpegPath, cfg.Timeout)
	if err := ff.ValidateBinary(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalTool, "ffmpeg is required to cut media")
	}
	return ff, nil
}

func newCutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cut <file> <tier> <outdir>",
		Short: "Cut the media of every annotation in a tier",
		Long: `Extract the time span of each annotation on a tier from the document's
media into its own file, named after the annotation ID.

The media is located from the relative media URL, then relative to the
document, then the media URL, unless --media is given.

Example:
  eafkit cut session.eaf "Person1 (Utterance)" clips/
  eafkit cut session.eaf marker clips/ --media /data/session.wav --jobs 4`,
		Args: cobra.ExactArgs(3),
		RunE: runCut,
	}
	cmd.Flags().String("media", "", "source media (overrides the document's media path)")
	cmd.Flags().String("ext", "", "output extension (default: the media's)")
	cmd.Flags().Int("jobs", 2, "parallel ffmpeg processes")
	return cmd
}

func runCut(cmd *cobra.Command, args []string) error {
	doc, err := eaf.Read(args[0])
	if err != nil {
		return err
	}
	tier := doc.Tier(args[1])
	if tier == nil {
		return apperrors.NotFound("tier", args[1])
	}
	outdir := args[2]

	mediaFile, _ := cmd.Flags().GetString("media")
	if mediaFile == "" {
		mediaFile = doc.MediaPath()
	}
	if info, err := os.Stat(mediaFile); err != nil || !info.Mode().IsRegular() {
		return apperrors.Wrapf(media.ErrSourceNotFound, apperrors.ErrCodeNotFound, "media file %s", mediaFile)
	}
	ext, _ := cmd.Flags().GetString("ext")
	if ext == "" {
		ext = filepath.Ext(mediaFile)
	}
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	cutter, err := newCutter(appConfig.Media)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outdir, 0755); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeIO, "creating %s", outdir)
	}

	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(jobs)

	cut, skipped := 0, 0
	for _, a := range tier.Annotations() {
		if _, _, ok := eaf.Span(a); !ok {
			skipped++
			continue
		}
		cut++
		dest := filepath.Join(outdir, a.ID()+ext)
		g.Go(func() error {
			if err := doc.Cut(ctx, cutter, a, dest, mediaFile); err != nil {
				code := apperrors.ErrCodeExternalTool
				if appErr, ok := apperrors.As(err); ok {
					code = appErr.Code
				}
				return apperrors.Wrapf(err, code, "cutting %s", a.ID())
			}
			logrus.WithFields(logrus.Fields{"annotation": a.ID(), "dest": dest}).Debug("annotation cut")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cut %d annotations from %s into %s\n", cut, tier.ID(), outdir)
	if skipped > 0 {
		logrus.WithField("skipped", skipped).Warn("annotations without a time span were skipped")
	}
	return nil
}
