package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/killallgit/eafkit/pkg/eaf"
	apperrors "github.com/killallgit/eafkit/pkg/errors"
)

// vocabFile is a document or an external vocabulary resource
type vocabFile interface {
	Path() string
	Vocabs() []*eaf.ControlledVocab
	Vocab(id string) *eaf.ControlledVocab
	Save(path string, opts eaf.SerializeOptions) error
}

func readVocabFile(path string) (vocabFile, error) {
	if strings.EqualFold(filepath.Ext(path), ".ecv") {
		r, err := eaf.ReadECV(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	d, err := eaf.Read(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func lookupVocab(f vocabFile, id string) (*eaf.ControlledVocab, error) {
	cv := f.Vocab(id)
	if cv == nil {
		return nil, apperrors.NotFound("controlled vocabulary", id)
	}
	return cv, nil
}

func saveVocabFile(cmd *cobra.Command, f vocabFile) error {
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = f.Path()
	}
	return f.Save(out, serializeOptions())
}

func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Inspect and edit controlled vocabularies",
		Long: `Inspect and edit the controlled vocabularies of a document (.eaf) or an
external vocabulary resource (.ecv).

Available subcommands:
  list    - Show vocabularies and their entries
  add     - Add an entry
  remove  - Remove an entry`,
	}

	list := &cobra.Command{
		Use:   "list <file> [vocab...]",
		Short: "Show vocabularies and their entries",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runVocabList,
	}

	add := &cobra.Command{
		Use:   "add <file> <vocab> <value>",
		Short: "Add an entry to a vocabulary",
		Long: `Add an entry to a controlled vocabulary. Values must be unique within the
vocabulary. The entry is appended unless --after or --before names an
existing value.`,
		Args: cobra.ExactArgs(3),
		RunE: runVocabAdd,
	}
	add.Flags().String("description", "", "entry description")
	add.Flags().String("id", "", "entry ID (default: generated)")
	add.Flags().String("lang", "", "description language (default: the vocabulary's)")
	add.Flags().String("after", "", "insert after the entry with this value")
	add.Flags().String("before", "", "insert before the entry with this value")
	addOutputFlag(add)

	remove := &cobra.Command{
		Use:   "remove <file> <vocab> <value>",
		Short: "Remove an entry from a vocabulary",
		Long: `Remove an entry from a controlled vocabulary. Entries still used by an
annotation on a tier bound to the vocabulary cannot be removed.`,
		Args: cobra.ExactArgs(3),
		RunE: runVocabRemove,
	}
	addOutputFlag(remove)

	cmd.AddCommand(list, add, remove)
	return cmd
}

func runVocabList(cmd *cobra.Command, args []string) error {
	f, err := readVocabFile(args[0])
	if err != nil {
		return err
	}

	vocabs := f.Vocabs()
	if len(args) > 1 {
		vocabs = vocabs[:0:0]
		for _, id := range args[1:] {
			cv, err := lookupVocab(f, id)
			if err != nil {
				return err
			}
			vocabs = append(vocabs, cv)
		}
	}

	out := cmd.OutOrStdout()
	for i, cv := range vocabs {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%d entries) %s\n", cv.ID(), cv.Len(), cv.Description())
		tw := newTable(out)
		for _, e := range cv.Entries() {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", e.Value(), e.Description(), e.ID())
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func runVocabAdd(cmd *cobra.Command, args []string) error {
	f, err := readVocabFile(args[0])
	if err != nil {
		return err
	}
	cv, err := lookupVocab(f, args[1])
	if err != nil {
		return err
	}

	var opts []eaf.EntryOption
	if d, _ := cmd.Flags().GetString("description"); d != "" {
		opts = append(opts, eaf.WithEntryDescription(d))
	}
	if id, _ := cmd.Flags().GetString("id"); id != "" {
		opts = append(opts, eaf.WithEntryID(id))
	}
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		opts = append(opts, eaf.WithEntryLangRef(lang))
	}
	after, _ := cmd.Flags().GetString("after")
	before, _ := cmd.Flags().GetString("before")
	if after != "" && before != "" {
		return apperrors.ValidationError("position", "--after and --before are mutually exclusive")
	}
	if after != "" {
		anchor := cv.ByValue(after)
		if anchor == nil {
			return apperrors.NotFound("entry", after)
		}
		opts = append(opts, eaf.After(anchor))
	}
	if before != "" {
		anchor := cv.ByValue(before)
		if anchor == nil {
			return apperrors.NotFound("entry", before)
		}
		opts = append(opts, eaf.Before(anchor))
	}

	entry, err := cv.NewEntry(args[2], opts...)
	if err != nil {
		return err
	}
	if err := saveVocabFile(cmd, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s) to %s\n", entry.Value(), entry.ID(), cv.ID())
	return nil
}

func runVocabRemove(cmd *cobra.Command, args []string) error {
	f, err := readVocabFile(args[0])
	if err != nil {
		return err
	}
	cv, err := lookupVocab(f, args[1])
	if err != nil {
		return err
	}
	entry := cv.ByValue(args[2])
	if entry == nil {
		return apperrors.NotFound("entry", args[2])
	}
	if err := cv.Remove(entry); err != nil {
		return err
	}
	if err := saveVocabFile(cmd, f); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[2], cv.ID())
	return nil
}
