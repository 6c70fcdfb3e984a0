package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kode4food/seqexec/internal/loader"
	"github.com/kode4food/seqexec/pkg/api"
)

var ErrCheckFailed = errors.New("sequence check failed")

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file-or-dir>...",
		Short: "Validate YAML sequence definitions",
		Long: `Parses each sequence definition file, or every .yaml and
.yml file in each directory, and reports whether it can be loaded.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args)
		},
	}
}

func runCheck(w io.Writer, paths []string) error {
	failed := 0
	for _, path := range paths {
		seqs, err := loadPath(path)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "FAIL %v\n", err)
			continue
		}
		for _, seq := range seqs {
			_, _ = fmt.Fprintf(w, "ok   %s (%s, %d steps)\n",
				seq.ID, seq.Metadata.Instrument, len(seq.Steps))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCheckFailed, failed, len(paths))
	}
	return nil
}

func loadPath(path string) ([]*api.Sequence, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return loader.LoadDir(path)
	}
	seq, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return []*api.Sequence{seq}, nil
}
