package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/client"
	"github.com/kode4food/seqexec/pkg/status"
)

type remoteOptions struct {
	url string
}

func (o *remoteOptions) addFlags(cmd *cobra.Command) {
	def := os.Getenv("SEQEXEC_URL")
	if def == "" {
		def = client.DefaultURL
	}
	cmd.Flags().StringVar(&o.url, "url", def, "base URL of a running executor")
}

func (o *remoteOptions) client() *client.Client {
	return client.NewClient(o.url, client.DefaultTimeout)
}

func newLoadCommand(opts *remoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "load <file-or-dir>...",
		Short:        "Load YAML sequences into a running executor",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var seqs []*api.Sequence
			for _, path := range args {
				res, err := loadPath(path)
				if err != nil {
					return err
				}
				seqs = append(seqs, res...)
			}

			c := opts.client()
			w := cmd.OutOrStdout()
			for _, seq := range seqs {
				ev := api.LoadSequenceEvent{Sequence: seq}
				ack, err := c.Submit(cmd.Context(), ev)
				if err != nil {
					return fmt.Errorf("%s: %w", seq.ID, err)
				}
				_, _ = fmt.Fprintf(w, "%s %s\n", seq.ID, ack.EventID)
			}
			return nil
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newSubmitCommand(opts *remoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit <event-type> [json-data]",
		Short: "Submit a command event to a running executor",
		Long: `Submits one command event. The data argument is the JSON body of
the event, for example:

  seqexec submit start '{"sequence_id":"arc-1"}'`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var data json.RawMessage
			if len(args) > 1 {
				data = json.RawMessage(args[1])
			}
			ev, err := api.DecodeEvent(api.EventType(args[0]), data)
			if err != nil {
				return err
			}
			ack, err := opts.client().Submit(cmd.Context(), ev)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), ack.EventID)
			return nil
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newStatusCommand(opts *remoteOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "status [sequence-id]",
		Short:        "Show the state of a running executor",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				id := api.SequenceID(args[0])
				seq, err := c.GetSequence(cmd.Context(), id)
				if err != nil {
					return err
				}
				printSequence(w, seq)
				return nil
			}
			st, err := c.GetState(cmd.Context())
			if err != nil {
				return err
			}
			printState(w, st)
			return nil
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func printState(w io.Writer, st *client.State) {
	meta := st.State.Metadata
	_, _ = fmt.Fprintf(w, "seq %d, operator %q\n", st.Seq, meta.Operator)
	for _, id := range st.State.SequenceIDs() {
		seq := st.State.Sequences[id]
		_, _ = fmt.Fprintf(w, "%-20s %-10s step %d/%d\n",
			id, seq.Status, seq.StepIndex, len(seq.Sequence.Steps))
	}
	for _, name := range st.State.QueueNames() {
		q := st.State.Queue(name)
		_, _ = fmt.Fprintf(w, "queue %s running=%t %v\n",
			name, q.Running, q.Sequences)
	}
}

func printSequence(w io.Writer, seq *api.SequenceState) {
	_, _ = fmt.Fprintf(w, "%s %s (%s)\n",
		seq.ID(), seq.Status, seq.Sequence.Metadata.Instrument)
	if seq.Error != "" {
		_, _ = fmt.Fprintf(w, "error: %s\n", seq.Error)
	}
	for i, step := range seq.Sequence.Steps {
		line := fmt.Sprintf("%3d %-9s", i, status.Step(seq, i))
		if id, ok := status.FileID(step.Executions); ok {
			line += " " + id
		}
		_, _ = fmt.Fprintln(w, line)
	}
}
