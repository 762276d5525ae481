package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"automata/internal/app"
	"automata/internal/session"
)

var requesterCmd = &cobra.Command{
	Use:   "requester",
	Short: "Query executors and score their answers",
	Long: `Runs query rounds against the configured executors. Each round samples
simulation parameters, sends the sealed request to every executor, verifies
the responses and records a score per executor. Use --local N to run against
N in-process executors.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		tr := a.Transport(flags.Local)
		if err := a.RunRequester(ctx, tr, func(r session.RoundResult) { printRound(out, r) }); err != nil {
			return err
		}

		standings, err := a.Ledger().Standings(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "standings:")
		for _, s := range standings {
			fmt.Fprintf(out, "  %-24s %.4f (%d rounds)\n", s.Responder, s.Score, s.Rounds)
		}
		return nil
	},
}

func printRound(w io.Writer, r session.RoundResult) {
	p := r.Params
	fmt.Fprintf(w, "round %s rule=%s steps=%d neighborhood=%s shape=%v\n",
		r.ID, p.Rule, p.Steps, p.Neighborhood, []int(r.Initial.Shape()))
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("  %-24s %-16s score=%.4f", o.Executor, o.State, o.Score)
		if o.Err != nil {
			line += " err=" + o.Err.Error()
		}
		fmt.Fprintln(w, line)
	}
}
