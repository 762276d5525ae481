package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"automata/internal/codec"
	"automata/internal/core"
	"automata/internal/engine"
	"automata/internal/render"
	"automata/internal/rules"
	"automata/internal/session"
	"automata/pkg/rng"
)

var simulateOpts struct {
	rule         string
	steps        int
	width        int
	height       int
	radius       int
	neighborhood string
	init         string
	density      float64
	dtype        string
	seed         int64
	memo         bool
	quiet        bool
	png          string
	scale        int
	seal         string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Evolve a grid locally and print it",
	Args:  cobra.NoArgs,
	RunE:  runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateOpts.rule, "rule", "Rule30", "rule name (see `ca rules`)")
	f.IntVar(&simulateOpts.steps, "steps", 16, "generations to compute")
	f.IntVar(&simulateOpts.width, "width", 64, "grid width")
	f.IntVar(&simulateOpts.height, "height", 32, "grid height for totalistic rules")
	f.IntVar(&simulateOpts.radius, "radius", engine.DefaultRadius, "neighborhood radius")
	f.StringVar(&simulateOpts.neighborhood, "neighborhood", "Moore", "Moore or VonNeumann")
	f.StringVar(&simulateOpts.init, "init", "simple", "initial condition (simple, random)")
	f.Float64Var(&simulateOpts.density, "density", 0.5, "live density for random init")
	f.StringVar(&simulateOpts.dtype, "dtype", string(core.Uint8), "cell element type")
	f.Int64Var(&simulateOpts.seed, "seed", 1, "seed for random init")
	f.BoolVar(&simulateOpts.memo, "memo", true, "memoize transitions")
	f.BoolVar(&simulateOpts.quiet, "quiet", false, "print only the final generation")
	f.StringVar(&simulateOpts.png, "png", "", "also write a PNG to this path")
	f.IntVar(&simulateOpts.scale, "scale", 4, "PNG pixels per cell")
	f.StringVar(&simulateOpts.seal, "seal", "", "write the sealed final grid to PREFIX.meta.json and PREFIX.bin")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	_, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	o := simulateOpts
	logger.Debug("Simulating", "rule", o.rule, "steps", o.steps)

	rule, err := rules.Lookup(o.rule)
	if err != nil {
		return err
	}
	p, err := engine.NewParams(o.steps, o.rule, o.radius, o.neighborhood)
	if err != nil {
		return err
	}
	dtype, err := core.ParseDType(o.dtype)
	if err != nil {
		return err
	}
	grid := session.GridConfig{DType: dtype, Width: o.width, Height: o.height, Init: o.init, Density: o.density}
	initial, err := grid.Build(rule, rng.New(o.seed))
	if err != nil {
		return err
	}

	start := time.Now()
	history, err := engine.Evolve(cmd.Context(), initial, p, engine.WithMemo(o.memo))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	out := cmd.OutOrStdout()
	if o.quiet {
		err = render.Grid(out, history.Last())
	} else {
		err = render.History(out, history)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d steps on %v in %s\n", p.Rule, p.Steps, []int(initial.Shape()), elapsed)

	if o.png != "" {
		f, err := os.Create(o.png)
		if err != nil {
			return err
		}
		if err := render.PNG(f, history, o.scale); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if o.seal != "" {
		md, payload, err := codec.EncodePayload(history.Last())
		if err != nil {
			return err
		}
		if err := os.WriteFile(o.seal+".meta.json", md, 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(o.seal+".bin", payload, 0o644); err != nil {
			return err
		}
	}
	return nil
}
