package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"automata/internal/codec"
	"automata/internal/core"
	"automata/internal/render"
)

var verifyParams bool

var verifyCmd = &cobra.Command{
	Use:   "verify METADATA PAYLOAD",
	Short: "Check an envelope's integrity and print its grid",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		md, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		payload, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var g *core.Grid
		if verifyParams {
			grid, p, err := codec.DecodeParams(md, payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "params: rule=%s steps=%d radius=%d neighborhood=%s\n", p.Rule, p.Steps, p.Radius, p.Neighborhood)
			g = grid
		} else if g, err = codec.DecodePayload(md, payload); err != nil {
			return err
		}

		fmt.Fprintf(out, "ok: dtype=%s shape=%v sha256=%s\n", g.DType(), []int(g.Shape()), codec.Digest(payload))
		if _, err := g.States(); err == nil {
			return render.Grid(out, g)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyParams, "params", false, "decode as a simulation request")
}
