package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/wasm2map/loader"
	"github.com/wippyai/wasm2map/verify"
)

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <input.wasm>",
		Short: "Check that a binary compiles and carries one trailing sourceMappingURL section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loader.Open(args[0], opts.cfg.Strategy())
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := verify.Check(cmd.Context(), f.Data)
			if err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("%s: %s", args[0], report)
			}
			cmd.Printf("%s: %s\n", args[0], report)
			return nil
		},
	}
}
