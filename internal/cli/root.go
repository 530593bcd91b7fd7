// Package cli implements the wasm2map command.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/wasm2map/internal/config"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
	dwoParent  string
	cfg        *config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	gen := &generateOptions{root: opts}

	cmd := &cobra.Command{
		Use:   "wasm2map <input.wasm>",
		Short: "Generate a source map from the DWARF debug info of a WebAssembly binary",
		Long: `wasm2map reads the DWARF line tables embedded in a WebAssembly binary and
writes a version 3 source map that browsers use to show original source in
their debuggers.

With --patch, the binary is also given a sourceMappingURL section pointing
at <base-url>/<map file name>.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			gen.input = args[0]
			_, err := gen.run(cmd.Context(), cmd.OutOrStdout())
			return err
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default ./"+config.DefaultPath+" if present)")
	pf.StringVar(&opts.dwoParent, "dwo-parent", "", "skeleton binary when the input holds split DWARF (.dwo sections)")
	pf.String(config.FlagLoader, "", "how to load input files: read or mmap")
	pf.String(config.FlagLogLevel, "", "log level: debug, info, warn or error")
	pf.BoolP(config.FlagVerbose, "v", false, "debug logging")
	pf.StringSlice(config.FlagLibraryRoot, nil, "source path discriminator marking library code, as in <root>:<path> (repeatable)")

	gen.addFlags(cmd)

	cmd.AddCommand(newInspectCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newVerifyCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// load resolves the configuration layers and installs the logger.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	installLogger(newLogger(cmd.ErrOrStderr(), level))
	o.cfg = cfg
	return nil
}

// Execute runs the command tree.
func Execute() error {
	return NewRootCmd().Execute()
}
