package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wippyai/wasm2map/internal/watch"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	gen := &generateOptions{root: opts}
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "watch <input.wasm>",
		Short: "Regenerate the source map whenever the binary changes",
		Long: `watch generates the source map once and again after every change to the
input. With --patch the input is patched after each build; the watcher
recognises its own writes and does not rebuild for them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen.input = args[0]
			if _, err := gen.validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			w := watch.New(gen.input, watch.WithDelay(delay))
			return w.Run(ctx, func(ctx context.Context) error {
				_, err := gen.run(ctx, out)
				return err
			})
		},
	}

	gen.addFlags(cmd)
	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "wait this long after the last change before rebuilding")
	return cmd
}
