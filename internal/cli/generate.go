package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wippyai/wasm2map"
	"github.com/wippyai/wasm2map/internal/config"
	"github.com/wippyai/wasm2map/internal/fsutil"
	"github.com/wippyai/wasm2map/loader"
	"github.com/wippyai/wasm2map/patch"
	"github.com/wippyai/wasm2map/sourcemap"
	"github.com/wippyai/wasm2map/verify"
)

type generateOptions struct {
	root *rootOptions

	input   string
	mapPath string
	patch   bool
	verify  bool
}

func (g *generateOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&g.mapPath, "map-path", "m", "", "source map output path (default <input>.map)")
	f.BoolVarP(&g.patch, "patch", "p", false, "add or replace the sourceMappingURL section of the input")
	f.StringP(config.FlagBaseURL, "b", "", "base url the map is served from (required with --patch)")
	f.Bool(config.FlagBundleSources, false, "embed source text in sourcesContent")
	f.String(config.FlagFile, "", "value of the map's \"file\" key")
	f.BoolVar(&g.verify, "verify", false, "check the patched binary with wazero (requires --patch)")
}

// result describes what one generation run produced.
type result struct {
	MapPath string
	URL     string
	Sources int
	Points  int
}

// mapPathFor returns the output path: explicit, or the input path with
// ".map" appended. An explicit path must not name a directory.
func mapPathFor(input, explicit string) (string, error) {
	if explicit == "" {
		return input + ".map", nil
	}
	if info, err := os.Stat(explicit); err == nil && info.IsDir() {
		return "", fmt.Errorf("--map-path must be a file path, %s is a directory", explicit)
	}
	return explicit, nil
}

func (g *generateOptions) validate() (string, error) {
	info, err := os.Stat(g.input)
	if err != nil {
		return "", fmt.Errorf("input: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("input %s is a directory, not a WebAssembly file", g.input)
	}
	if g.patch && g.root.cfg.BaseURL == "" {
		return "", fmt.Errorf("--patch requires --base-url")
	}
	if g.verify && !g.patch {
		return "", fmt.Errorf("--verify requires --patch")
	}
	return mapPathFor(g.input, g.mapPath)
}

// run writes the source map and, if requested, patches and verifies the
// input. A summary is printed to out.
func (g *generateOptions) run(ctx context.Context, out io.Writer) (*result, error) {
	mapPath, err := g.validate()
	if err != nil {
		return nil, err
	}
	cfg := g.root.cfg

	m, points, err := g.build()
	if err != nil {
		return nil, err
	}

	data, err := m.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode source map: %w", err)
	}
	if err := fsutil.WriteFileAtomic(mapPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write source map: %w", err)
	}
	res := &result{MapPath: mapPath, Sources: len(m.Sources), Points: points}
	fmt.Fprintf(out, "wrote %s (%d sources, %d positions)\n", mapPath, res.Sources, res.Points)

	if !g.patch {
		return res, nil
	}

	p, err := patch.Open(g.input)
	if err != nil {
		return nil, err
	}
	res.URL = patch.MappingURL(cfg.BaseURL, filepath.Base(mapPath))
	if err := p.Patch(res.URL); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "patched %s with sourceMappingURL %s\n", g.input, res.URL)

	if g.verify {
		patched, err := os.ReadFile(g.input)
		if err != nil {
			return nil, fmt.Errorf("read patched binary: %w", err)
		}
		report, err := verify.Check(ctx, patched)
		if err != nil {
			return nil, err
		}
		if !report.OK() || report.URL != res.URL {
			return nil, fmt.Errorf("verification failed: %s", report)
		}
		fmt.Fprintf(out, "verified: %s\n", report)
	}
	return res, nil
}

// build loads the input and encodes the source map. It also returns the
// number of positions in the table.
func (g *generateOptions) build() (*sourcemap.SourceMap, int, error) {
	cfg := g.root.cfg

	s, closeFn, err := g.root.openSession(g.input)
	if err != nil {
		return nil, 0, err
	}
	defer closeFn()

	table, err := s.Positions()
	if err != nil {
		return nil, 0, err
	}
	m, err := s.Build(wasm2map.BuildOptions{
		File:          cfg.File,
		BundleSources: cfg.BundleSources,
	})
	if err != nil {
		return nil, 0, err
	}
	return m, table.Len(), nil
}

// openSession loads input, and the DWO parent if one was given, with the
// configured strategy. The returned function releases the loaded files.
func (o *rootOptions) openSession(input string) (*wasm2map.Session, func(), error) {
	var files []*loader.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	in, err := loader.Open(input, o.cfg.Strategy())
	if err != nil {
		return nil, nil, err
	}
	files = append(files, in)

	opts := []wasm2map.Option{wasm2map.WithLibraryRoots(o.cfg.LibraryRoots...)}
	if o.dwoParent != "" {
		parent, err := loader.Open(o.dwoParent, o.cfg.Strategy())
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, parent)
		opts = append(opts, wasm2map.WithDWOParent(parent.Data))
	}

	s, err := wasm2map.New(in.Data, opts...)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return s, closeAll, nil
}
