// Package verify checks a patched WebAssembly binary: the module must still
// compile, and it must carry exactly one sourceMappingURL section, at the
// end of the file.
package verify

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wasm2map/errors"
	"github.com/wippyai/wasm2map/wasm"
)

// Report describes the sourceMappingURL sections found in a module.
type Report struct {
	// URL is the url held by the last sourceMappingURL section.
	URL string

	// Count is the number of sourceMappingURL sections.
	Count int

	// Trailing reports whether the last section of the file is a
	// sourceMappingURL section.
	Trailing bool
}

// OK reports whether the module holds exactly one trailing
// sourceMappingURL section.
func (r *Report) OK() bool {
	return r.Count == 1 && r.Trailing
}

// Check compiles data with wazero, keeping custom sections, and reports
// on its sourceMappingURL sections.
func Check(ctx context.Context, data []byte) (*Report, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter().WithCustomSections(true))
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return nil, errors.MalformedContainer(errors.PhaseLoad, "compile module", err)
	}
	defer compiled.Close(ctx)

	report := &Report{}
	for _, cs := range compiled.CustomSections() {
		if cs.Name() != wasm.SourceMappingURLSectionName {
			continue
		}
		url, err := wasm.DecodeSourceMappingURL(cs.Data())
		if err != nil {
			return nil, errors.MalformedContainer(errors.PhaseLoad, "decode source map url", err)
		}
		report.URL = url
		report.Count++
	}

	sections, err := wasm.ScanSections(data)
	if err != nil {
		return nil, errors.MalformedContainer(errors.PhaseLoad, "scan sections", err)
	}
	if n := len(sections); n > 0 {
		last := sections[n-1]
		report.Trailing = last.IsCustom() && last.Name == wasm.SourceMappingURLSectionName
	}
	return report, nil
}

// String summarises the report on one line.
func (r *Report) String() string {
	switch {
	case r.Count == 0:
		return "no sourceMappingURL section"
	case !r.OK():
		return fmt.Sprintf("%d sourceMappingURL sections, trailing=%t, last url %q", r.Count, r.Trailing, r.URL)
	default:
		return fmt.Sprintf("sourceMappingURL %q", r.URL)
	}
}
