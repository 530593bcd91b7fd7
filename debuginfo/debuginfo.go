package debuginfo

import (
	"debug/dwarf"

	"go.uber.org/zap"

	"github.com/wippyai/wasm2map/errors"
	"github.com/wippyai/wasm2map/relocate"
	"github.com/wippyai/wasm2map/wasm"
)

// Section names, in the argument order of dwarf.New.
var baseSections = []string{
	".debug_abbrev",
	".debug_aranges",
	".debug_frame",
	".debug_info",
	".debug_line",
	".debug_pubnames",
	".debug_ranges",
	".debug_str",
}

// Sections added after construction through (*dwarf.Data).AddSection.
var extraSections = []string{
	".debug_addr",
	".debug_line_str",
	".debug_str_offsets",
	".debug_rnglists",
}

// dwoSuffix marks the sections of a split debug object.
const dwoSuffix = ".dwo"

// Options controls how debug sections are looked up.
type Options struct {
	// Split reads the ".dwo" variants of every section and skips
	// relocation. Split debug objects are never relocated.
	Split bool
}

// Sections returns the contents of the DWARF sections of obj keyed by their
// canonical name, with relocations applied unless opts.Split is set.
// Absent sections are omitted.
func Sections(obj *wasm.Object, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte)

	for _, name := range append(append([]string{}, baseSections...), extraSections...) {
		lookup := name
		if opts.Split {
			lookup += dwoSuffix
		}
		sec := obj.SectionByName(lookup)
		if sec == nil {
			continue
		}

		data := sec.Data
		if !opts.Split {
			m, err := relocate.Resolve(name, relocate.Entries(obj, sec), obj)
			if err != nil {
				return nil, err
			}
			if data, err = m.Apply(sec.Data); err != nil {
				return nil, err
			}
			if m.Len() > 0 {
				Logger().Debug("relocated debug section",
					zap.String("section", name),
					zap.Int("relocations", m.Len()))
			}
		}
		out[name] = data
	}

	return out, nil
}

// Open builds a DWARF reader from section contents keyed by canonical name.
func Open(sections map[string][]byte) (*Data, error) {
	if len(sections[".debug_info"]) == 0 {
		return nil, errors.MissingSection(errors.PhaseLoad, ".debug_info", "no debug information")
	}

	args := make([][]byte, len(baseSections))
	for i, name := range baseSections {
		args[i] = sections[name]
	}

	d, err := dwarf.New(args[0], args[1], args[2], args[3], args[4], args[5], args[6], args[7])
	if err != nil {
		return nil, errors.DebugInfo(errors.PhaseLoad, "open debug sections", err)
	}

	for _, name := range extraSections {
		if data, ok := sections[name]; ok {
			if err := d.AddSection(name, data); err != nil {
				return nil, errors.DebugInfo(errors.PhaseLoad, "add "+name, err)
			}
		}
	}
	return &Data{Data: d, Units: UnitOffsets(sections[".debug_info"])}, nil
}

// Load relocates and opens the debug information of obj.
func Load(obj *wasm.Object, opts Options) (*Data, error) {
	sections, err := Sections(obj, opts)
	if err != nil {
		return nil, err
	}
	return Open(sections)
}
