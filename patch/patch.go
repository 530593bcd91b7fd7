package patch

import (
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/wasm2map/errors"
	"github.com/wippyai/wasm2map/internal/fsutil"
	"github.com/wippyai/wasm2map/wasm"
)

// Patcher appends or replaces the sourceMappingURL section at the end of
// one WebAssembly file. The section is only ever handled at the tail of
// the file.
type Patcher struct {
	path     string
	existing string

	// appended is the on-disk size of the trailing sourceMappingURL
	// section, or zero when there is none.
	appended uint64
}

// Open inspects the file at path and remembers the size of a trailing
// sourceMappingURL section if one exists. A sourceMappingURL section
// followed by other sections is rejected, since replacing it by truncation
// would destroy them.
func Open(path string) (*Patcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhasePatch, path, err)
	}

	p := &Patcher{path: path}
	if err := p.scan(data); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Patcher) scan(data []byte) error {
	sections, err := wasm.ScanSections(data)
	if err != nil {
		return errors.New(errors.PhasePatch, errors.KindMalformedContainer).
			Path(p.path).
			Cause(err).
			Build()
	}

	p.appended = 0
	p.existing = ""
	for i := range sections {
		sec := &sections[i]
		if !sec.IsCustom() || sec.Name != wasm.SourceMappingURLSectionName {
			continue
		}
		if i != len(sections)-1 {
			return errors.New(errors.PhasePatch, errors.KindMalformedContainer).
				Path(p.path).
				Value(sec.Offset).
				Detail("%s section at offset 0x%08x is not the last section", wasm.SourceMappingURLSectionName, sec.Offset).
				Build()
		}
		url, err := wasm.DecodeSourceMappingURL(sec.Data)
		if err != nil {
			return errors.MalformedContainer(errors.PhasePatch, "decode existing source map url", err)
		}
		p.appended = sec.Size
		p.existing = url
	}
	return nil
}

// Path returns the file being patched.
func (p *Patcher) Path() string {
	return p.path
}

// AppendedLength returns the on-disk size of the trailing
// sourceMappingURL section and whether one is present.
func (p *Patcher) AppendedLength() (uint64, bool) {
	return p.appended, p.appended > 0
}

// URL returns the url currently stored in the file, if any.
func (p *Patcher) URL() string {
	return p.existing
}

// Patch replaces the trailing sourceMappingURL section, if any, with one
// holding url. The new image is written to a temporary file and renamed
// over the original, so on failure the file is left as it was.
func (p *Patcher) Patch(url string) error {
	info, err := os.Stat(p.path)
	if err != nil {
		return errors.IO(errors.PhasePatch, p.path, err)
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return errors.IO(errors.PhasePatch, p.path, err)
	}

	if p.appended > 0 {
		if err := p.checkTail(data); err != nil {
			return err
		}
		data = data[:uint64(len(data))-p.appended]
	}

	section := BuildSection(url)
	out := make([]byte, 0, len(data)+len(section))
	out = append(out, data...)
	out = append(out, section...)

	if err := fsutil.WriteFileAtomic(p.path, out, info.Mode().Perm()); err != nil {
		return errors.IO(errors.PhasePatch, p.path, err)
	}

	Logger().Info("patched source map url",
		zap.String("path", p.path),
		zap.String("url", url),
		zap.Uint64("replaced_bytes", p.appended),
		zap.Int("section_bytes", len(section)))

	p.appended = uint64(len(section))
	p.existing = url
	return nil
}

// checkTail confirms the remembered section is still the last thing in the
// file before it is cut off.
func (p *Patcher) checkTail(data []byte) error {
	if uint64(len(data)) < p.appended {
		return errors.MalformedContainer(errors.PhasePatch, "file shrank since it was opened", nil)
	}
	sections, err := wasm.ScanSections(data)
	if err != nil || len(sections) == 0 {
		return errors.MalformedContainer(errors.PhasePatch, "file changed since it was opened", err)
	}
	last := sections[len(sections)-1]
	if last.Name != wasm.SourceMappingURLSectionName || last.Size != p.appended || last.End() != uint64(len(data)) {
		return errors.MalformedContainer(errors.PhasePatch, "trailing section changed since the file was opened", nil)
	}
	return nil
}

// BuildSection encodes a sourceMappingURL custom section holding url.
func BuildSection(url string) []byte {
	return wasm.EncodeSourceMappingURL(url)
}

// MappingURL joins a base url and the map file's name with a slash.
func MappingURL(baseURL, mapName string) string {
	return baseURL + "/" + mapName
}
