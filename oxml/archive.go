package oxml

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"
)

// archive is the entry store of a spreadsheet package. Entries can be replaced
// or removed; the original entries are never modified and the package is only
// rebuilt by Generate.
type archive struct {
	files   []*zip.File
	entries map[string]*zip.File
	changed map[string][]byte
	removed map[string]struct{}
}

func openArchive(r io.ReaderAt, size int64) (*archive, error) {
	z, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArchive, err)
	}
	a := archive{
		files:   z.File,
		entries: make(map[string]*zip.File),
		changed: make(map[string][]byte),
		removed: make(map[string]struct{}),
	}
	for _, f := range z.File {
		if _, ok := a.entries[f.Name]; ok {
			continue
		}
		a.entries[f.Name] = f
	}
	return &a, nil
}

func (a *archive) Has(name string) bool {
	if _, ok := a.removed[name]; ok {
		return false
	}
	if _, ok := a.changed[name]; ok {
		return true
	}
	_, ok := a.entries[name]
	return ok
}

func (a *archive) ReadFile(name string) ([]byte, error) {
	if _, ok := a.removed[name]; ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	if buf, ok := a.changed[name]; ok {
		return slices.Clone(buf), nil
	}
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (a *archive) Replace(name string, data []byte) {
	delete(a.removed, name)
	a.changed[name] = data
}

func (a *archive) Remove(name string) {
	delete(a.changed, name)
	a.removed[name] = struct{}{}
}

// Generate rebuilds the package. Entries keep their original order, method
// and modification time; untouched entries are copied without being
// recompressed.
func (a *archive) Generate() ([]byte, error) {
	var (
		buf  bytes.Buffer
		z    = zip.NewWriter(&buf)
		seen = make(map[string]struct{})
	)
	z.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})
	for _, f := range a.files {
		if _, ok := seen[f.Name]; ok {
			continue
		}
		seen[f.Name] = struct{}{}
		if _, ok := a.removed[f.Name]; ok {
			continue
		}
		data, ok := a.changed[f.Name]
		if !ok {
			if err := z.Copy(f); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrRegenerate, f.Name, err)
			}
			continue
		}
		hdr := zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		}
		if err := a.writeEntry(z, &hdr, data); err != nil {
			return nil, err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(a.changed)) {
		if _, ok := seen[name]; ok {
			continue
		}
		hdr := zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		if err := a.writeEntry(z, &hdr, a.changed[name]); err != nil {
			return nil, err
		}
	}
	if err := z.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegenerate, err)
	}
	return buf.Bytes(), nil
}

func (a *archive) writeEntry(z *zip.Writer, hdr *zip.FileHeader, data []byte) error {
	w, err := z.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRegenerate, hdr.Name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRegenerate, hdr.Name, err)
	}
	return nil
}
