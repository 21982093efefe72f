package importer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/id"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

// Loader converts one institution's export into the canonical five-column
// frame (date, description, amount, currency, source), with unparseable rows
// dropped and rows sorted ascending by date. Load also returns how many
// non-blank data rows it read, so callers can count the drops.
type Loader interface {
	Load(path string) (*frame.Frame, int, error)
	Format() string
	Source() string
}

// Registry holds loaders keyed by source tag.
type Registry struct {
	loaders map[string]Loader
}

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// Register adds a loader. Panics on a duplicate source tag.
func (r *Registry) Register(l Loader) {
	key := strings.ToLower(l.Source())
	if _, ok := r.loaders[key]; ok {
		panic("duplicate loader source: " + key)
	}
	r.loaders[key] = l
}

// Get returns the loader for source, or nil.
func (r *Registry) Get(source string) Loader {
	return r.loaders[strings.ToLower(source)]
}

// Sources returns the registered source tags, sorted.
func (r *Registry) Sources() []string {
	out := make([]string, 0, len(r.loaders))
	for _, l := range r.loaders {
		out = append(out, l.Source())
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry returns a registry with both built-in institutions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewBGLoader())
	r.Register(NewSDLoader())
	return r
}

// NewLoader builds a loader for a configured source.
func NewLoader(format, source, currency string, headerRow int, signs SignRules) (Loader, error) {
	switch strings.ToLower(format) {
	case FormatBG:
		l := NewBGLoader()
		l.SourceTag = source
		l.Currency = currency
		l.HeaderRow = headerRow
		l.Signs = signs
		return l, nil
	case FormatSD:
		l := NewSDLoader()
		l.SourceTag = source
		l.Currency = currency
		l.HeaderRow = headerRow
		return l, nil
	}
	return nil, fmt.Errorf("unknown source format %q", format)
}

// Input names a file to load with the loader registered for Source.
type Input struct {
	Source string
	Path   string
}

// LoadAll loads every input, stamps record IDs, and concatenates the results
// sorted by date. Ties keep input order, then row order. Every path is
// checked before any file is read. The count is the data rows read across
// all inputs, before unparseable rows were dropped.
func (r *Registry) LoadAll(inputs []Input) (*frame.Frame, int, error) {
	for _, in := range inputs {
		if _, err := os.Stat(in.Path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, 0, &model.MissingInputError{Path: in.Path, Err: err}
			}
			return nil, 0, fmt.Errorf("stat %s: %w", in.Path, err)
		}
		if r.Get(in.Source) == nil {
			return nil, 0, fmt.Errorf("no loader registered for source %q", in.Source)
		}
	}

	frames := make([]*frame.Frame, 0, len(inputs))
	read := 0
	for _, in := range inputs {
		l := r.Get(in.Source)
		f, n, err := l.Load(in.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("loading %s export %s: %w", l.Source(), in.Path, err)
		}
		stampRecordIDs(f)
		frames = append(frames, f)
		read += n
	}

	all := frame.Concat(frames...)
	all.SortByDate(model.ColDate)
	return all, read, nil
}

// LoadAll loads one Institution A export and one Institution B export with
// the default loaders.
func LoadAll(bgPath, sdPath string) (*frame.Frame, error) {
	f, _, err := DefaultRegistry().LoadAll([]Input{
		{Source: DefaultBGSource, Path: bgPath},
		{Source: DefaultSDSource, Path: sdPath},
	})
	return f, err
}

func stampRecordIDs(f *frame.Frame) {
	seq := id.NewSequencer()
	f.Derive(model.ColRecordID, func(r frame.Row) any {
		d, _ := r.Time(model.ColDate)
		return seq.Next(r.String(model.ColSource), d)
	})
}

// finish drops rows without a date or amount and sorts the rest by date.
func finish(f *frame.Frame) *frame.Frame {
	f.Filter(func(r frame.Row) bool {
		_, okDate := r.Time(model.ColDate)
		_, okAmount := r.Decimal(model.ColAmount)
		return okDate && okAmount
	})
	f.SortByDate(model.ColDate)
	return f
}

// FileInfo describes an export file found by Scan.
type FileInfo struct {
	Name   string
	Path   string
	Size   int64
	Format string // detected from the file name, "" when unknown
}

var workbookExts = map[string]bool{".xlsx": true, ".xlsm": true, ".xls": true, ".csv": true}

// Scan returns the workbook and CSV exports directly inside dir. A missing
// directory yields no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !workbookExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name:   e.Name(),
			Path:   filepath.Join(dir, e.Name()),
			Size:   info.Size(),
			Format: DetectFormat(e.Name()),
		})
	}
	return files, nil
}

// DetectFormat guesses the export format from a file name prefix such as
// "BG_Transacciones.xlsx".
func DetectFormat(name string) string {
	base := strings.ToLower(filepath.Base(name))
	for _, f := range []string{FormatBG, FormatSD} {
		if strings.HasPrefix(base, f+"_") || strings.HasPrefix(base, f+"-") || strings.HasPrefix(base, f+".") {
			return f
		}
	}
	return ""
}
