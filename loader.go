package dynpb

import (
	"errors"
	"os"
	"strings"

	"google.golang.org/protobuf/types/descriptorpb"
)

// Fetcher supplies the raw bytes named by an import path. It is the
// external collaborator spec.md's Root Loader section assigns the "fetch"
// role to: this package never talks to a filesystem or network directly,
// only through whatever Fetcher a caller configures.
type Fetcher interface {
	FetchSync(path string) ([]byte, error)
}

// AsyncFetcher is the non-blocking counterpart Load (loader_async.go)
// prefers: instead of blocking the caller, it invokes callback exactly
// once with the fetched bytes or the failure. A Fetcher that does not also
// implement AsyncFetcher still works with Load; FetchSync is then run on
// its own goroutine per fetch.
type AsyncFetcher interface {
	Fetch(path string, callback func(source []byte, err error))
}

// asyncOnlyFetcher adapts an AsyncFetcher with no usable synchronous read
// primitive into a Fetcher: its FetchSync always fails with ErrNotSupported
// rather than blocking or silently reaching the local filesystem.
type asyncOnlyFetcher struct{ AsyncFetcher }

func (asyncOnlyFetcher) FetchSync(string) ([]byte, error) { return nil, ErrNotSupported }

// AsyncOnly wraps an AsyncFetcher that has no synchronous counterpart (for
// example a network-backed fetch) so it can still be assigned to
// LoadOptions.Fetcher: Load (the asynchronous entry point) uses af directly,
// while LoadSync fails fast with ErrNotSupported instead of pretending disk
// access is available, per spec.md section 6's "loadSync ... unavailable
// when no synchronous file primitive exists" contract.
func AsyncOnly(af AsyncFetcher) Fetcher { return asyncOnlyFetcher{af} }

// Parser turns one file's already-fetched source bytes into a
// FileDescriptorProto. It is the external collaborator spec.md's section 1
// carves out as out-of-scope for this package to implement from scratch:
// protoparse.go and jsondesc.go provide the two bundled implementations,
// and BuildFile (builder.go) is what actually walks the resulting proto
// into the schema tree.
type Parser interface {
	Parse(filename string, source []byte) (*descriptorpb.FileDescriptorProto, error)
}

// DefaultParser dispatches to ParseJSONDescriptor for a ".json" filename
// and to ParseProtoText otherwise.
type DefaultParser struct{}

func (DefaultParser) Parse(filename string, source []byte) (*descriptorpb.FileDescriptorProto, error) {
	if strings.HasSuffix(filename, ".json") {
		return ParseJSONDescriptor(source)
	}
	return ParseProtoText(filename, source)
}

// LoadOptions configures a load. The zero value is usable: a nil Parser
// defaults to DefaultParser, and a nil Fetcher defaults to reading plain
// files off the local filesystem.
type LoadOptions struct {
	Fetcher Fetcher
	Parser  Parser
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Parser == nil {
		o.Parser = DefaultParser{}
	}
	if o.Fetcher == nil {
		o.Fetcher = osFetcher{}
	}
	return o
}

type osFetcher struct{}

func (osFetcher) FetchSync(path string) ([]byte, error) { return os.ReadFile(path) }

// stackEntry is a pending import together with whether it was reached via a
// weak dependency: per spec.md section 4.5, a weak import is still fetched,
// parsed, and traversed exactly like a strong one, but a fetch or parse
// failure on it is swallowed rather than surfaced.
type stackEntry struct {
	name string
	weak bool
}

// LoadSync loads files, and everything they transitively import (including
// weak imports, fetched on a best-effort basis), into a fresh Root. It uses
// an explicit work stack rather than recursion, per spec.md's note that a
// pathological or cyclic import graph must not grow the call stack with
// file count; a bundled well-known-type import is served from the
// in-binary table (wellknown.Table) instead of reaching the Fetcher, and a
// filename already processed under its resolved form is skipped rather
// than fetched twice.
func LoadSync(files []string, options LoadOptions) (*Root, error) {
	opts := options.withDefaults()
	root := NewRoot()

	stack := make([]stackEntry, 0, len(files))
	for _, f := range files {
		stack = append(stack, stackEntry{name: f})
	}

	for len(stack) > 0 {
		n := len(stack) - 1
		entry := stack[n]
		stack = stack[:n]
		name := entry.name

		if bundledName, ok := root.BundledFileName(name); ok {
			name = bundledName
		}
		if !root.markFileProcessed(name) {
			continue
		}

		fd, err := loadFileSync(root, name, opts)
		if err != nil {
			if entry.weak {
				continue // weak-import fetch/parse failures are swallowed, per spec.md section 7
			}
			return root, err
		}

		imports, weakImports, err := BuildFile(root, fd)
		if err != nil {
			return root, err
		}

		weak := make(map[string]bool, len(weakImports))
		for _, w := range weakImports {
			weak[w] = true
		}
		for _, imp := range imports {
			stack = append(stack, stackEntry{name: imp, weak: weak[imp]})
		}
	}

	if err := root.ResolveAll(); err != nil {
		return root, err
	}
	return root, nil
}

func loadFileSync(root *Root, name string, opts LoadOptions) (*descriptorpb.FileDescriptorProto, error) {
	if fd, ok := root.bundled.Get(name); ok {
		return fd, nil
	}
	src, err := opts.Fetcher.FetchSync(name)
	if err != nil {
		if errors.Is(err, ErrNotSupported) {
			return nil, err
		}
		return nil, &FetchError{Filename: name, Err: err, LoadID: root.loadID}
	}
	fd, err := opts.Parser.Parse(name, src)
	if err != nil {
		return nil, &ParseError{Filename: name, Err: err, LoadID: root.loadID}
	}
	return fd, nil
}
