package dynpb

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/simon-paris/dynpb/internal/wellknown"
)

// fileSet is a small in-memory collection of file descriptors keyed by
// name, fed to a fakeFetcher/fakeParser pair so the loader tests below can
// drive an import graph without touching a real filesystem.
type fileSet map[string]*descriptorpb.FileDescriptorProto

func scalarField(name string, number int32, t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	return &descriptorpb.FieldDescriptorProto{Name: proto.String(name), Number: proto.Int32(number), Label: &label, Type: &t}
}

// messageField builds a singular message-typed field descriptor referring
// to typeName by symbolic name (a fully-qualified ".Name" form). Type is
// TYPE_MESSAGE, which has no scalar keyword, so BuildFile falls back to the
// symbolic TypeName exactly as it does for a real FileDescriptorProto's
// message-typed fields.
func messageField(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	t := descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	return &descriptorpb.FieldDescriptorProto{Name: proto.String(name), Number: proto.Int32(number), Label: &label, Type: &t, TypeName: proto.String(typeName)}
}

// fakeFetcher counts how many times each filename is actually fetched and
// supports both the synchronous and asynchronous Fetcher contracts. Async
// fetches for names listed in deferred run on their own goroutine (racing
// with any synchronously-resolved sibling), so tests exercise mixed
// immediate/deferred completion order rather than only one shape.
type fakeFetcher struct {
	files     fileSet
	deferred  map[string]bool
	failing   map[string]bool
	fetchCount map[string]*int32
	mu        sync.Mutex
}

func newFakeFetcher(files fileSet) *fakeFetcher {
	return &fakeFetcher{
		files:      files,
		deferred:   map[string]bool{},
		failing:    map[string]bool{},
		fetchCount: map[string]*int32{},
	}
}

func (f *fakeFetcher) count(name string) *int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.fetchCount[name]
	if !ok {
		var zero int32
		c = &zero
		f.fetchCount[name] = c
	}
	return c
}

func (f *fakeFetcher) CountOf(name string) int32 { return atomic.LoadInt32(f.count(name)) }

func (f *fakeFetcher) raw(name string) ([]byte, error) {
	atomic.AddInt32(f.count(name), 1)
	if f.failing[name] {
		return nil, errors.New("fake fetch failure")
	}
	fd, ok := f.files[name]
	if !ok {
		return nil, errors.New("no such file: " + name)
	}
	b, err := proto.Marshal(fd)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (f *fakeFetcher) FetchSync(name string) ([]byte, error) { return f.raw(name) }

func (f *fakeFetcher) Fetch(name string, callback func([]byte, error)) {
	if f.deferred[name] {
		go func() {
			src, err := f.raw(name)
			callback(src, err)
		}()
		return
	}
	src, err := f.raw(name)
	callback(src, err)
}

// fakeParser decodes the marshaled FileDescriptorProto back out; since
// fakeFetcher.raw already produced it from a fileSet entry, this just
// reverses proto.Marshal rather than parsing real .proto text.
type fakeParser struct{}

func (fakeParser) Parse(_ string, source []byte) (*descriptorpb.FileDescriptorProto, error) {
	fd := &descriptorpb.FileDescriptorProto{}
	if err := proto.Unmarshal(source, fd); err != nil {
		return nil, err
	}
	return fd, nil
}

func TestLoadSyncDedupProcessesSharedImportOnce(t *testing.T) {
	files := fileSet{
		"common.proto": {
			Name: proto.String("common.proto"),
			MessageType: []*descriptorpb.DescriptorProto{
				{Name: proto.String("Shared"), Field: []*descriptorpb.FieldDescriptorProto{
					scalarField("id", 1, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				}},
			},
		},
		"a.proto": {
			Name:       proto.String("a.proto"),
			Dependency: []string{"common.proto"},
			MessageType: []*descriptorpb.DescriptorProto{
				{Name: proto.String("A"), Field: []*descriptorpb.FieldDescriptorProto{
					messageField("shared", 1, ".Shared"),
				}},
			},
		},
		"b.proto": {
			Name:       proto.String("b.proto"),
			Dependency: []string{"common.proto"},
			MessageType: []*descriptorpb.DescriptorProto{
				{Name: proto.String("B"), Field: []*descriptorpb.FieldDescriptorProto{
					messageField("shared", 1, ".Shared"),
				}},
			},
		},
	}

	fetcher := newFakeFetcher(files)
	root, err := LoadSync([]string{"a.proto", "b.proto"}, LoadOptions{Fetcher: fetcher, Parser: fakeParser{}})
	require.NoError(t, err)
	require.NotNil(t, root)

	assert.EqualValues(t, 1, fetcher.CountOf("common.proto"))
	assert.EqualValues(t, 1, fetcher.CountOf("a.proto"))
	assert.EqualValues(t, 1, fetcher.CountOf("b.proto"))

	_, ok := root.LookupLocal("Shared")
	assert.True(t, ok)
}

func TestLoadSyncWeakImportFailureSwallowed(t *testing.T) {
	files := fileSet{
		"main.proto": {
			Name:            proto.String("main.proto"),
			Dependency:      []string{"missing.proto"},
			WeakDependency:  []int32{0},
			MessageType: []*descriptorpb.DescriptorProto{
				{Name: proto.String("Main")},
			},
		},
	}
	fetcher := newFakeFetcher(files)
	fetcher.failing["missing.proto"] = true

	root, err := LoadSync([]string{"main.proto"}, LoadOptions{Fetcher: fetcher, Parser: fakeParser{}})
	require.NoError(t, err)
	_, ok := root.LookupLocal("Main")
	assert.True(t, ok)
}

func TestLoadSyncStrongImportFailurePropagates(t *testing.T) {
	files := fileSet{
		"main.proto": {
			Name:       proto.String("main.proto"),
			Dependency: []string{"missing.proto"},
			MessageType: []*descriptorpb.DescriptorProto{
				{Name: proto.String("Main")},
			},
		},
	}
	fetcher := newFakeFetcher(files)
	fetcher.failing["missing.proto"] = true

	_, err := LoadSync([]string{"main.proto"}, LoadOptions{Fetcher: fetcher, Parser: fakeParser{}})
	require.Error(t, err)
	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
}

// buildFanOutFiles returns a root file depending on n leaf files, each
// trivially parseable and independent of one another - enough breadth to
// exercise every completion-order interleaving Load's in-flight counter
// must tolerate.
func buildFanOutFiles(n int) (fileSet, []string) {
	files := fileSet{}
	deps := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := "leaf" + string(rune('a'+i)) + ".proto"
		deps = append(deps, name)
		files[name] = &descriptorpb.FileDescriptorProto{
			Name: proto.String(name),
			MessageType: []*descriptorpb.DescriptorProto{
				{Name: proto.String("Leaf" + string(rune('A'+i)))},
			},
		}
	}
	files["root.proto"] = &descriptorpb.FileDescriptorProto{
		Name:       proto.String("root.proto"),
		Dependency: deps,
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: proto.String("Root")},
		},
	}
	return files, deps
}

// TestLoadCallbackExactlyOnceAcrossCompletionOrders runs Load repeatedly
// with every leaf fetch alternating between synchronous and goroutine
// (deferred) completion, verifying the user callback fires exactly once
// each time regardless of which fetches race ahead of which.
func TestLoadCallbackExactlyOnceAcrossCompletionOrders(t *testing.T) {
	for trial := 0; trial < 20; trial++ {
		files, deps := buildFanOutFiles(6)
		fetcher := newFakeFetcher(files)
		for i, name := range deps {
			if (i+trial)%2 == 0 {
				fetcher.deferred[name] = true
			}
		}

		var calls int32
		var wg sync.WaitGroup
		wg.Add(1)
		var gotRoot *Root
		var gotErr error
		Load([]string{"root.proto"}, AsyncLoadOptions{LoadOptions: LoadOptions{Fetcher: fetcher, Parser: fakeParser{}}}, func(r *Root, err error) {
			atomic.AddInt32(&calls, 1)
			gotRoot, gotErr = r, err
			wg.Done()
		})
		wg.Wait()

		assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "trial %d: callback must fire exactly once", trial)
		require.NoError(t, gotErr)
		require.NotNil(t, gotRoot)
		_, ok := gotRoot.LookupLocal("Root")
		assert.True(t, ok)
	}
}

func TestLoadEmptyFileListStillFiresCallback(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	Load(nil, AsyncLoadOptions{LoadOptions: LoadOptions{Fetcher: newFakeFetcher(fileSet{}), Parser: fakeParser{}}}, func(r *Root, err error) {
		atomic.AddInt32(&calls, 1)
		close(done)
	})
	<-done
	assert.EqualValues(t, 1, calls)
}

func TestLoadWeakImportFetchFailureDoesNotFailLoad(t *testing.T) {
	files := fileSet{
		"main.proto": {
			Name:           proto.String("main.proto"),
			Dependency:     []string{"missing.proto"},
			WeakDependency: []int32{0},
			MessageType:    []*descriptorpb.DescriptorProto{{Name: proto.String("Main")}},
		},
	}
	fetcher := newFakeFetcher(files)
	fetcher.failing["missing.proto"] = true
	fetcher.deferred["missing.proto"] = true

	done := make(chan struct{})
	var gotRoot *Root
	var gotErr error
	Load([]string{"main.proto"}, AsyncLoadOptions{LoadOptions: LoadOptions{Fetcher: fetcher, Parser: fakeParser{}}}, func(r *Root, err error) {
		gotRoot, gotErr = r, err
		close(done)
	})
	<-done

	require.NoError(t, gotErr)
	_, ok := gotRoot.LookupLocal("Main")
	assert.True(t, ok)
}

// asyncOnlyTestFetcher is an AsyncFetcher with no synchronous counterpart, wired
// through AsyncOnly to prove LoadSync actually reaches ErrNotSupported
// rather than leaving it a documented-but-unreachable identifier.
type asyncOnlyTestFetcher struct{}

func (asyncOnlyTestFetcher) Fetch(_ string, callback func([]byte, error)) {
	callback(nil, errors.New("should never be called synchronously"))
}

func TestLoadSyncFailsNotSupportedWithoutSyncFetcher(t *testing.T) {
	_, err := LoadSync([]string{"whatever.proto"}, LoadOptions{Fetcher: AsyncOnly(asyncOnlyTestFetcher{}), Parser: fakeParser{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestBundledFileNameMatchesSuffix(t *testing.T) {
	// internal/wellknown blank-imports every types/known/* package (plus
	// pluginpb) precisely so all twelve canonical names - not just
	// descriptor.proto, which arrives for free via descriptorpb - are
	// registered in protoregistry.GlobalFiles and thus present here.
	root := NewRoot()
	name, ok := root.BundledFileName("vendor/include/google/protobuf/any.proto")
	require.True(t, ok)
	assert.Equal(t, "google/protobuf/any.proto", name)

	_, ok = root.BundledFileName("vendor/include/google/protobuf/not_a_real_file.proto")
	assert.False(t, ok)
}

func TestBundledFileNameCoversEveryCanonicalName(t *testing.T) {
	root := NewRoot()
	for _, name := range wellknown.Names {
		_, ok := root.BundledFileName(name)
		assert.True(t, ok, "expected %q to be bundled", name)
	}
}
