package dynpb

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"google.golang.org/protobuf/types/descriptorpb"
)

// AsyncLoadOptions extends LoadOptions with the asynchronous loader's own
// knob: MaxConcurrentFetches bounds how many Fetcher fetches are in flight
// at once, via a weighted semaphore, so a wide or pathological import
// graph cannot open an unbounded number of concurrent fetches.
type AsyncLoadOptions struct {
	LoadOptions
	MaxConcurrentFetches int64
}

func (o AsyncLoadOptions) withDefaults() AsyncLoadOptions {
	o.LoadOptions = o.LoadOptions.withDefaults()
	if o.MaxConcurrentFetches <= 0 {
		o.MaxConcurrentFetches = 8
	}
	return o
}

// Load asynchronously loads files and their transitive imports (including
// weak imports, fetched on a best-effort basis) into a fresh Root, invoking
// callback exactly once with the finished Root or the first failure
// encountered. This is the in-flight-counter model
// spec.md's Design Notes recommend over a wait-group-per-level scheme: one
// shared counter of outstanding fetch-or-build steps, incremented before
// every enqueue and decremented when that step's work (including
// recursively enqueuing its own imports) finishes; the counter reaching
// zero is the single moment at which the callback is allowed to fire, and
// a mutex guarding both the Root and the "have we already fired" flag is
// what makes that moment observable exactly once no matter how many
// goroutines the configured Fetcher calls back on.
func Load(files []string, options AsyncLoadOptions, callback func(*Root, error)) {
	opts := options.withDefaults()
	root := NewRoot()
	sem := semaphore.NewWeighted(opts.MaxConcurrentFetches)
	ctx := context.Background()

	var (
		mu       sync.Mutex
		pending  int
		fired    bool
		firstErr error
	)

	finish := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		pending--
		if pending > 0 || fired {
			return
		}
		fired = true
		result := firstErr
		if result == nil {
			result = root.ResolveAll()
		}
		if result != nil {
			callback(nil, result)
		} else {
			callback(root, nil)
		}
	}

	var enqueue func(name string, weak bool)
	enqueue = func(name string, weak bool) {
		mu.Lock()
		if bundledName, ok := root.BundledFileName(name); ok {
			name = bundledName
		}
		if !root.markFileProcessed(name) {
			mu.Unlock()
			return
		}
		bundledFD, isBundled := root.bundled.Get(name)
		pending++
		mu.Unlock()

		if isBundled {
			onDescriptor(root, &mu, bundledFD, enqueue, finish)
			return
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			finish(err)
			return
		}
		fetch(opts.Fetcher, name, func(src []byte, err error) {
			defer sem.Release(1)
			if err != nil {
				// Weak-import fetch failures are swallowed, per spec.md
				// section 7; this step still counts toward pending.
				if weak {
					finish(nil)
					return
				}
				finish(&FetchError{Filename: name, Err: err, LoadID: root.loadID})
				return
			}
			fd, err := opts.Parser.Parse(name, src)
			if err != nil {
				if weak {
					finish(nil)
					return
				}
				finish(&ParseError{Filename: name, Err: err, LoadID: root.loadID})
				return
			}
			onDescriptor(root, &mu, fd, enqueue, finish)
		})
	}

	// Hold one extra slot open until every initial file has been
	// enqueued, so a Fetcher that calls back synchronously (driving
	// pending to zero before the loop below has finished iterating
	// files) cannot trigger the callback early.
	mu.Lock()
	pending++
	mu.Unlock()

	for _, f := range files {
		enqueue(f, false)
	}
	finish(nil)
}

// fetch calls f asynchronously if it implements AsyncFetcher, and falls
// back to running FetchSync on its own goroutine otherwise.
func fetch(f Fetcher, name string, callback func([]byte, error)) {
	if af, ok := f.(AsyncFetcher); ok {
		af.Fetch(name, callback)
		return
	}
	go func() {
		src, err := f.FetchSync(name)
		callback(src, err)
	}()
}

func onDescriptor(root *Root, mu *sync.Mutex, fd *descriptorpb.FileDescriptorProto, enqueue func(string, bool), finish func(error)) {
	mu.Lock()
	imports, weakImports, err := BuildFile(root, fd)
	mu.Unlock()
	if err != nil {
		finish(err)
		return
	}

	weak := make(map[string]bool, len(weakImports))
	for _, w := range weakImports {
		weak[w] = true
	}
	for _, imp := range imports {
		enqueue(imp, weak[imp])
	}
	finish(nil)
}
