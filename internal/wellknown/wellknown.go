// Package wellknown provides the bundled table of canonical well-known
// Protobuf type files: the schema loader consults it before fetching a
// dependency from disk or network, keyed by the suffix of the requested
// path starting at the last "google/protobuf/" occurrence.
//
// The table's membership is grounded in the real compiled-in well-known
// file descriptors that google.golang.org/protobuf registers into
// protoregistry.GlobalFiles at init time (timestamppb, durationpb,
// wrapperspb, and friends all call proto.RegisterFile in their generated
// init()). Rather than hand-copying the canonical .proto text, this
// package reads the already-linked FileDescriptor back out of that global
// registry, so the bundled bytes can never drift from the descriptors the
// rest of the ecosystem parses against.
package wellknown

import (
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"

	// Blank-imported purely for their generated init() side effect: each
	// calls proto.RegisterFile on its corresponding "google/protobuf/*.proto"
	// well-known file, which is what populates protoregistry.GlobalFiles
	// below. descriptorpb (imported above for FileDescriptorProto itself)
	// only accounts for descriptor.proto; without these, Default would
	// silently resolve just that one entry out of Names and fall through to
	// the Fetcher for every other well-known import.
	_ "google.golang.org/protobuf/types/known/anypb"
	_ "google.golang.org/protobuf/types/known/apipb"
	_ "google.golang.org/protobuf/types/known/durationpb"
	_ "google.golang.org/protobuf/types/known/emptypb"
	_ "google.golang.org/protobuf/types/known/fieldmaskpb"
	_ "google.golang.org/protobuf/types/known/sourcecontextpb"
	_ "google.golang.org/protobuf/types/known/structpb"
	_ "google.golang.org/protobuf/types/known/timestamppb"
	_ "google.golang.org/protobuf/types/known/typepb"
	_ "google.golang.org/protobuf/types/known/wrapperspb"
	_ "google.golang.org/protobuf/types/pluginpb"
)

// Names lists the canonical bundled file suffixes, per spec.md section 6.
var Names = []string{
	"google/protobuf/any.proto",
	"google/protobuf/api.proto",
	"google/protobuf/compiler/plugin.proto",
	"google/protobuf/descriptor.proto",
	"google/protobuf/duration.proto",
	"google/protobuf/empty.proto",
	"google/protobuf/field_mask.proto",
	"google/protobuf/source_context.proto",
	"google/protobuf/struct.proto",
	"google/protobuf/timestamp.proto",
	"google/protobuf/type.proto",
	"google/protobuf/wrappers.proto",
}

// Table is the bundled well-known-types lookup table.
type Table struct {
	byName map[string]*descriptorpb.FileDescriptorProto
}

// Default builds the bundled table from the well-known file descriptors
// linked into this binary via google.golang.org/protobuf's global file
// registry. A name present in Names but not (yet) registered in the
// running binary's protoregistry.GlobalFiles is simply omitted: callers
// fall back to fetching it like any other import.
func Default() *Table {
	t := &Table{byName: make(map[string]*descriptorpb.FileDescriptorProto)}
	for _, name := range Names {
		fd, err := protoregistry.GlobalFiles.FindFileByPath(name)
		if err != nil {
			continue
		}
		t.byName[name] = protodesc.ToFileDescriptorProto(fd)
	}
	return t
}

// Has reports whether name (already reduced to its "google/protobuf/..."
// suffix) is present in the bundled table.
func (t *Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Get returns the bundled descriptor proto for name, if present.
func (t *Table) Get(name string) (*descriptorpb.FileDescriptorProto, bool) {
	fd, ok := t.byName[name]
	return fd, ok
}

// Descriptor re-derives a live protoreflect.FileDescriptor for name,
// useful when a caller needs the fully linked form rather than the raw
// proto.
func Descriptor(name string) (protoreflect.FileDescriptor, bool) {
	fd, err := protoregistry.GlobalFiles.FindFileByPath(name)
	if err != nil {
		return nil, false
	}
	return fd, true
}
