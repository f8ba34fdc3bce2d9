package dynpb

import (
	"bytes"

	"github.com/bufbuild/protocompile/parser"
	"github.com/bufbuild/protocompile/reporter"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ParseProtoText compiles one .proto source file's text into a
// FileDescriptorProto using protocompile's syntactic parser - the same
// tokenizer/parser buf and protoc-gen-* plugins build on - without linking
// it against its imports. That is deliberate: spec.md assigns import-graph
// resolution to the Root loader (loader.go, loader_async.go), not to the
// parse step, so this only needs the declared dependency list out of the
// file, which protocompile's unlinked parser.Result already carries on its
// FileDescriptorProto before any cross-file symbol resolution happens.
func ParseProtoText(filename string, source []byte) (*descriptorpb.FileDescriptorProto, error) {
	handler := reporter.NewHandler(nil)

	fileNode, err := parser.Parse(filename, bytes.NewReader(source), handler)
	if err != nil {
		return nil, err
	}
	result, err := parser.ResultFromAST(fileNode, true, handler)
	if err != nil {
		return nil, err
	}
	return result.FileDescriptorProto(), nil
}
