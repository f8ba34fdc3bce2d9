package dynpb

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ParseJSONDescriptor decodes a JSON-encoded FileDescriptorProto using
// encoding/protojson's canonical proto3 JSON mapping. This is the second
// source format the Root loader accepts alongside textual .proto source
// (see protoparse.go); DefaultParser picks between the two by filename
// extension.
func ParseJSONDescriptor(source []byte) (*descriptorpb.FileDescriptorProto, error) {
	fd := &descriptorpb.FileDescriptorProto{}
	if err := protojson.Unmarshal(source, fd); err != nil {
		return nil, err
	}
	return fd, nil
}
