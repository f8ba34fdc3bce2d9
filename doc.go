// Package dynpb is a reflection-based Protocol Buffers runtime: given a
// resolved message schema it decodes a length-delimited wire stream into an
// in-memory dynamic message, and given a list of .proto files or JSON
// descriptors it loads and resolves the schema graph those decoders run
// against.
//
// The wire decoder lives in the internal/tdp package as a generic,
// schema-agnostic dispatch loop; this package compiles that dispatch table
// from a resolved [Type] and wraps the result in a schema-aware [Message].
// The schema loader ([Root], [Load], [LoadSync]) resolves imports
// (including a bundled table of well-known types), runs deferred extension
// attachment, and assigns each [Type] the stable index the decoder uses for
// recursive and cyclic message references.
//
// Encoding, verification, and the textual .proto tokenizer are out of
// scope: this package consumes already-parsed descriptor protos, whether
// produced by a real .proto compiler (see [ParseProtoText]) or by decoding
// a JSON-encoded google.protobuf.FileDescriptorProto (see
// [ParseJSONDescriptor]).
package dynpb
