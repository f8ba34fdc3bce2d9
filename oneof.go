package dynpb

// OneOf groups a subset of a Type's fields so that at most one is ever set
// at a time. Index is the position of this group within its Type's Oneofs
// slice and is what Message.Which reports.
type OneOf struct {
	Name     string
	Index    int
	FieldIDs []int32
}
