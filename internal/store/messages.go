package store

import (
	"github.com/theater-rt/theater/internal/baselib/actor"
	"github.com/theater-rt/theater/internal/theaterid"
)

// StoreServiceKey is the service key for the content store actor.
var StoreServiceKey = actor.NewServiceKey[StoreRequest, StoreResponse](
	"content-store",
)

// StoreRequest is the union type for all content store requests, per spec
// §4.1.
type StoreRequest interface {
	actor.Message
	isStoreRequest()
}

// Ensure all request types implement StoreRequest.
func (StoreBytesRequest) isStoreRequest()      {}
func (GetRequest) isStoreRequest()             {}
func (ExistsRequest) isStoreRequest()          {}
func (LabelRequest) isStoreRequest()           {}
func (RemoveFromLabelRequest) isStoreRequest() {}
func (PutAtLabelRequest) isStoreRequest()      {}
func (ReplaceAtLabelRequest) isStoreRequest()  {}
func (GetByLabelRequest) isStoreRequest()      {}
func (ListLabelsRequest) isStoreRequest()      {}
func (TotalSizeRequest) isStoreRequest()       {}

// StoreResponse is the union type for all content store responses.
type StoreResponse interface {
	isStoreResponse()
}

// Ensure all response types implement StoreResponse.
func (StoreBytesResponse) isStoreResponse()      {}
func (GetResponse) isStoreResponse()             {}
func (ExistsResponse) isStoreResponse()          {}
func (LabelResponse) isStoreResponse()           {}
func (RemoveFromLabelResponse) isStoreResponse() {}
func (PutAtLabelResponse) isStoreResponse()      {}
func (ReplaceAtLabelResponse) isStoreResponse()  {}
func (GetByLabelResponse) isStoreResponse()      {}
func (ListLabelsResponse) isStoreResponse()      {}
func (TotalSizeResponse) isStoreResponse()       {}

// StoreBytesRequest asks the store to persist data, content-addressed by its
// SHA-1 hash.
type StoreBytesRequest struct {
	actor.BaseMessage

	Data []byte
}

// MessageType implements actor.Message.
func (StoreBytesRequest) MessageType() string { return "StoreBytesRequest" }

// StoreBytesResponse carries the ContentRef the bytes were stored under.
type StoreBytesResponse struct {
	Ref theaterid.ContentRef
	Err error
}

// GetRequest asks the store to read back bytes for a ContentRef.
type GetRequest struct {
	actor.BaseMessage

	Ref theaterid.ContentRef
}

// MessageType implements actor.Message.
func (GetRequest) MessageType() string { return "GetRequest" }

// GetResponse carries the retrieved bytes, or an error (ErrNotFound /
// ErrStoreCorruption / ErrStoreIo).
type GetResponse struct {
	Data []byte
	Err  error
}

// ExistsRequest asks whether a ContentRef is present in the store.
type ExistsRequest struct {
	actor.BaseMessage

	Ref theaterid.ContentRef
}

// MessageType implements actor.Message.
func (ExistsRequest) MessageType() string { return "ExistsRequest" }

// ExistsResponse carries the existence check result.
type ExistsResponse struct {
	Exists bool
}

// LabelRequest asks the store to add ref to label's ref-list.
type LabelRequest struct {
	actor.BaseMessage

	Label theaterid.Label
	Ref   theaterid.ContentRef
}

// MessageType implements actor.Message.
func (LabelRequest) MessageType() string { return "LabelRequest" }

// LabelResponse reports success or failure of a LabelRequest.
type LabelResponse struct {
	Err error
}

// RemoveFromLabelRequest asks the store to remove ref from label's ref-list.
// This is a supplemental operation (spec §8 property 4 requires label set
// semantics, which includes removal, though §4.1's operation list omits it).
type RemoveFromLabelRequest struct {
	actor.BaseMessage

	Label theaterid.Label
	Ref   theaterid.ContentRef
}

// MessageType implements actor.Message.
func (RemoveFromLabelRequest) MessageType() string {
	return "RemoveFromLabelRequest"
}

// RemoveFromLabelResponse reports success or failure of a
// RemoveFromLabelRequest.
type RemoveFromLabelResponse struct {
	Err error
}

// PutAtLabelRequest stores data and appends its ref to label's ref-list in
// one step.
type PutAtLabelRequest struct {
	actor.BaseMessage

	Label theaterid.Label
	Data  []byte
}

// MessageType implements actor.Message.
func (PutAtLabelRequest) MessageType() string { return "PutAtLabelRequest" }

// PutAtLabelResponse carries the stored ContentRef.
type PutAtLabelResponse struct {
	Ref theaterid.ContentRef
	Err error
}

// ReplaceAtLabelRequest stores data and sets label's ref-list to exactly the
// new ref, discarding any prior membership.
type ReplaceAtLabelRequest struct {
	actor.BaseMessage

	Label theaterid.Label
	Data  []byte
}

// MessageType implements actor.Message.
func (ReplaceAtLabelRequest) MessageType() string {
	return "ReplaceAtLabelRequest"
}

// ReplaceAtLabelResponse carries the stored ContentRef.
type ReplaceAtLabelResponse struct {
	Ref theaterid.ContentRef
	Err error
}

// GetByLabelRequest asks the store for the full ref-list of a label.
type GetByLabelRequest struct {
	actor.BaseMessage

	Label theaterid.Label
}

// MessageType implements actor.Message.
func (GetByLabelRequest) MessageType() string { return "GetByLabelRequest" }

// GetByLabelResponse carries the label's ref-list, empty if unknown.
type GetByLabelResponse struct {
	Refs []theaterid.ContentRef
}

// ListLabelsRequest asks the store to enumerate all known labels.
type ListLabelsRequest struct {
	actor.BaseMessage
}

// MessageType implements actor.Message.
func (ListLabelsRequest) MessageType() string { return "ListLabelsRequest" }

// ListLabelsResponse carries the sorted set of known labels.
type ListLabelsResponse struct {
	Labels []theaterid.Label
}

// TotalSizeRequest asks the store for the total bytes of stored content.
type TotalSizeRequest struct {
	actor.BaseMessage
}

// MessageType implements actor.Message.
func (TotalSizeRequest) MessageType() string { return "TotalSizeRequest" }

// TotalSizeResponse carries the total size in bytes.
type TotalSizeResponse struct {
	Bytes uint64
	Err   error
}
