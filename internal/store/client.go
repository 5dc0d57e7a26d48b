package store

import (
	"context"

	"github.com/theater-rt/theater/internal/actorutil"
	"github.com/theater-rt/theater/internal/theaterid"
)

// Client provides actor-based content store operations. It wraps a store
// actor reference and provides type-safe methods for each operation in spec
// §4.1.
type Client struct {
	ref ActorRef
}

// NewClient creates a new content store client wrapping the given actor
// reference.
func NewClient(ref ActorRef) *Client {
	return &Client{ref: ref}
}

// StoreBytes stores data, content-addressed by its SHA-1 hash.
func (c *Client) StoreBytes(
	ctx context.Context, data []byte,
) (StoreBytesResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, StoreBytesResponse,
	](ctx, c.ref, StoreBytesRequest{Data: data})
}

// Get reads back bytes for a ContentRef.
func (c *Client) Get(
	ctx context.Context, ref theaterid.ContentRef,
) (GetResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, GetResponse,
	](ctx, c.ref, GetRequest{Ref: ref})
}

// Exists checks whether a ContentRef is present in the store.
func (c *Client) Exists(
	ctx context.Context, ref theaterid.ContentRef,
) (ExistsResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, ExistsResponse,
	](ctx, c.ref, ExistsRequest{Ref: ref})
}

// Label appends ref to label's ref-list.
func (c *Client) Label(
	ctx context.Context, label theaterid.Label, ref theaterid.ContentRef,
) (LabelResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, LabelResponse,
	](ctx, c.ref, LabelRequest{Label: label, Ref: ref})
}

// RemoveFromLabel removes ref from label's ref-list.
func (c *Client) RemoveFromLabel(
	ctx context.Context, label theaterid.Label, ref theaterid.ContentRef,
) (RemoveFromLabelResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, RemoveFromLabelResponse,
	](ctx, c.ref, RemoveFromLabelRequest{Label: label, Ref: ref})
}

// PutAtLabel stores data and labels it in one step.
func (c *Client) PutAtLabel(
	ctx context.Context, label theaterid.Label, data []byte,
) (PutAtLabelResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, PutAtLabelResponse,
	](ctx, c.ref, PutAtLabelRequest{Label: label, Data: data})
}

// ReplaceAtLabel stores data and replaces label's ref-list with just the new
// ref.
func (c *Client) ReplaceAtLabel(
	ctx context.Context, label theaterid.Label, data []byte,
) (ReplaceAtLabelResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, ReplaceAtLabelResponse,
	](ctx, c.ref, ReplaceAtLabelRequest{Label: label, Data: data})
}

// GetByLabel returns label's full ref-list.
func (c *Client) GetByLabel(
	ctx context.Context, label theaterid.Label,
) (GetByLabelResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, GetByLabelResponse,
	](ctx, c.ref, GetByLabelRequest{Label: label})
}

// ListLabels enumerates all known labels.
func (c *Client) ListLabels(ctx context.Context) (ListLabelsResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, ListLabelsResponse,
	](ctx, c.ref, ListLabelsRequest{})
}

// TotalSize returns the total bytes of stored content.
func (c *Client) TotalSize(ctx context.Context) (TotalSizeResponse, error) {
	return actorutil.AskAwaitTyped[
		StoreRequest, StoreResponse, TotalSizeResponse,
	](ctx, c.ref, TotalSizeRequest{})
}
