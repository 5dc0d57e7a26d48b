package store

import (
	"context"
	"fmt"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Service is the content store actor behavior. Routing every request through
// a single actor linearizes all mutations against the disk-backed store
// without needing an internal mutex.
type Service struct {
	ds *diskStore
}

// NewService creates a new content store service rooted at dir.
func NewService(dir string) (*Service, error) {
	ds, err := newDiskStore(dir)
	if err != nil {
		return nil, err
	}

	return &Service{ds: ds}, nil
}

// Receive implements actor.ActorBehavior by dispatching to type-specific
// handlers.
func (s *Service) Receive(_ context.Context,
	msg StoreRequest) fn.Result[StoreResponse] {

	switch m := msg.(type) {
	case StoreBytesRequest:
		return fn.Ok[StoreResponse](s.handleStoreBytes(m))

	case GetRequest:
		return fn.Ok[StoreResponse](s.handleGet(m))

	case ExistsRequest:
		return fn.Ok[StoreResponse](s.handleExists(m))

	case LabelRequest:
		return fn.Ok[StoreResponse](s.handleLabel(m))

	case RemoveFromLabelRequest:
		return fn.Ok[StoreResponse](s.handleRemoveFromLabel(m))

	case PutAtLabelRequest:
		return fn.Ok[StoreResponse](s.handlePutAtLabel(m))

	case ReplaceAtLabelRequest:
		return fn.Ok[StoreResponse](s.handleReplaceAtLabel(m))

	case GetByLabelRequest:
		return fn.Ok[StoreResponse](s.handleGetByLabel(m))

	case ListLabelsRequest:
		return fn.Ok[StoreResponse](s.handleListLabels(m))

	case TotalSizeRequest:
		return fn.Ok[StoreResponse](s.handleTotalSize(m))

	default:
		return fn.Err[StoreResponse](fmt.Errorf(
			"unknown message type: %T", msg,
		))
	}
}

func (s *Service) handleStoreBytes(req StoreBytesRequest) StoreBytesResponse {
	ref, err := s.ds.store(req.Data)
	if err != nil {
		log.Errorf("store: %v", err)
	}
	return StoreBytesResponse{Ref: ref, Err: err}
}

func (s *Service) handleGet(req GetRequest) GetResponse {
	data, err := s.ds.get(req.Ref)
	return GetResponse{Data: data, Err: err}
}

func (s *Service) handleExists(req ExistsRequest) ExistsResponse {
	return ExistsResponse{Exists: s.ds.exists(req.Ref)}
}

func (s *Service) handleLabel(req LabelRequest) LabelResponse {
	err := s.ds.label(req.Label, req.Ref)
	return LabelResponse{Err: err}
}

func (s *Service) handleRemoveFromLabel(
	req RemoveFromLabelRequest,
) RemoveFromLabelResponse {

	err := s.ds.removeFromLabel(req.Label, req.Ref)
	return RemoveFromLabelResponse{Err: err}
}

func (s *Service) handlePutAtLabel(req PutAtLabelRequest) PutAtLabelResponse {
	ref, err := s.ds.putAtLabel(req.Label, req.Data)
	if err != nil {
		log.Errorf("put_at_label %s: %v", req.Label, err)
	}
	return PutAtLabelResponse{Ref: ref, Err: err}
}

func (s *Service) handleReplaceAtLabel(
	req ReplaceAtLabelRequest,
) ReplaceAtLabelResponse {

	ref, err := s.ds.replaceAtLabel(req.Label, req.Data)
	if err != nil {
		log.Errorf("replace_at_label %s: %v", req.Label, err)
	}
	return ReplaceAtLabelResponse{Ref: ref, Err: err}
}

func (s *Service) handleGetByLabel(req GetByLabelRequest) GetByLabelResponse {
	return GetByLabelResponse{Refs: s.ds.getByLabel(req.Label)}
}

func (s *Service) handleListLabels(ListLabelsRequest) ListLabelsResponse {
	return ListLabelsResponse{Labels: s.ds.listLabels()}
}

func (s *Service) handleTotalSize(TotalSizeRequest) TotalSizeResponse {
	total, err := s.ds.totalSize()
	return TotalSizeResponse{Bytes: total, Err: err}
}
