package packaging

import (
	"bytes"
	"fmt"
	"time"

	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrReplenishInFlight is returned while another request holding the same
// idempotency key has not finished.
var ErrReplenishInFlight = shared.NewDomainError("ALREADY_PROCESSED",
	"A replenishment with this idempotency key is still being processed")

// pendingReceipt reserves an idempotency key until the receipt replaces it.
var pendingReceipt = []byte("pending")

func isPendingReceipt(data []byte) bool {
	return bytes.Equal(data, pendingReceipt)
}

// replenishReceipt is the form a replenishment outcome takes in the replay store.
type replenishReceipt struct {
	PackagingID    string        `msgpack:"packaging_id"`
	Version        int           `msgpack:"version"`
	AddedPieces    int64         `msgpack:"added_pieces"`
	TotalPieces    int64         `msgpack:"total_pieces"`
	Stock          map[int]int64 `msgpack:"stock"`
	RepricedLayers []int         `msgpack:"repriced,omitempty"`
	CarriedLayers  []int         `msgpack:"carried,omitempty"`
	RecordedAt     time.Time     `msgpack:"recorded_at"`
}

func newReplenishReceipt(resp *ReplenishResponse) replenishReceipt {
	return replenishReceipt{
		PackagingID:    resp.PackagingID.String(),
		Version:        resp.Version,
		AddedPieces:    resp.AddedPieces,
		TotalPieces:    resp.TotalPieces,
		Stock:          resp.Stock,
		RepricedLayers: resp.Recompute.RepricedLayers,
		CarriedLayers:  resp.Recompute.CarriedLayers,
		RecordedAt:     resp.RecordedAt,
	}
}

func encodeReceipt(resp *ReplenishResponse) ([]byte, error) {
	r := newReplenishReceipt(resp)
	data, err := msgpack.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode replenish receipt: %w", err)
	}
	return data, nil
}

func decodeReceipt(data []byte) (*ReplenishResponse, error) {
	var r replenishReceipt
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode replenish receipt: %w", err)
	}
	id, err := uuid.Parse(r.PackagingID)
	if err != nil {
		return nil, fmt.Errorf("replenish receipt has invalid packaging id: %w", err)
	}
	return &ReplenishResponse{
		PackagingID: id,
		Version:     r.Version,
		AddedPieces: r.AddedPieces,
		TotalPieces: r.TotalPieces,
		Stock:       r.Stock,
		Recompute: ToRecomputeResponse(packaging.RecomputeResult{
			RepricedLayers: r.RepricedLayers,
			CarriedLayers:  r.CarriedLayers,
		}),
		RecordedAt: r.RecordedAt,
	}, nil
}
