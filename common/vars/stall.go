package vars

import (
	"stall-booking/model"
	"sync/atomic"
	"unsafe"
)

// stallDataPtr holds a pointer to the current per-exhibition stall listing.
// This approach allows for lock-free reads with atomic updates.
var stallDataPtr unsafe.Pointer

// GetStalls returns the current stalls of one exhibition.
// This operation is lock-free and safe for concurrent access.
func GetStalls(exhibitionId int64) []model.StallResponse {
	ptr := atomic.LoadPointer(&stallDataPtr)
	if ptr == nil {
		return nil
	}
	return (*(*map[int64][]model.StallResponse)(ptr))[exhibitionId]
}

// SetStalls atomically replaces the stall listing snapshot.
// It creates a copy of the input data to ensure consistency.
// Pass nil or an empty map to clear the snapshot.
func SetStalls(stalls map[int64][]model.StallResponse) {
	var ptr unsafe.Pointer

	if len(stalls) > 0 {
		stallsCopy := make(map[int64][]model.StallResponse, len(stalls))
		for exhibitionId, rows := range stalls {
			rowsCopy := make([]model.StallResponse, len(rows))
			copy(rowsCopy, rows)
			stallsCopy[exhibitionId] = rowsCopy
		}
		ptr = unsafe.Pointer(&stallsCopy)
	}

	// Atomically replace the pointer
	atomic.StorePointer(&stallDataPtr, ptr)
}
