package vars

import (
	"stall-booking/model"
	"sync/atomic"
	"unsafe"
)

var healthReportPtr unsafe.Pointer

// GetHealthReport returns the latest monitor sweep result, or nil before the
// first sweep completes.
func GetHealthReport() *model.HealthReport {
	ptr := atomic.LoadPointer(&healthReportPtr)
	if ptr == nil {
		return nil
	}
	return (*model.HealthReport)(ptr)
}

func SetHealthReport(report model.HealthReport) {
	atomic.StorePointer(&healthReportPtr, unsafe.Pointer(&report))
}
