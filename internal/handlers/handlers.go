package handlers

import (
	"time"

	"github.com/sjperalta/fintera-rentals/internal/jobs"
	"github.com/sjperalta/fintera-rentals/internal/services"
	"gorm.io/gorm"
)

// Handlers holds all handler instances
type Handlers struct {
	Health      *HealthHandler
	Recognition *RecognitionHandler
	Contract    *ContractHandler
	Job         *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services, worker *jobs.Worker, db *gorm.DB, location *time.Location) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(db),
		Recognition: NewRecognitionHandler(svcs.RecognitionJob, worker, location),
		Contract:    NewContractHandler(svcs.Contract, svcs.Export, location),
		Job:         NewJobHandler(svcs.Job),
	}
}
