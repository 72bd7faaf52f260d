package availability

import (
	"context"
	"fmt"
	"time"

	vo "github.com/bookwell-inc/bookwell/internal/domain/booking/valueobjects"
	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	apperrors "github.com/bookwell-inc/bookwell/internal/shared/errors"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
	"github.com/bookwell-inc/bookwell/internal/shared/utils"
)

// DecisionCache memoizes read-only availability answers. Writers never
// consult it; Guard always reads the store. Get reports the cache generation
// it read; Set with that generation is discarded once the professional's
// bookings have changed in between.
type DecisionCache interface {
	Get(ctx context.Context, professionalID string, start time.Time, durationMinutes int) (available, hit bool, generation int64, err error)
	Set(ctx context.Context, professionalID string, generation int64, start time.Time, durationMinutes int, available bool) error
}

type CheckAvailabilityQuery struct {
	ProfessionalID  string    `validate:"required"`
	Start           time.Time `validate:"required"`
	DurationMinutes int       `validate:"required,min=1,max=1440"`
}

type CheckAvailabilityResult struct {
	Available      bool      `json:"available"`
	WithinSchedule bool      `json:"within_schedule"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
}

type CheckAvailabilityUseCase struct {
	professionals catalog.ProfessionalRepository
	engine        *Engine
	cache         DecisionCache
	logger        logger.Interface
}

// NewCheckAvailabilityUseCase builds the query. cache may be nil.
func NewCheckAvailabilityUseCase(
	professionals catalog.ProfessionalRepository,
	engine *Engine,
	cache DecisionCache,
	logger logger.Interface,
) *CheckAvailabilityUseCase {
	return &CheckAvailabilityUseCase{
		professionals: professionals,
		engine:        engine,
		cache:         cache,
		logger:        logger,
	}
}

func (uc *CheckAvailabilityUseCase) Execute(ctx context.Context, q CheckAvailabilityQuery) (*CheckAvailabilityResult, error) {
	if err := utils.ValidateStruct(q); err != nil {
		return nil, err
	}

	slot, err := vo.NewSlot(q.Start, q.DurationMinutes)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid slot", err.Error())
	}

	pro, err := uc.professionals.GetByID(ctx, q.ProfessionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load professional: %w", err)
	}
	if pro == nil {
		return nil, apperrors.NewNotFoundError("professional not found")
	}

	result := &CheckAvailabilityResult{
		WithinSchedule: pro.WorksDuring(slot.Start(), slot.End()),
		Start:          slot.Start(),
		End:            slot.End(),
	}

	var generation int64
	cacheable := false
	if uc.cache != nil {
		available, hit, gen, err := uc.cache.Get(ctx, pro.ID(), slot.Start(), q.DurationMinutes)
		switch {
		case err != nil:
			uc.logger.Warnw("availability cache read failed", "professional_id", pro.ID(), "error", err)
		case hit:
			result.Available = available
			return result, nil
		default:
			generation, cacheable = gen, true
		}
	}

	available, err := uc.engine.IsSlotAvailable(ctx, pro.ID(), slot.Start(), q.DurationMinutes)
	if err != nil {
		return nil, err
	}
	result.Available = available

	if cacheable {
		if err := uc.cache.Set(ctx, pro.ID(), generation, slot.Start(), q.DurationMinutes, available); err != nil {
			uc.logger.Warnw("availability cache write failed", "professional_id", pro.ID(), "error", err)
		}
	}
	return result, nil
}
