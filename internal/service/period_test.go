package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"AttendOK/internal/model"
	pkgerrors "AttendOK/pkg/errors"
)

func pendingPeriod() *model.AttendancePeriod {
	return &model.AttendancePeriod{
		Name:      "2026-08",
		StartDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Status:    model.PeriodStatusPending,
	}
}

func finalizedPeriod() *model.AttendancePeriod {
	period := pendingPeriod()
	period.Status = model.PeriodStatusFinalized
	return period
}

func TestValidateFinalize(t *testing.T) {
	t.Run("pending period without conflicts", func(t *testing.T) {
		assert.NoError(t, validateFinalize(pendingPeriod(), 0))
	})

	t.Run("second finalize is rejected", func(t *testing.T) {
		assert.ErrorIs(t, validateFinalize(finalizedPeriod(), 0), pkgerrors.PeriodAlreadyFinalized)
	})

	t.Run("unresolved conflicts report the exact count", func(t *testing.T) {
		err := validateFinalize(pendingPeriod(), 3)
		assert.Error(t, err)

		var def pkgerrors.Definition
		assert.True(t, errors.As(err, &def))
		assert.Equal(t, pkgerrors.UnresolvedConflicts.Code, def.Code)
		assert.Equal(t, "3 attendance records have unresolved conflicts", def.Message)
	})
}

func TestValidateUnlock(t *testing.T) {
	t.Run("finalized period can be unlocked", func(t *testing.T) {
		assert.NoError(t, validateUnlock(finalizedPeriod()))
	})

	t.Run("pending period cannot be unlocked", func(t *testing.T) {
		assert.ErrorIs(t, validateUnlock(pendingPeriod()), pkgerrors.PeriodNotFinalized)
	})
}

func TestFinalizeRequiresConfirmation(t *testing.T) {
	_, err := Period().Finalize(context.Background(), 1, 1, false)
	assert.ErrorIs(t, err, pkgerrors.ConfirmationRequired)
}

func TestUnlockGuards(t *testing.T) {
	_, err := Period().Unlock(context.Background(), 1, 1, false, "device clock was wrong")
	assert.ErrorIs(t, err, pkgerrors.ConfirmationRequired)

	// 解锁必须给出原因
	_, err = Period().Unlock(context.Background(), 1, 1, true, "")
	assert.ErrorIs(t, err, pkgerrors.UnlockReasonRequired)
}
