package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"AttendOK/internal/model"
	pkgerrors "AttendOK/pkg/errors"
)

func TestValidateEligibility(t *testing.T) {
	t.Run("finalized period without payroll", func(t *testing.T) {
		assert.NoError(t, validateEligibility(finalizedPeriod(), nil))
	})

	t.Run("pending period is not eligible", func(t *testing.T) {
		assert.ErrorIs(t, validateEligibility(pendingPeriod(), nil), pkgerrors.PayrollNotEligible)
	})

	t.Run("calculated payroll can be recalculated", func(t *testing.T) {
		payroll := &model.PayrollPeriod{Status: model.PayrollStatusCalculated}
		assert.NoError(t, validateEligibility(finalizedPeriod(), payroll))
	})

	t.Run("approved payroll blocks recalculation", func(t *testing.T) {
		payroll := &model.PayrollPeriod{Status: model.PayrollStatusApproved}
		assert.ErrorIs(t, validateEligibility(finalizedPeriod(), payroll), pkgerrors.PayrollAlreadyApproved)
	})
}

func TestValidateApprove(t *testing.T) {
	tests := []struct {
		name     string
		status   model.PayrollStatus
		expected error
	}{
		{"calculated can be approved", model.PayrollStatusCalculated, nil},
		{"second approve is rejected", model.PayrollStatusApproved, pkgerrors.PayrollAlreadyApproved},
		{"calculating cannot be approved", model.PayrollStatusCalculating, pkgerrors.PayrollNotCalculated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateApprove(&model.PayrollPeriod{Status: tt.status})
			if tt.expected == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expected)
			}
		})
	}
}

// 计算 → 审批 → 重算的完整状态链
func TestApprovedPayrollFreezesPeriod(t *testing.T) {
	period := finalizedPeriod()
	payroll := &model.PayrollPeriod{Status: model.PayrollStatusCalculated}

	assert.NoError(t, validateEligibility(period, payroll))
	assert.NoError(t, validateApprove(payroll))

	payroll.Status = model.PayrollStatusApproved
	assert.ErrorIs(t, validateEligibility(period, payroll), pkgerrors.PayrollAlreadyApproved)
	assert.ErrorIs(t, validateApprove(payroll), pkgerrors.PayrollAlreadyApproved)
}

func TestCalculateRequiresConfirmation(t *testing.T) {
	_, err := Payroll().Calculate(context.Background(), 1, 1, false, nil)
	assert.ErrorIs(t, err, pkgerrors.ConfirmationRequired)
}

func TestApproveRequiresConfirmation(t *testing.T) {
	_, err := Payroll().Approve(context.Background(), 1, 1, false, "")
	assert.ErrorIs(t, err, pkgerrors.ConfirmationRequired)
}
