package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/platform/httpx"
	"github.com/hospitalops/kpi-engine/internal/visits"
)

func TestValidCPF(t *testing.T) {
	assert.True(t, ValidCPF("529.982.247-25"))
	assert.True(t, ValidCPF("52998224725"))
	assert.False(t, ValidCPF("529.982.247-24"))
	assert.False(t, ValidCPF("11111111111"))
	assert.False(t, ValidCPF("000.000.000-00"))
	assert.False(t, ValidCPF("5299822472"))
	assert.False(t, ValidCPF("529982247251"))
	assert.False(t, ValidCPF(""))
}

func TestValidCNPJ(t *testing.T) {
	assert.True(t, ValidCNPJ("11.222.333/0001-81"))
	assert.True(t, ValidCNPJ("11222333000181"))
	assert.False(t, ValidCNPJ("11.222.333/0001-80"))
	assert.False(t, ValidCNPJ("11111111111111"))
	assert.False(t, ValidCNPJ("1122233300018"))
	assert.False(t, ValidCNPJ(""))
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("nurse@hospital.org.br"))
	assert.False(t, ValidEmail("nurse@"))
	assert.False(t, ValidEmail(""))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("(11) 98765-4321"))
	assert.True(t, ValidPhone("+55 (21) 3456-7890"))
	assert.True(t, ValidPhone("1134567890"))
	assert.False(t, ValidPhone("(11) 88765-4321"))
	assert.False(t, ValidPhone("(01) 98765-4321"))
	assert.False(t, ValidPhone("98765-4321"))
}

func TestDateAndTimeRules(t *testing.T) {
	assert.True(t, ValidISODate("2024-02-29"))
	assert.False(t, ValidISODate("2023-02-29"))
	assert.False(t, ValidISODate("2024-2-9"))
	assert.True(t, ValidHHMM("23:59"))
	assert.False(t, ValidHHMM("24:00"))
	assert.False(t, ValidHHMM("9:30"))
}

func validVisit() visits.VisitRecord {
	return visits.VisitRecord{
		ID:           "v1",
		PatientID:    "p1",
		Date:         "2024-05-10",
		Time:         "08:30",
		Specialty:    "cardiology",
		Professional: "dr-a",
		Kind:         visits.KindConsultation,
		Status:       visits.StatusCompleted,
		WaitMinutes:  kpi.Float(0),
	}
}

func TestValidateVisit(t *testing.T) {
	require.NoError(t, ValidateVisit(validVisit()))

	bad := validVisit()
	bad.Date = "10/05/2024"
	bad.Time = "8h"
	bad.Amount = kpi.Float(-1)
	bad.Specialty = ""
	err := ValidateVisit(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	var verr *Error
	require.ErrorAs(t, err, &verr)
	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"date", "time", "amount", "specialty"}, fields)
}

func TestPartitionVisits(t *testing.T) {
	missing := validVisit()
	missing.ID = "v2"
	missing.PatientID = ""
	records := []visits.VisitRecord{validVisit(), missing, validVisit()}

	valid, rejected := PartitionVisits(records)
	assert.Len(t, valid, 2)
	require.Len(t, rejected, 1)
	assert.Equal(t, 1, rejected[0].Index)
	assert.Equal(t, "v2", rejected[0].ID)
	require.Len(t, rejected[0].Errors, 1)
	assert.Equal(t, "patient_id", rejected[0].Errors[0].Field)
	assert.Equal(t, "required", rejected[0].Errors[0].Rule)
}

func TestCustomTagsOnStructs(t *testing.T) {
	type patient struct {
		CPF   string `json:"cpf" validate:"required,cpf"`
		Phone string `json:"phone" validate:"omitempty,br_phone"`
	}
	v := New()
	require.NoError(t, v.Struct(patient{CPF: "529.982.247-25", Phone: "(11) 98765-4321"}))
	require.Error(t, v.Struct(patient{CPF: "111.111.111-11"}))
}
