package perf

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/hospitalops/kpi-engine/internal/admissions"
	"github.com/hospitalops/kpi-engine/internal/dashboard"
	"github.com/hospitalops/kpi-engine/internal/dataset"
	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/laboratory"
	"github.com/hospitalops/kpi-engine/internal/rbac"
	"github.com/hospitalops/kpi-engine/internal/scheduling"
	"github.com/hospitalops/kpi-engine/internal/visits"
)

var ref = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func largeBundle(n int) *dataset.Bundle {
	b := &dataset.Bundle{}
	for i := 0; i < n; i++ {
		day := ref.AddDate(0, 0, -(i % 400)).Format(time.DateOnly)
		patient := fmt.Sprintf("p%05d", i%3000)
		b.Visits = append(b.Visits, visits.VisitRecord{
			ID: fmt.Sprintf("v%d", i), PatientID: patient, Date: day, Time: "09:30",
			Specialty: fmt.Sprintf("spec-%d", i%12), Professional: fmt.Sprintf("doc-%d", i%40),
			Kind: visits.KindConsultation, Status: visits.StatusCompleted,
		})
		b.Appointments = append(b.Appointments, scheduling.Appointment{
			ID: fmt.Sprintf("a%d", i), PatientID: patient, Date: day,
			Specialty: fmt.Sprintf("spec-%d", i%12), Status: scheduling.StatusCompleted,
		})
		b.Admissions = append(b.Admissions, admissions.AdmissionRecord{
			ID: fmt.Sprintf("h%d", i), PatientID: patient, AdmitDate: day,
			DischargeDate: ref.AddDate(0, 0, -(i%400)+3).Format(time.DateOnly),
			CostCenter:    fmt.Sprintf("cc-%d", i%8),
		})
		b.Laboratory = append(b.Laboratory, laboratory.LabExam{
			ID: fmt.Sprintf("l%d", i), Date: day, ExamName: fmt.Sprintf("exam-%d", i%50), PatientID: patient,
		})
	}
	return b
}

func TestEngineLatencyTargets(t *testing.T) {
	if testing.Short() {
		t.Skip("latency sampling skipped in short mode")
	}
	bundle := largeBundle(20000)
	w := kpi.NewWindow(kpi.PeriodMonth, ref)
	opts := dashboard.DefaultOptions()

	samples := make([]time.Duration, 0, 5)
	for i := 0; i < 5; i++ {
		start := time.Now()
		for _, module := range rbac.KPIModules() {
			if _, err := dashboard.Compute(module, bundle, w, opts); err != nil {
				t.Fatalf("compute %s: %v", module, err)
			}
		}
		samples = append(samples, time.Since(start))
	}
	if p95 := percentile95(samples); p95 > 5*time.Second {
		t.Fatalf("full dashboard latency regression: p95=%s", p95)
	}
}

type fixedStore struct {
	bundle *dataset.Bundle
}

func (s fixedStore) Version(context.Context, string) (int64, error) { return 1, nil }

func (s fixedStore) LoadBundle(context.Context, string, []string) (*dataset.Bundle, error) {
	return s.bundle, nil
}

func BenchmarkDashboardBuild(b *testing.B) {
	svc := dashboard.NewService(fixedStore{bundle: largeBundle(5000)}, dashboard.DefaultOptions(), nil, nil)
	req := dashboard.Request{Tenant: "main", Role: rbac.RoleMaster, Window: kpi.NewWindow(kpi.PeriodMonth, ref)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Build(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVisitsCalculate(b *testing.B) {
	records := largeBundle(20000).Visits
	w := kpi.NewWindow(kpi.PeriodMonth, ref)
	opts := visits.DefaultOptions()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = visits.Calculate(records, w, opts)
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
