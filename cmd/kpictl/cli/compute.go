package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hospitalops/kpi-engine/internal/dashboard"
	"github.com/hospitalops/kpi-engine/internal/dataset"
	"github.com/hospitalops/kpi-engine/internal/kpi"
	"github.com/hospitalops/kpi-engine/internal/rbac"
)

type computeOptions struct {
	module   string
	file     string
	capacity string
	period   string
	ref      string
	timezone string
	topN     int
}

func computeCmd() *cobra.Command {
	var opts computeOptions
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Run one module calculator over a JSON record file",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runCompute(opts, time.Now())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&opts.module, "module", "", "KPI module, e.g. beds")
	cmd.Flags().StringVar(&opts.file, "file", "", "JSON records file, - for stdin")
	cmd.Flags().StringVar(&opts.capacity, "capacity", "", "registered bed capacity file (beds only)")
	cmd.Flags().StringVar(&opts.period, "period", "month", "day or month")
	cmd.Flags().StringVar(&opts.ref, "ref", "", "reference date YYYY-MM-DD, defaults to today")
	cmd.Flags().StringVar(&opts.timezone, "tz", envOr("TIMEZONE", "America/Sao_Paulo"), "timezone record dates are read in")
	cmd.Flags().IntVar(&opts.topN, "top-n", kpi.DefaultTopN, "ranking size")
	_ = cmd.MarkFlagRequired("module")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runCompute(opts computeOptions, now time.Time) (any, error) {
	if err := dataset.ValidateModule(opts.module); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", opts.timezone, err)
	}
	period, err := kpi.ParsePeriod(opts.period)
	if err != nil {
		return nil, err
	}
	ref := now.In(loc)
	if opts.ref != "" {
		parsed, ok := kpi.ParseDate(opts.ref, loc)
		if !ok {
			return nil, fmt.Errorf("ref %q is not a YYYY-MM-DD date", opts.ref)
		}
		ref = parsed
	}

	data, err := readFile(opts.file)
	if err != nil {
		return nil, err
	}
	payload, err := modulePayload(opts.module, data, opts.capacity)
	if err != nil {
		return nil, err
	}
	var bundle dataset.Bundle
	if err := bundle.Set(opts.module, payload); err != nil {
		return nil, err
	}
	return dashboard.Compute(opts.module, &bundle, kpi.NewWindow(period, ref), dashboard.DefaultOptions().WithTopN(opts.topN))
}

// modulePayload lets the composite modules take a bare record array. Beds arrays are
// combined with the optional capacity file; CCIH arrays are read as infections.
func modulePayload(module string, data []byte, capacityPath string) (json.RawMessage, error) {
	isArray := bytes.HasPrefix(bytes.TrimSpace(data), []byte("["))
	switch module {
	case rbac.ModuleBeds:
		var p dataset.BedsPayload
		if isArray {
			if err := json.Unmarshal(data, &p.Beds); err != nil {
				return nil, fmt.Errorf("%w: beds: %v", dataset.ErrBadPayload, err)
			}
		} else if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: beds: %v", dataset.ErrBadPayload, err)
		}
		if capacityPath != "" {
			raw, err := readFile(capacityPath)
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(raw, &p.Capacities); err != nil {
				return nil, fmt.Errorf("%w: capacity: %v", dataset.ErrBadPayload, err)
			}
		}
		return json.Marshal(p)
	case rbac.ModuleCCIH:
		if !isArray {
			return data, nil
		}
		var p dataset.CCIHPayload
		if err := json.Unmarshal(data, &p.Infections); err != nil {
			return nil, fmt.Errorf("%w: ccih: %v", dataset.ErrBadPayload, err)
		}
		return json.Marshal(p)
	default:
		if capacityPath != "" {
			return nil, fmt.Errorf("--capacity only applies to the beds module")
		}
		return data, nil
	}
}
