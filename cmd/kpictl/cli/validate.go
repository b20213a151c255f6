package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hospitalops/kpi-engine/internal/validation"
	"github.com/hospitalops/kpi-engine/internal/visits"
)

// ErrInvalid is returned when a checked value or record set does not validate.
var ErrInvalid = errors.New("validation failed")

var documentChecks = []struct {
	name  string
	short string
	check func(string) bool
}{
	{"cpf", "Check a CPF number", validation.ValidCPF},
	{"cnpj", "Check a CNPJ number", validation.ValidCNPJ},
	{"email", "Check an e-mail address", validation.ValidEmail},
	{"phone", "Check a Brazilian phone number", validation.ValidPhone},
}

// VisitReport summarises a visits file check.
type VisitReport struct {
	Total    int                    `json:"total"`
	Accepted int                    `json:"accepted"`
	Rejected []validation.Rejection `json:"rejected"`
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate documents or record files",
	}
	for _, dc := range documentChecks {
		cmd.AddCommand(&cobra.Command{
			Use:   dc.name + " <value>",
			Short: dc.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !dc.check(args[0]) {
					fmt.Fprintf(cmd.OutOrStdout(), "invalid %s\n", dc.name)
					return fmt.Errorf("%w: %s %q", ErrInvalid, dc.name, args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "valid %s\n", dc.name)
				return nil
			},
		})
	}

	var file string
	visitsCmd := &cobra.Command{
		Use:   "visits",
		Short: "Validate a JSON file of visit records",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := checkVisits(file)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Rejected) > 0 {
				return fmt.Errorf("%w: %d of %d visits rejected", ErrInvalid, len(report.Rejected), report.Total)
			}
			return nil
		},
	}
	visitsCmd.Flags().StringVar(&file, "file", "", "JSON visits file, - for stdin")
	_ = visitsCmd.MarkFlagRequired("file")
	cmd.AddCommand(visitsCmd)
	return cmd
}

func checkVisits(path string) (VisitReport, error) {
	data, err := readFile(path)
	if err != nil {
		return VisitReport{}, err
	}
	var records []visits.VisitRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return VisitReport{}, fmt.Errorf("decode visits: %w", err)
	}
	valid, rejected := validation.PartitionVisits(records)
	if rejected == nil {
		rejected = []validation.Rejection{}
	}
	return VisitReport{Total: len(records), Accepted: len(valid), Rejected: rejected}, nil
}
