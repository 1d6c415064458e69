package leads

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/leadline-ai/leadline/pkg/logger"
)

// IngestCSV parses a lead export and saves each row with an initial score.
// Column names vary between CRM exports, so several aliases are accepted
// per field. Returns the number of leads imported.
func (s *Store) IngestCSV(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("reading CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	pick := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := index[name]; ok && i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.WarnCF("leads", "Skipping malformed CSV row", map[string]any{"error": err.Error()})
			continue
		}

		name := pick(row, "Primary Borrower", "name", "Name")
		if name == "" {
			name = "Unknown"
		}
		company := pick(row, "company", "Company")
		if company == "" {
			company = "General Services"
		}
		program := pick(row, "Program")
		if program == "" {
			program = "N/A"
		}
		ref := pick(row, "Loan Number")
		if ref == "" {
			ref = "N/A"
		}

		lead := Lead{
			Name:    name,
			Email:   pick(row, "Primary Borrower: Email", "email", "Email"),
			Phone:   pick(row, "phone", "Phone", "Mobile"),
			Company: company,
			Notes:   fmt.Sprintf("Program: %s. (Ref: %s)", program, ref),
			Source:  "csv_upload",
			Status:  "new",
		}
		lead.Score = Score(lead)

		if _, err := s.Save(lead); err != nil {
			logger.WarnCF("leads", "Skipping invalid lead row", map[string]any{"error": err.Error()})
			continue
		}
		count++
	}

	logger.InfoCF("leads", "CSV import complete", map[string]any{"imported": count})
	return count, nil
}
