package importer

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/mmdatafocus/vehicle_sales_backend/models"
	"github.com/mmdatafocus/vehicle_sales_backend/utils"
)

const (
	minNormalizeChunk = 200
	maxNormalizeChunk = 2000
)

// Column spellings accepted per canonical field, probed in order with first
// match winning. Data-driven so new spellings are additive.
var columnSpellings = map[string][]string{
	"maker":    {"Maker", "maker", "MAKER", "Maker Name", "Manufacturer", "manufacturer", "MANUFACTURER", "Company", "company", "COMPANY"},
	"rto":      {"RTO", "rto", "Rto", "RTO Name", "RTO Code", "rto_name"},
	"year":     {"Year", "year", "YEAR"},
	"state":    {"State", "state", "STATE"},
	"city":     {"City", "city", "CITY"},
	"district": {"District", "district", "DISTRICT"},
	"total":    {"Total", "total", "TOTAL"},
}

var monthNames = []string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

var acceptedYears = map[int]bool{
	2022: true,
	2023: true,
	2024: true,
	2025: true,
}

// RequiredColumns names the fields a row must carry to be accepted. Used in
// the zero-valid-rows error message.
var RequiredColumns = []string{"Maker", "RTO", "State", "City", "Year"}

// Diagnostics collects the distinct maker and RTO names seen in accepted
// rows, plus the validation tags that caused rows to be skipped, keyed by
// field name. Observability only.
type Diagnostics struct {
	Makers      []string
	RTOs        []string
	FieldErrors map[string]string
}

// NormalizeRows converts raw rows into validated sales records, silently
// skipping rows that fail any check. Large inputs are processed in chunks
// with a scheduler yield between chunks so status polls are not starved;
// onProgress, if set, receives the cumulative processed row count after each
// chunk.
func NormalizeRows(rows []Row, onProgress func(processed int)) ([]models.SalesRecord, Diagnostics) {
	chunk := len(rows) / 20
	if chunk < minNormalizeChunk {
		chunk = minNormalizeChunk
	}
	if chunk > maxNormalizeChunk {
		chunk = maxNormalizeChunk
	}

	records := make([]models.SalesRecord, 0, len(rows))
	makers := make(map[string]bool)
	rtos := make(map[string]bool)
	var fieldErrors map[string]string

	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		for _, row := range rows[start:end] {
			record, rowErrs, ok := normalizeRow(row)
			if !ok {
				if len(rowErrs) > 0 {
					if fieldErrors == nil {
						fieldErrors = make(map[string]string)
					}
					for field, tag := range rowErrs {
						fieldErrors[field] = tag
					}
				}
				continue
			}
			makers[record.Maker] = true
			rtos[record.RTO] = true
			records = append(records, record)
		}
		if onProgress != nil {
			onProgress(end)
		}
		if end < len(rows) {
			runtime.Gosched()
		}
	}

	diag := Diagnostics{
		Makers:      setToSorted(makers),
		RTOs:        setToSorted(rtos),
		FieldErrors: fieldErrors,
	}
	return records, diag
}

// normalizeRow builds a record from one raw row. The middle return carries
// the field-to-tag map when the assembled record failed schema validation.
func normalizeRow(row Row) (models.SalesRecord, map[string]string, bool) {
	maker := strings.TrimSpace(probeColumn(row, "maker"))
	rto := strings.TrimSpace(probeColumn(row, "rto"))
	state := strings.TrimSpace(probeColumn(row, "state"))
	city := strings.TrimSpace(probeColumn(row, "city"))
	district := strings.TrimSpace(probeColumn(row, "district"))

	if maker == "" || rto == "" || state == "" || city == "" {
		return models.SalesRecord{}, nil, false
	}

	year := parseCellInt(probeColumn(row, "year"))
	if !acceptedYears[year] {
		return models.SalesRecord{}, nil, false
	}

	monthly, yearTotal := sumMonths(row)

	record := models.SalesRecord{
		State:    state,
		City:     city,
		Maker:    maker,
		RTO:      rto,
		District: district,
		Monthly:  monthly,
	}
	switch year {
	case 2022:
		record.Sales2022 = yearTotal
	case 2023:
		record.Sales2023 = yearTotal
	case 2024:
		record.Sales2024 = yearTotal
	case 2025:
		record.Sales2025 = yearTotal
	}

	record.Total = yearTotal
	if explicit := parseCellInt(probeColumn(row, "total")); explicit != 0 {
		record.Total = explicit
	}

	if err := record.Validate(); err != nil {
		return models.SalesRecord{}, utils.ProcessValidationErrors(err), false
	}
	return record, nil, true
}

// probeColumn resolves a canonical field by trying each accepted spelling in
// order.
func probeColumn(row Row, field string) string {
	for _, spelling := range columnSpellings[field] {
		if v, ok := row[spelling]; ok && v != "" {
			return v
		}
	}
	return ""
}

// sumMonths totals the twelve calendar-month fields, matching column labels
// case-insensitively against both abbreviated and full month names. Missing
// months count as 0.
func sumMonths(row Row) (map[string]int, int) {
	lowered := make(map[string]string, len(row))
	for k, v := range row {
		lowered[strings.ToLower(strings.TrimSpace(k))] = v
	}

	var monthly map[string]int
	total := 0
	for _, m := range monthNames {
		cell, ok := lowered[m]
		if !ok {
			cell, ok = lowered[fullMonthName(m)]
		}
		if !ok {
			continue
		}
		v := parseCellInt(cell)
		total += v
		if monthly == nil {
			monthly = make(map[string]int, len(monthNames))
		}
		monthly[m] = v
	}
	return monthly, total
}

func fullMonthName(abbr string) string {
	switch abbr {
	case "jan":
		return "january"
	case "feb":
		return "february"
	case "mar":
		return "march"
	case "apr":
		return "april"
	case "may":
		return "may"
	case "jun":
		return "june"
	case "jul":
		return "july"
	case "aug":
		return "august"
	case "sep":
		return "september"
	case "oct":
		return "october"
	case "nov":
		return "november"
	case "dec":
		return "december"
	}
	return abbr
}

// parseCellInt parses a spreadsheet cell as an integer, tolerating thousands
// separators and float formatting. Unparseable cells yield 0.
func parseCellInt(cell string) int {
	cell = strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	if cell == "" {
		return 0
	}
	if n, err := strconv.Atoi(cell); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return int(f)
	}
	return 0
}

func setToSorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return utils.UniqueSorted(out)
}
