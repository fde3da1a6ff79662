package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"

	"github.com/Ananth-NQI/clubhub-backend/internal/metrics"
	"github.com/Ananth-NQI/clubhub-backend/internal/models"
)

var (
	// ErrNoValidRows is returned when an import contains nothing worth storing
	ErrNoValidRows = errors.New("no valid student records found")
	// ErrSheetsUnavailable is returned when no Google credentials are configured
	ErrSheetsUnavailable = errors.New("google sheets import is not configured")
)

// RosterSource yields a sheet as rows of cells, header first
type RosterSource interface {
	Rows(ctx context.Context) ([][]string, error)
}

// XLSXSource reads the first worksheet of an Excel workbook
type XLSXSource struct {
	Reader io.Reader
}

func (s XLSXSource) Rows(ctx context.Context) ([][]string, error) {
	f, err := excelize.OpenReader(s.Reader)
	if err != nil {
		return nil, newValidationError("file", "could not read Excel file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, newValidationError("file", "workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// CSVSource reads comma-separated rows
type CSVSource struct {
	Reader io.Reader
}

func (s CSVSource) Rows(ctx context.Context) ([][]string, error) {
	r := csv.NewReader(s.Reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, newValidationError("file", "could not read CSV file: %v", err)
	}
	return rows, nil
}

// SheetSource reads a range of a Google Sheet
type SheetSource struct {
	Service       *sheetsv4.Service
	SpreadsheetID string
	Range         string
}

// NewSheetsService authenticates with a service account credentials file
func NewSheetsService(ctx context.Context, credentialsFile string) (*sheetsv4.Service, error) {
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsv4.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return srv, nil
}

func (s SheetSource) Rows(ctx context.Context) ([][]string, error) {
	readRange := s.Range
	if readRange == "" {
		readRange = "A:Z"
	}
	resp, err := s.Service.Spreadsheets.Values.Get(s.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", s.SpreadsheetID, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, values := range resp.Values {
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SourceForFile picks a reader by file extension
func SourceForFile(filename string, r io.Reader) (RosterSource, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return XLSXSource{Reader: r}, nil
	case ".csv":
		return CSVSource{Reader: r}, nil
	}
	return nil, newValidationError("file", "unsupported file type %q, upload .xlsx or .csv", filepath.Ext(filename))
}

// ImportResult summarises a roster import
type ImportResult struct {
	Processed int      `json:"processed"`
	Errors    []string `json:"errors"`
}

// Roster columns and the headers accepted for each
var rosterColumns = map[string][]string{
	"gr_number": {"gr number", "gr", "gr no", "grno", "gr num"},
	"name":      {"name", "student name", "full name"},
	"email":     {"email", "email id", "email address"},
	"class":     {"class", "division"},
	"semester":  {"semester", "sem"},
}

type RosterImporter struct {
	deps   Dependencies
	sheets *sheetsv4.Service
}

func NewRosterImporter(deps Dependencies) *RosterImporter {
	return &RosterImporter{deps: deps.withDefaults()}
}

// UseSheets enables imports straight from Google Sheets
func (s *RosterImporter) UseSheets(srv *sheetsv4.Service) {
	s.sheets = srv
}

// ImportSheet imports a range of a Google Sheet
func (s *RosterImporter) ImportSheet(ctx context.Context, spreadsheetID, readRange string) (*ImportResult, error) {
	if s.sheets == nil {
		return nil, ErrSheetsUnavailable
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, newValidationError("spreadsheet_id", "spreadsheet id is required")
	}
	return s.ImportFrom(ctx, SheetSource{Service: s.sheets, SpreadsheetID: spreadsheetID, Range: readRange})
}

// ImportFrom reads a source and imports its rows
func (s *RosterImporter) ImportFrom(ctx context.Context, source RosterSource) (*ImportResult, error) {
	rows, err := source.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return s.Import(ctx, rows)
}

// Import validates every data row and upserts the valid ones by GR number.
// Invalid rows are reported and skipped.
func (s *RosterImporter) Import(ctx context.Context, rows [][]string) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, newValidationError("file", "the sheet is empty")
	}
	columns, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	byGR := make(map[string]int)
	var students []models.Student
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		student, err := s.parseRow(columns, row)
		if err != nil {
			// Header is row 1
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+2, err))
			continue
		}
		// A GR repeated within the file keeps its last row
		if at, ok := byGR[student.GRNumber]; ok {
			students[at] = student
			continue
		}
		byGR[student.GRNumber] = len(students)
		students = append(students, student)
	}

	s.deps.Metrics.RosterRows.WithLabelValues(metrics.OutcomeFailure).Add(float64(len(result.Errors)))
	if len(students) == 0 {
		return result, ErrNoValidRows
	}

	if err := s.deps.Store.UpsertStudents(ctx, students); err != nil {
		return nil, fmt.Errorf("failed to import students: %w", err)
	}
	result.Processed = len(students)
	s.deps.Metrics.RosterRows.WithLabelValues(metrics.OutcomeSuccess).Add(float64(len(students)))
	slog.Info("📥 Student roster imported", "processed", result.Processed, "rejected", len(result.Errors))
	return result, nil
}

func (s *RosterImporter) parseRow(columns map[string]int, row []string) (models.Student, error) {
	cell := func(key string) string {
		idx, ok := columns[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	student := models.Student{
		GRNumber: models.NormalizeGR(cell("gr_number")),
		Name:     cell("name"),
		Email:    strings.ToLower(cell("email")),
		Class:    cell("class"),
	}
	switch {
	case student.GRNumber == "":
		return student, errors.New("GR Number is required")
	case student.Name == "":
		return student, errors.New("Name is required")
	case student.Class == "":
		return student, errors.New("Class is required")
	case !s.deps.inDomain(student.Email):
		return student, fmt.Errorf("Email must be a valid @%s address", s.deps.Settings.EmailDomain)
	}

	semester, err := parseSemester(cell("semester"))
	if err != nil {
		return student, err
	}
	student.Semester = semester
	return student, nil
}

// parseSemester accepts spreadsheet numbers like "5" or "5.0"
func parseSemester(raw string) (int, error) {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value != float64(int(value)) || value < 1 || value > 8 {
		return 0, fmt.Errorf("Semester must be a number between 1 and 8, got %q", raw)
	}
	return int(value), nil
}

func mapHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, cell := range header {
		normalized := normalizeHeader(cell)
		for key, aliases := range rosterColumns {
			for _, alias := range aliases {
				if normalized == alias {
					if _, seen := columns[key]; !seen {
						columns[key] = i
					}
				}
			}
		}
	}

	var missing []string
	for _, key := range []string{"gr_number", "name", "email", "class", "semester"} {
		if _, ok := columns[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, newValidationError("file", "missing required columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func normalizeHeader(cell string) string {
	cell = strings.ToLower(strings.TrimSpace(cell))
	cell = strings.NewReplacer("_", " ", ".", " ", "-", " ").Replace(cell)
	return strings.Join(strings.Fields(cell), " ")
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
