package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Ananth-NQI/clubhub-backend/internal/storage"
)

func TestRosterImport_ReportsBadRowsAndKeepsGoodOnes(t *testing.T) {
	eachStore(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()

		rows := [][]string{
			{"GR No.", "Student Name", "Email ID", "Class", "Sem"},
			{"gr500", "Priya", "Priya@inst.edu", "ME-A", "4"},
			{"", "No GR", "nogr@inst.edu", "ME-A", "4"},
			{"GR501", "Outsider", "out@gmail.com", "ME-A", "4"},
			{"GR502", "Bad Sem", "badsem@inst.edu", "ME-A", "nine"},
			{"", "", "", "", ""},
			{"GR503", "No Class", "noclass@inst.edu", "", "2"},
			{"GR100", "Leader Renamed", "leader@inst.edu", "CE-A", "6.0"},
		}

		result, err := env.roster.Import(ctx, rows)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Processed)
		assert.Equal(t, []string{
			"Row 3: GR Number is required",
			"Row 4: Email must be a valid @inst.edu address",
			`Row 5: Semester must be a number between 1 and 8, got "nine"`,
			"Row 7: Class is required",
		}, result.Errors)

		priya, err := env.store.GetStudent(ctx, "GR500")
		require.NoError(t, err)
		assert.Equal(t, "priya@inst.edu", priya.Email)
		assert.Equal(t, 4, priya.Semester)

		leader, err := env.store.GetStudent(ctx, "GR100")
		require.NoError(t, err)
		assert.Equal(t, "Leader Renamed", leader.Name)
		assert.Equal(t, 6, leader.Semester)

		_, err = env.store.GetStudent(ctx, "GR501")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestRosterImport_RepeatedGRKeepsLastRow(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	result, err := env.roster.Import(ctx, [][]string{
		{"gr_number", "name", "email", "class", "semester"},
		{"GR600", "First", "first@inst.edu", "CE-A", "1"},
		{"GR600", "Second", "second@inst.edu", "CE-B", "2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	student, err := env.store.GetStudent(ctx, "GR600")
	require.NoError(t, err)
	assert.Equal(t, "Second", student.Name)
	assert.Equal(t, "CE-B", student.Class)
}

func TestRosterImport_NothingValid(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())

	result, err := env.roster.Import(context.Background(), [][]string{
		{"GR Number", "Name", "Email", "Class", "Semester"},
		{"GR700", "", "x@inst.edu", "CE-A", "3"},
	})
	assert.ErrorIs(t, err, ErrNoValidRows)
	require.NotNil(t, result)
	assert.Equal(t, []string{"Row 2: Name is required"}, result.Errors)
}

func TestRosterImport_MissingColumns(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())

	_, err := env.roster.Import(context.Background(), [][]string{{"GR Number", "Name", "Email"}})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "class, semester")

	_, err = env.roster.Import(context.Background(), nil)
	require.ErrorAs(t, err, &validation)
}

func TestRosterImport_CSVFile(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	data := "GR Number,Name,Email,Class,Semester\nGR800, Kiran ,kiran@inst.edu,EE-A,3\n"
	source, err := SourceForFile("roster.CSV", strings.NewReader(data))
	require.NoError(t, err)

	result, err := env.roster.ImportFrom(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	student, err := env.store.GetStudent(ctx, "GR800")
	require.NoError(t, err)
	assert.Equal(t, "Kiran", student.Name)
}

func TestRosterImport_XLSXFile(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	ctx := context.Background()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"GR Number", "Name", "Email", "Class", "Semester"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"GR900", "Meera", "meera@inst.edu", "IT-B", 7}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	source, err := SourceForFile("students.xlsx", bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	result, err := env.roster.ImportFrom(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	student, err := env.store.GetStudent(ctx, "GR900")
	require.NoError(t, err)
	assert.Equal(t, 7, student.Semester)
	assert.Equal(t, "IT-B", student.Class)
}

func TestSourceForFile_RejectsUnknownTypes(t *testing.T) {
	_, err := SourceForFile("students.pdf", strings.NewReader(""))
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestImportSheet_RequiresCredentials(t *testing.T) {
	env := newTestEnv(t, storage.NewMemoryStore())
	_, err := env.roster.ImportSheet(context.Background(), "sheet-id", "")
	assert.ErrorIs(t, err, ErrSheetsUnavailable)
}
