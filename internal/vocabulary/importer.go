package vocabulary

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"github.com/xuri/excelize/v2"
)

// Format identifies the layout of an import source.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DefaultDifficulty is assigned to rows with an empty difficulty cell.
const DefaultDifficulty = 3

var (
	// ErrUnsupportedFormat is returned for sources that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("unsupported import format")

	// ErrInvalidColumn is returned when a configured column letter cannot be parsed.
	ErrInvalidColumn = errors.New("invalid column")
)

// itemNamespace seeds the deterministic item IDs.
var itemNamespace = uuid.MustParse("6f1c7f4e-93b5-4f59-9d0b-2a4c7e0f5a11")

// ImportConfig describes where each field lives in the source.
type ImportConfig struct {
	WordColumn        string
	TranslationColumn string
	CategoryColumn    string
	DifficultyColumn  string
	SheetName         string
	// StartRow is 1-based; rows above it are headers.
	StartRow int
}

// DefaultImportConfig returns the A-D column layout with one header row.
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:        "A",
		TranslationColumn: "B",
		CategoryColumn:    "C",
		DifficultyColumn:  "D",
		SheetName:         "Sheet1",
		StartRow:          2,
	}
}

// ImportResult summarizes one import run.
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

// Importer parses vocabulary sources and upserts them into the pool.
type Importer struct {
	items    store.VocabularyStore
	config   ImportConfig
	validate *validator.Validate
	logger   *slog.Logger
}

// NewImporter creates an importer writing to items.
func NewImporter(items store.VocabularyStore, config ImportConfig, logger *slog.Logger) *Importer {
	if items == nil {
		panic("vocabulary store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	return &Importer{
		items:    items,
		config:   config,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "vocabulary_importer")),
	}
}

// FormatFromPath infers the source format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ImportFile imports the file at path, choosing the parser by extension.
func (i *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return i.Import(ctx, f, format)
}

// Import parses r as format and upserts every valid row. Invalid rows are
// reported in the result and skipped; a store failure aborts the import.
func (i *Importer) Import(ctx context.Context, r io.Reader, format Format) (*ImportResult, error) {
	log := logger.FromContextOrDefault(ctx, i.logger)

	rows, err := i.readRows(r, format)
	if err != nil {
		return nil, err
	}

	cols, err := i.columnIndexes()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	byID := make(map[uuid.UUID]int)
	items := make([]domain.VocabularyItem, 0, len(rows))

	for idx := i.config.StartRow - 1; idx < len(rows); idx++ {
		row := rows[idx]
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++
		rowNum := idx + 1

		item, err := i.parseRow(row, cols)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		// Later duplicates win so a file can correct itself.
		if pos, ok := byID[item.ID]; ok {
			items[pos] = item
			result.Skipped++
			continue
		}
		byID[item.ID] = len(items)
		items = append(items, item)
	}

	if len(items) > 0 {
		n, err := i.items.UpsertMany(ctx, items)
		if err != nil {
			log.Error("failed to store vocabulary items",
				slog.String("error", err.Error()),
				slog.Int("count", len(items)))
			return result, fmt.Errorf("failed to store vocabulary items: %w", err)
		}
		result.Imported = n
	}

	log.Info("vocabulary import finished",
		slog.Int("processed", result.TotalProcessed),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

func (i *Importer) readRows(r io.Reader, format Format) ([][]string, error) {
	switch format {
	case FormatXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		sheet := i.config.SheetName
		if sheet == "" {
			sheet = f.GetSheetName(0)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		return rows, nil
	case FormatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.LazyQuotes = true
		reader.TrimLeadingSpace = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

type columns struct {
	word, translation, category, difficulty int
}

func (i *Importer) columnIndexes() (columns, error) {
	var c columns
	var err error
	if c.word, err = columnToIndex(i.config.WordColumn); err != nil {
		return c, err
	}
	if c.translation, err = columnToIndex(i.config.TranslationColumn); err != nil {
		return c, err
	}
	if c.category, err = columnToIndex(i.config.CategoryColumn); err != nil {
		return c, err
	}
	if i.config.DifficultyColumn == "" {
		c.difficulty = -1
		return c, nil
	}
	if c.difficulty, err = columnToIndex(i.config.DifficultyColumn); err != nil {
		return c, err
	}
	return c, nil
}

func (i *Importer) parseRow(row []string, cols columns) (domain.VocabularyItem, error) {
	item := domain.VocabularyItem{
		Word:        cell(row, cols.word),
		Translation: cell(row, cols.translation),
		Category:    domain.NormalizeCategory(cell(row, cols.category)),
		Difficulty:  DefaultDifficulty,
	}

	if raw := cell(row, cols.difficulty); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return item, fmt.Errorf("difficulty %q is not a number", raw)
		}
		item.Difficulty = d
	}

	item.ID = ItemID(item.Word, item.Category)
	if err := i.validate.Struct(item); err != nil {
		return item, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return item, nil
}

// ItemID returns the stable ID for a word within a category. Case and
// surrounding whitespace of the word are ignored.
func ItemID(word, category string) uuid.UUID {
	key := strings.ToLower(strings.TrimSpace(word)) + "\x00" + domain.NormalizeCategory(category)
	return uuid.NewSHA1(itemNamespace, []byte(key))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// columnToIndex converts a spreadsheet column letter to a zero-based index.
func columnToIndex(col string) (int, error) {
	if col == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidColumn)
	}
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(col))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColumn, col)
	}
	return n - 1, nil
}
