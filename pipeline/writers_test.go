package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

func sampleRecord() *models.Record {
	return &models.Record{
		Title:            "The Pillar",
		Artist:           "Stephen Gill",
		ArtistExistsInDB: true,
		Description:      `He said "hello," then left`,
		Specs:            "Hardcover,\n72 pages",
		CoverURL:         "https://cdn.test/1.jpg",
		Images:           "https://cdn.test/2.jpg|https://cdn.test/3.jpg",
		Availability:     models.SoldOut,
		PurchaseLink:     "https://shop.test/products/the-pillar",
	}
}

func TestCSVWriterWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "mack.csv")
	cols := models.Columns(true)

	writer, err := NewCSVWriter(path, cols)
	if err != nil {
		t.Fatalf("create csv writer: %v", err)
	}
	rec := sampleRecord()
	if err := writer.Write([]*models.Record{rec, rec}); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if writer.Rows() != 2 {
		t.Fatalf("rows = %d, want 2", writer.Rows())
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if strings.HasSuffix(string(raw), "\n") {
		t.Fatalf("csv should not end with a newline")
	}

	records, err := csv.NewReader(strings.NewReader(string(raw))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records=%d, want 3", len(records))
	}
	header := strings.Join(records[0], ",")
	if header != "title,artist,artistExistsInDb,description,specs,coverUrl,images,availability,purchaseLink" {
		t.Fatalf("unexpected header: %s", header)
	}
	for i, c := range cols {
		if want := rec.Value(c.Key); records[1][i] != want {
			t.Fatalf("field %s = %q, want %q", c.Key, records[1][i], want)
		}
	}
	if records[1][7] != "sold out" || records[1][2] != "true" {
		t.Fatalf("unexpected availability/exists: %v", records[1])
	}
}

func TestCSVWriterHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	writer, err := NewCSVWriter(path, models.Columns(false))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "title,artist,artistExistsInDb,description,coverUrl,images,availability,purchaseLink" {
		t.Fatalf("header = %q", raw)
	}
}

func TestJSONWriterWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mack.jsonl")

	writer, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("create json writer: %v", err)
	}
	if err := writer.Write([]*models.Record{sampleRecord()}); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open json: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	count := 0
	for scanner.Scan() {
		var decoded map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid json line: %v", err)
		}
		if decoded["availability"] != "sold out" {
			t.Fatalf("availability = %v, want label", decoded["availability"])
		}
		count++
	}
	if count != 1 {
		t.Fatalf("json lines=%d, want 1", count)
	}
}

func TestNewWriterDual(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "void.csv")

	writer, err := NewWriter("dual", csvPath, models.Columns(false))
	if err != nil {
		t.Fatalf("create dual writer: %v", err)
	}
	if err := writer.Write([]*models.Record{sampleRecord()}); err != nil {
		t.Fatalf("write dual: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close dual: %v", err)
	}

	if info, err := os.Stat(csvPath); err != nil || info.Size() == 0 {
		t.Fatalf("csv file missing or empty")
	}
	if info, err := os.Stat(filepath.Join(dir, "void.jsonl")); err != nil || info.Size() == 0 {
		t.Fatalf("json file missing or empty")
	}

	paths := OutputPaths("dual", csvPath)
	if len(paths) != 2 || paths[1] != filepath.Join(dir, "void.jsonl") {
		t.Fatalf("output paths = %v", paths)
	}
	if err := writer.Validate(); err != nil {
		t.Fatalf("validate dual after close: %v", err)
	}
}

func TestWritersValidateAfterClose(t *testing.T) {
	dir := t.TempDir()

	csvWriter, err := NewCSVWriter(filepath.Join(dir, "a.csv"), models.Columns(false))
	if err != nil {
		t.Fatalf("create csv: %v", err)
	}
	if err := csvWriter.Close(); err != nil {
		t.Fatalf("close csv: %v", err)
	}
	if err := csvWriter.Validate(); err != nil {
		t.Fatalf("validate csv after close: %v", err)
	}

	jsonWriter, err := NewJSONWriter(filepath.Join(dir, "a.jsonl"))
	if err != nil {
		t.Fatalf("create json: %v", err)
	}
	if err := jsonWriter.Close(); err != nil {
		t.Fatalf("close json: %v", err)
	}
	if err := jsonWriter.Validate(); err != nil {
		t.Fatalf("validate json after close: %v", err)
	}
}

func TestCSVWriterValidateMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone.csv")
	writer, err := NewCSVWriter(path, models.Columns(false))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := writer.Validate(); err == nil {
		t.Fatalf("expected error for removed file")
	}
}

func TestNewWriterUnknownFormat(t *testing.T) {
	if _, err := NewWriter("xml", filepath.Join(t.TempDir(), "x"), models.Columns(false)); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
