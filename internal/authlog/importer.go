package authlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"biometric-device-console/internal/storage"
)

// Importer ingests attempt logs exported by offline terminals. Terminal
// exports come in the same column layout as WriteCSV, but the encoding
// varies: UTF-8 with or without BOM, or UTF-16 with BOM.
type Importer struct {
	store  storage.Provider
	logger *slog.Logger
}

func NewImporter(store storage.Provider) *Importer {
	return &Importer{
		store:  store,
		logger: slog.With("component", "authlog-import"),
	}
}

// openCSV wraps f in a decoder when a BOM indicates UTF-16.
func openCSV(f *os.File) (*csv.Reader, error) {
	bom := make([]byte, 2)
	n, err := f.Read(bom)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read BOM: %w", err)
	}

	var reader *csv.Reader
	if n == 2 && (bom[0] == 0xFE && bom[1] == 0xFF || bom[0] == 0xFF && bom[1] == 0xFE) {
		utf16bom := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
		decoded := transform.NewReader(io.MultiReader(
			// Prepend BOM bytes back to stream
			strings.NewReader(string(bom[:n])),
			f,
		), utf16bom)
		reader = csv.NewReader(decoded)
	} else {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek file: %w", err)
		}
		// BOMOverride also strips a UTF-8 BOM when present.
		decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		reader = csv.NewReader(decoded)
	}

	reader.LazyQuotes = true
	reader.FieldsPerRecord = 0
	return reader, nil
}

// headerIndex maps the columns the import needs to their positions.
func headerIndex(headers []string) (map[string]int, error) {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"Time", "UserID", "DeviceSerialNo", "AuthMode", "Result"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("CSV file missing required column %q", required)
		}
	}
	return idx, nil
}

func parseMode(label string) (storage.AuthMode, error) {
	switch strings.TrimSpace(label) {
	case "Face":
		return storage.AuthModeFace, nil
	case "Vein":
		return storage.AuthModeVein, nil
	case "Dual", "FaceAndVein":
		return storage.AuthModeFaceAndVein, nil
	}
	// Terminal firmware writes the raw integer in some versions.
	if n, err := strconv.Atoi(strings.TrimSpace(label)); err == nil && storage.AuthMode(n).Valid() {
		return storage.AuthMode(n), nil
	}
	return 0, fmt.Errorf("unknown auth mode %q", label)
}

// ImportFile reads one CSV export and inserts every row into the auth
// event feed. Returns the number of imported rows.
func (imp *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader, err := openCSV(f)
	if err != nil {
		return 0, err
	}

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, err := headerIndex(headers)
	if err != nil {
		return 0, err
	}

	field := func(record []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("error reading CSV: %w", err)
		}

		timestamp, err := time.Parse(csvTimeFormat, field(record, "Time"))
		if err != nil {
			imp.logger.Warn("Skipping row with unparseable timestamp", "value", field(record, "Time"))
			continue
		}
		mode, err := parseMode(field(record, "AuthMode"))
		if err != nil {
			imp.logger.Warn("Skipping row with unknown auth mode", "value", field(record, "AuthMode"))
			continue
		}

		entry := storage.AuthLog{
			Timestamp:    timestamp,
			UserID:       field(record, "UserID"),
			UserName:     field(record, "UserName"),
			SerialNo:     field(record, "DeviceSerialNo"),
			DeviceName:   field(record, "DeviceName"),
			AuthMode:     mode,
			IsSuccess:    strings.EqualFold(field(record, "Result"), "Success"),
			ErrorMessage: field(record, "Message"),
		}
		if err := imp.store.InsertAuthLog(ctx, entry); err != nil {
			return count, err
		}
		count++
	}

	imp.logger.Info("Imported auth log file", "path", path, "rows", count)
	return count, nil
}
