package authlog

import (
	"fmt"
	"io"
	"strings"

	"biometric-device-console/internal/storage"
)

// utf8BOM keeps spreadsheet applications from misdetecting the encoding of
// exported Japanese text.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"ID", "Time", "UserID", "UserName", "DeviceSerialNo", "AuthMode", "Result", "Message"}

const csvTimeFormat = "2006-01-02 15:04:05"

// modeLabel renders auth modes the way the export historically did.
func modeLabel(mode storage.AuthMode) string {
	switch mode {
	case storage.AuthModeFace:
		return "Face"
	case storage.AuthModeVein:
		return "Vein"
	default:
		return "Dual"
	}
}

// quoteField double-quotes a single field. encoding/csv only quotes when it
// has to; the export contract quotes every field unconditionally, so the
// quoting is done by hand.
func quoteField(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func writeRecord(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = quoteField(field)
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

// WriteCSV serializes logs as BOM-prefixed, fully quoted delimited text.
// Callers pass the filtered, not paginated, collection.
func WriteCSV(w io.Writer, logs []storage.AuthLog) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	if err := writeRecord(w, csvHeader); err != nil {
		return err
	}

	for _, log := range logs {
		result := "Failed"
		if log.IsSuccess {
			result = "Success"
		}

		record := []string{
			fmt.Sprintf("%d", log.ID),
			log.Timestamp.Format(csvTimeFormat),
			log.UserID,
			log.UserName,
			log.SerialNo,
			modeLabel(log.AuthMode),
			result,
			log.ErrorMessage,
		}
		if err := writeRecord(w, record); err != nil {
			return err
		}
	}

	return nil
}
