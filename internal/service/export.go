package service

import (
	"encoding/json"
	"fmt"
)

// Download is a file handed to the browser as an attachment.
type Download struct {
	Filename string
	Body     []byte
}

// ExportFilename names the JSON export of a query.
func ExportFilename(location, date string) string {
	return fmt.Sprintf("NASA_Risk_Data_%s_%s.json", location, date)
}

// DownloadJSON pretty-prints data with a two-space indent. Raw JSON keeps its key order.
func DownloadJSON(data interface{}, location, date string) (*Download, error) {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return &Download{Filename: ExportFilename(location, date), Body: body}, nil
}
