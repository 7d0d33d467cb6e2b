package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTenderFileFailed(t *testing.T) {
	tests := []struct {
		name string
		file TenderFile
		want bool
	}{
		{
			name: "success row",
			file: TenderFile{Name: "bases.pdf", PublicURL: "http://minio/x", StoragePath: "1/x"},
			want: false,
		},
		{
			name: "failure row",
			file: TenderFile{Name: "bases.pdf", DownloadError: "connection refused"},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.file.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTenderJSONOmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(&Tender{ID: 1, Number: "1234-56-L2024", SourceURL: "http://example.com"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	for _, field := range []string{"amount", "closing_date", "entity"} {
		if strings.Contains(string(data), field) {
			t.Errorf("Expected empty %q to be omitted, got %s", field, data)
		}
	}
}
