package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *Record
		wantErr error
	}{
		{
			name: "valid record",
			record: &Record{
				ID:       "general:menu-0",
				Values:   []float32{0.1, 0.2},
				Metadata: map[string]any{"text": "x"},
			},
			wantErr: nil,
		},
		{
			name: "valid record with empty text",
			record: &Record{
				ID:       "general:menu-1",
				Values:   []float32{0, 0},
				Metadata: map[string]any{},
			},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name: "empty id",
			record: &Record{
				Values:   []float32{1},
				Metadata: map[string]any{},
			},
			wantErr: ErrEmptyID,
		},
		{
			name: "id too long",
			record: &Record{
				ID:       strings.Repeat("a", MaxIDLength+1),
				Values:   []float32{1},
				Metadata: map[string]any{},
			},
			wantErr: ErrIDTooLong,
		},
		{
			name: "empty vector",
			record: &Record{
				ID:       "x",
				Metadata: map[string]any{},
			},
			wantErr: ErrEmptyVector,
		},
		{
			name: "nil metadata",
			record: &Record{
				ID:     "x",
				Values: []float32{1},
			},
			wantErr: ErrMissingMetadata,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRecord() unexpected error = %v", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateRecord() expected error %v, got nil", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRecord() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("ValidateRecord() error should wrap ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		namespace string
		wantErr   bool
	}{
		{"social", false},
		{"tenant-42", false},
		{"", true},
		{"   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			err := ValidateNamespace(tt.namespace)
			if tt.wantErr && !errors.Is(err, ErrEmptyNamespace) {
				t.Errorf("ValidateNamespace(%q) = %v, want ErrEmptyNamespace", tt.namespace, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateNamespace(%q) unexpected error = %v", tt.namespace, err)
			}
		})
	}
}

func TestValidateDocType(t *testing.T) {
	for _, d := range AllDocTypes {
		if err := ValidateDocType(d); err != nil {
			t.Errorf("ValidateDocType(%q) unexpected error = %v", d, err)
		}
	}

	err := ValidateDocType(DocType("recipes"))
	if !errors.Is(err, ErrInvalidDocType) {
		t.Errorf("ValidateDocType(recipes) = %v, want ErrInvalidDocType", err)
	}
}

func TestValidateFileState(t *testing.T) {
	valid := func() *FileState {
		return &FileState{
			Path:        "/docs/menu.pdf",
			Namespace:   "social",
			Fingerprint: "abc",
			IndexedAt:   time.Now(),
		}
	}

	if err := ValidateFileState(valid()); err != nil {
		t.Fatalf("ValidateFileState() unexpected error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*FileState)
	}{
		{"empty path", func(s *FileState) { s.Path = "" }},
		{"empty namespace", func(s *FileState) { s.Namespace = "" }},
		{"empty fingerprint", func(s *FileState) { s.Fingerprint = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := valid()
			tt.mutate(state)
			if err := ValidateFileState(state); !errors.Is(err, ErrInvalidFileState) {
				t.Errorf("ValidateFileState() = %v, want ErrInvalidFileState", err)
			}
		})
	}

	if err := ValidateFileState(nil); !errors.Is(err, ErrInvalidFileState) {
		t.Errorf("ValidateFileState(nil) = %v, want ErrInvalidFileState", err)
	}
}
