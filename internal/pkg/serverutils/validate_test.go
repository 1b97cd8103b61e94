package serverutils

import (
	"strings"
	"testing"
)

type uploadForm struct {
	Title   string `validate:"required"`
	DocType string `validate:"required,oneof=policy guideline audit"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     uploadForm
		wantErr string
	}{
		{name: "valid", req: uploadForm{Title: "Data Privacy Policy", DocType: "policy"}, wantErr: ""},
		{name: "missing title", req: uploadForm{DocType: "policy"}, wantErr: "Title"},
		{name: "unknown type", req: uploadForm{Title: "x", DocType: "memo"}, wantErr: "DocType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not name field %q", err.Error(), tt.wantErr)
			}
		})
	}
}
