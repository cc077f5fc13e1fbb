package validator

import (
	"testing"
)

func TestDraftKeyValidation(t *testing.T) {
	cv := NewCustomValidator()
	engine := cv.Engine()
	v := cv.Validate
	if engine == nil || v == nil {
		t.Fatal("Engine() should initialize the underlying validator")
	}
	if err := v.RegisterValidation("draftkey", validDraftKey); err != nil {
		t.Fatalf("RegisterValidation() error = %v", err)
	}

	type param struct {
		Key string `binding:"draftkey"`
	}

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple", "scratch", false},
		{"nested", "notes/2024/plan", false},
		{"dotted", "todo.today", false},
		{"numeric start", "2024-plan", false},
		{"empty", "", true},
		{"space", "my draft", true},
		{"traversal", "../etc/passwd", true},
		{"leading dash", "-x", true},
		{"unicode", "草稿", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(param{Key: tt.key})
			if (err != nil) != tt.wantErr {
				t.Errorf("key %q: err = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStructSkipsNonStruct(t *testing.T) {
	cv := NewCustomValidator()
	if err := cv.ValidateStruct("not a struct"); err != nil {
		t.Errorf("ValidateStruct(string) error = %v, want nil", err)
	}
}
