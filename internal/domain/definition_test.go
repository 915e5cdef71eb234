package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParameterDefinition_DefaultPresence(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantDefault bool
		wantValue   any
	}{
		{"no default key", `{"name":"a","type":"string","required":true}`, false, nil},
		{"explicit null", `{"name":"a","type":"string","required":false,"default":null}`, true, nil},
		{"string default", `{"name":"a","type":"string","required":false,"default":"world"}`, true, "world"},
		{"numeric default", `{"name":"a","type":"integer","required":false,"default":5}`, true, float64(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ParameterDefinition
			if err := json.Unmarshal([]byte(tt.input), &p); err != nil {
				t.Fatalf("Unmarshal error = %v", err)
			}
			if p.HasDefault() != tt.wantDefault {
				t.Fatalf("HasDefault() = %v, want %v", p.HasDefault(), tt.wantDefault)
			}
			if tt.wantDefault && p.Default.Value != tt.wantValue {
				t.Errorf("Default.Value = %v, want %v", p.Default.Value, tt.wantValue)
			}
		})
	}
}

func TestParameterDefinition_MarshalKeepsNullDefault(t *testing.T) {
	withNull, _ := json.Marshal(ParameterDefinition{Name: "a", Default: NewDefault(nil)})
	if !strings.Contains(string(withNull), `"default":null`) {
		t.Errorf("marshal = %s, want explicit null default", withNull)
	}
	without, _ := json.Marshal(ParameterDefinition{Name: "a", Required: true})
	if strings.Contains(string(without), "default") {
		t.Errorf("marshal = %s, want no default key", without)
	}
}

func TestPackageDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     PackageDefinition
		wantErr bool
	}{
		{"ok", PackageDefinition{Name: "demo", Language: "python", Functions: []FunctionDefinition{{Name: "a"}, {Name: "b"}}}, false},
		{"missing name", PackageDefinition{Language: "python"}, true},
		{"missing language", PackageDefinition{Name: "demo"}, true},
		{"duplicate function", PackageDefinition{Name: "demo", Language: "python", Functions: []FunctionDefinition{{Name: "a"}, {Name: "a"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidPackage) {
				t.Errorf("Validate() error = %v, want ErrInvalidPackage", err)
			}
		})
	}
}

func TestImageName(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		def     PackageDefinition
		want    string
		wantErr bool
	}{
		{"basic", "prod", PackageDefinition{Name: "demo", Version: "1.0"}, "prod/demo:1.0", false},
		{"sanitized", "Env_1", PackageDefinition{Name: "My Package!", Version: "2.1"}, "env_1/my-package:2.1", false},
		{"no version", "prod", PackageDefinition{Name: "demo"}, "prod/demo:latest", false},
		{"bad tag", "prod", PackageDefinition{Name: "demo", Version: "1.0/../x"}, "", true},
		{"empty name", "prod", PackageDefinition{Name: "!!!"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ImageName(tt.env, &tt.def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ImageName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ImageName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFullImageRef(t *testing.T) {
	if got := FullImageRef("registry.local:5000/", "prod/demo:1.0"); got != "registry.local:5000/prod/demo:1.0" {
		t.Errorf("FullImageRef() = %q", got)
	}
	if got := FullImageRef("", "prod/demo:1.0"); got != "prod/demo:1.0" {
		t.Errorf("FullImageRef() without registry = %q", got)
	}
}
