package validator

import (
	"testing"

	"github.com/robert-at-pretension-io/export-config/internal/facts"
)

func TestInputContractEnforcement(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}

	validConfig := map[string]interface{}{
		"name":    "PVWatts",
		"modules": []interface{}{"pvwattsv8"},
		"pages": []interface{}{
			map[string]interface{}{"index": 0, "sidebar": "Location", "forms": []interface{}{"Irradiance"}},
		},
		"forms": []interface{}{
			map[string]interface{}{"name": "Irradiance", "eqn_outputs": []interface{}{"Pout"}, "callback_modules": []interface{}{}},
		},
	}

	tests := []struct {
		name    string
		data    map[string]interface{}
		wantErr bool
	}{
		{
			name: "valid_input",
			data: map[string]interface{}{
				"configurations": []interface{}{validConfig},
				"lint_config":    map[string]interface{}{"rules": map[string]interface{}{"form-without-scripts": "info"}},
			},
		},
		{
			name: "unknown_severity",
			data: map[string]interface{}{
				"configurations": []interface{}{},
				"lint_config":    map[string]interface{}{"rules": map[string]interface{}{"x": "fatal"}},
			},
			wantErr: true,
		},
		{
			name: "empty_configuration_name",
			data: map[string]interface{}{
				"configurations": []interface{}{
					map[string]interface{}{"name": "", "modules": []interface{}{}, "pages": []interface{}{}, "forms": []interface{}{}},
				},
				"lint_config": map[string]interface{}{"rules": map[string]interface{}{}},
			},
			wantErr: true,
		},
		{
			name: "unknown_field",
			data: map[string]interface{}{
				"configurations": []interface{}{},
				"lint_config":    map[string]interface{}{"rules": map[string]interface{}{}},
				"extra":          true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && len(v.ValidationErrors(tt.data)) == 0 {
				t.Fatalf("expected detailed validation errors")
			}
		})
	}
}

func TestInputValidateJSON(t *testing.T) {
	v, err := New()
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	if err := v.ValidateJSON([]byte(`{"configurations": [], "lint_config": {"rules": {}}}`)); err != nil {
		t.Fatalf("expected valid JSON, got %v", err)
	}
	if err := v.ValidateJSON([]byte(`{"configurations": [{"name": "A", "modules": "grid"}]}`)); err == nil {
		t.Fatalf("expected modules type mismatch")
	}
}

func validTables() facts.Tables {
	return facts.Tables{
		Configurations: []facts.ConfigurationRow{{Name: "PVWatts"}},
		InputPages: []facts.InputPageRow{{
			Config:           "PVWatts",
			Index:            0,
			Sidebar:          "Location and Resource",
			CommonUIForms:    []string{"Irradiance"},
			ExclusiveUIForms: []string{},
		}},
		Modules:      []facts.ModuleRow{{Config: "PVWatts", Module: "pvwattsv8"}},
		Forms:        []facts.FormRow{{Config: "PVWatts", Form: "Irradiance"}},
		EqnVariables: []facts.EqnVariableRow{{Config: "PVWatts", Form: "Irradiance", Variable: "Pout"}},
		CallbackMods: []facts.CallbackModRow{},
	}
}

func TestFactsValidatorAcceptsValidTables(t *testing.T) {
	v, err := NewFactsValidator()
	if err != nil {
		t.Fatalf("new facts validator: %v", err)
	}
	if err := v.Validate(validTables()); err != nil {
		t.Fatalf("expected valid tables, got error: %v", err)
	}
}

func TestFactsValidatorRejectsInvalidTables(t *testing.T) {
	v, err := NewFactsValidator()
	if err != nil {
		t.Fatalf("new facts validator: %v", err)
	}

	badVariable := validTables()
	badVariable.EqnVariables[0].Variable = "obj.x"
	if err := v.Validate(badVariable); err == nil {
		t.Fatalf("expected error for non-identifier variable")
	}

	badIndex := validTables()
	badIndex.InputPages[0].Index = -1
	if err := v.Validate(badIndex); err == nil {
		t.Fatalf("expected error for negative page index")
	}

	emptyModule := validTables()
	emptyModule.Modules[0].Module = ""
	if err := v.Validate(emptyModule); err == nil {
		t.Fatalf("expected error for empty module name")
	}

	if err := v.ValidateJSON([]byte(`{"configurations": [{"name": "A", "color": "red"}]}`)); err == nil {
		t.Fatalf("expected error for unknown row field")
	}
}
