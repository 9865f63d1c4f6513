package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestEmployeeMutation_Validate(t *testing.T) {
	tooMany := make([]Dependent, DependentLimit+1)
	for i := range tooMany {
		tooMany[i] = Dependent{Person: Person{FirstName: "Kid"}}
	}

	tests := []struct {
		name       string
		mutation   EmployeeMutation
		wantFields []string
	}{
		{
			name: "valid mutation",
			mutation: EmployeeMutation{
				FirstName: "Fred",
				LastName:  "Flintstone",
				Dependents: []Dependent{
					{Person: Person{FirstName: "Wilma", LastName: "Flintstone"}},
				},
			},
		},
		{
			name:     "empty mutation is valid",
			mutation: EmployeeMutation{},
		},
		{
			name:     "empty dependents slice is valid",
			mutation: EmployeeMutation{Dependents: []Dependent{}},
		},
		{
			name: "max name length",
			mutation: EmployeeMutation{
				FirstName: strings.Repeat("a", MaxNameLength),
			},
		},
		{
			name: "first name too long",
			mutation: EmployeeMutation{
				FirstName: strings.Repeat("a", MaxNameLength+1),
			},
			wantFields: []string{"first_name"},
		},
		{
			name: "last name too long",
			mutation: EmployeeMutation{
				FirstName: "Fred",
				LastName:  strings.Repeat("b", MaxNameLength+1),
			},
			wantFields: []string{"last_name"},
		},
		{
			name: "dependent without first name",
			mutation: EmployeeMutation{
				FirstName: "Fred",
				Dependents: []Dependent{
					{Person: Person{FirstName: "Wilma"}},
					{Person: Person{LastName: "Flintstone"}},
				},
			},
			wantFields: []string{"dependents[1].first_name"},
		},
		{
			name: "too many dependents",
			mutation: EmployeeMutation{
				FirstName:  "Fred",
				Dependents: tooMany,
			},
			wantFields: []string{"dependents"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := tt.mutation.Validate()

			// Assert
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			for _, field := range tt.wantFields {
				if _, ok := ve.Fields[field]; !ok {
					t.Errorf("Validate() fields = %v, missing %q", ve.Fields, field)
				}
			}
			if len(ve.Fields) != len(tt.wantFields) {
				t.Errorf("Validate() fields = %v, want only %v", ve.Fields, tt.wantFields)
			}
		})
	}
}

func TestEmployeeMutation_Validate_Messages(t *testing.T) {
	tests := []struct {
		name     string
		mutation EmployeeMutation
		field    string
		want     string
	}{
		{
			name:     "name limit",
			mutation: EmployeeMutation{LastName: strings.Repeat("b", MaxNameLength+1)},
			field:    "last_name",
			want:     "Maximum length is 255",
		},
		{
			name:     "dependent limit",
			mutation: EmployeeMutation{Dependents: make([]Dependent, DependentLimit+1)},
			field:    "dependents",
			want:     "At most 10 dependents allowed",
		},
		{
			name:     "dependent first name",
			mutation: EmployeeMutation{Dependents: []Dependent{{}}},
			field:    "dependents[0].first_name",
			want:     "This field is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := tt.mutation.Validate()

			// Assert
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if got := ve.Fields[tt.field]; got != tt.want {
				t.Errorf("Validate() %s = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestEmployeeMutation_Validate_NameLimitCountsRunes(t *testing.T) {
	// Arrange
	mutation := EmployeeMutation{FirstName: strings.Repeat("é", MaxNameLength)}

	// Act
	err := mutation.Validate()

	// Assert
	if err != nil {
		t.Errorf("Validate() error = %v, want nil for %d runes", err, MaxNameLength)
	}
}

func TestValidationError_Error(t *testing.T) {
	// Arrange
	err := &ValidationError{Fields: map[string]string{
		"last_name":  "Maximum length is 255",
		"first_name": "This field is required",
	}}

	// Act
	msg := err.Error()

	// Assert
	want := "first_name: This field is required; last_name: Maximum length is 255"
	if msg != want {
		t.Errorf("Error() = %q, want %q", msg, want)
	}
}

func TestEmployee_Clone(t *testing.T) {
	// Arrange
	original := Employee{
		ID:     "abc",
		Person: Person{FirstName: "Tony", LastName: "Soprano"},
		Dependents: []Dependent{
			{ID: "d1", Person: Person{FirstName: "Carmela"}},
		},
	}

	// Act
	clone := original.Clone()
	clone.Dependents[0].FirstName = "Meadow"

	// Assert
	if original.Dependents[0].FirstName != "Carmela" {
		t.Error("Clone() should not share the dependents backing array")
	}
}

func TestEmployee_Clone_NilDependents(t *testing.T) {
	// Act
	clone := Employee{ID: "abc"}.Clone()

	// Assert
	if clone.Dependents == nil {
		t.Error("Clone() should normalize nil dependents to an empty slice")
	}
}

func TestEmployee_JSONSerialization(t *testing.T) {
	// Arrange
	employee := Employee{
		ID:     "abc123",
		Person: Person{FirstName: "Anna", LastName: "Lee"},
		Dependents: []Dependent{
			{ID: "dep1", Person: Person{FirstName: "Amy", LastName: "Lee"}},
		},
		BenefitsCost: 52.5,
	}

	// Act
	data, err := json.Marshal(employee)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	// Assert
	for _, key := range []string{"id", "first_name", "last_name", "dependents", "benefits_cost"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("serialized employee missing key %q: %s", key, data)
		}
	}
	if _, ok := fields["Person"]; ok {
		t.Errorf("embedded Person should be flattened: %s", data)
	}
}

func TestEmployeeMutation_JSONDependentsPresence(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantNil bool
	}{
		{"absent dependents", `{"first_name":"Bob"}`, true},
		{"empty dependents", `{"first_name":"Bob","dependents":[]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m EmployeeMutation
			if err := json.Unmarshal([]byte(tt.body), &m); err != nil {
				t.Fatalf("json.Unmarshal() error = %v", err)
			}
			if (m.Dependents == nil) != tt.wantNil {
				t.Errorf("Dependents nil = %v, want %v", m.Dependents == nil, tt.wantNil)
			}
		})
	}
}

func TestCostPreviewRequest_JSONInline(t *testing.T) {
	// Arrange
	body := `{"employee_id":"e1","first_name":"Amy","dependents":[{"first_name":"Al"}]}`

	// Act
	var req CostPreviewRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	// Assert
	if req.EmployeeID != "e1" || req.FirstName != "Amy" || len(req.Dependents) != 1 {
		t.Errorf("unexpected decoded request: %+v", req)
	}
}

func TestNewSuccessResponse(t *testing.T) {
	// Act
	response := NewSuccessResponse(Employee{ID: "abc"})

	// Assert
	if !response.Success {
		t.Error("Success = false, want true")
	}
	if response.Data.ID != "abc" {
		t.Errorf("Data.ID = %s, want abc", response.Data.ID)
	}
	if response.Error != "" {
		t.Errorf("Error = %q, want empty", response.Error)
	}
}

func TestNewErrorResponse(t *testing.T) {
	// Act
	response := NewErrorResponse[*Employee]("Not Found, id: x")

	// Assert
	if response.Success {
		t.Error("Success = true, want false")
	}
	if response.Data != nil {
		t.Error("Data should be nil")
	}
	if response.Error != "Not Found, id: x" {
		t.Errorf("Error = %q", response.Error)
	}
}

func TestEmployeeEvent_JSONOmitsEmployeeOnDelete(t *testing.T) {
	// Arrange
	event := EmployeeEvent{
		ID:         "evt",
		Type:       EventEmployeeDeleted,
		EmployeeID: "abc",
		Timestamp:  time.Now().UTC(),
	}

	// Act
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	// Assert
	if strings.Contains(string(data), `"employee":`) {
		t.Errorf("deleted event should omit employee: %s", data)
	}
}

func TestNewListResponse(t *testing.T) {
	tests := []struct {
		name  string
		items []Employee
		want  string
	}{
		{"nil collection", nil, `{"success":true,"data":[]}`},
		{"empty collection", []Employee{}, `{"success":true,"data":[]}`},
		{
			name:  "one employee",
			items: []Employee{{ID: "abc", Person: Person{FirstName: "Anna"}, Dependents: []Dependent{}}},
			want:  `{"success":true,"data":[{"first_name":"Anna","last_name":"","id":"abc","dependents":[],"benefits_cost":0}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			data, err := json.Marshal(NewListResponse(tt.items))

			// Assert
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}
