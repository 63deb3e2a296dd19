package validation

import "testing"

func TestValidationErrors(t *testing.T) {
	ve := &ValidationErrors{}
	if ve.HasErrors() {
		t.Error("New collector must be empty")
	}

	RequireField(ve, "name", "  ")
	ValidatePositiveInt(ve, "quantity", 0)
	ValidateNonNegativeInt(ve, "expected", -1)
	ValidateDate(ve, "inspection_date", "15/03/2026")
	ValidateEnum(ve, "status", "bogus", ValidExitStatuses)

	if len(ve.Errors) != 5 {
		t.Fatalf("Expected 5 errors, got %d: %s", len(ve.Errors), ve.Error())
	}
	if ve.Errors[0].Field != "name" {
		t.Errorf("Unexpected first error: %+v", ve.Errors[0])
	}
}

func TestValidators_AcceptValidInput(t *testing.T) {
	ve := &ValidationErrors{}
	RequireField(ve, "name", "OQC Supervisor")
	ValidatePositiveInt(ve, "quantity", 10)
	ValidateNonNegativeInt(ve, "expected", 0)
	ValidateDate(ve, "inspection_date", "2026-03-15")
	ValidateDate(ve, "exit_date", "") // optional
	ValidateEnum(ve, "status", "pending", ValidExitStatuses)
	ValidateEnum(ve, "status", "", ValidExitStatuses) // optional
	ValidatePin(ve, "pin", "1234")
	ValidatePin(ve, "pin", "123456")

	if ve.HasErrors() {
		t.Errorf("Unexpected errors: %s", ve.Error())
	}
}

func TestValidatePin(t *testing.T) {
	cases := []struct {
		pin string
		ok  bool
	}{
		{"1234", true},
		{"123456", true},
		{"123", false},
		{"1234567", false},
		{"12a4", false},
		{"", false},
	}
	for _, tc := range cases {
		ve := &ValidationErrors{}
		ValidatePin(ve, "pin", tc.pin)
		if tc.ok == ve.HasErrors() {
			t.Errorf("ValidatePin(%q): expected ok=%v, got errors %s", tc.pin, tc.ok, ve.Error())
		}
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		table map[string][]string
		from  string
		to    string
		want  bool
	}{
		{ExitTransitions, "pending", "released", true},
		{ExitTransitions, "pending", "shipped", false},
		{ExitTransitions, "released", "cancelled", true},
		{ExitTransitions, "shipped", "cancelled", false},
		{ExitTransitions, "cancelled", "pending", false},
		{RejectionTransitions, "pending", "in_review", true},
		{RejectionTransitions, "pending", "corrected", true},
		{RejectionTransitions, "in_review", "pending", false},
		{RejectionTransitions, "corrected", "returned", true},
		{RejectionTransitions, "returned", "corrected", false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.table, tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
