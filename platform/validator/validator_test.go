package validator

import "testing"

func TestFunnelEmailTag(t *testing.T) {
	val := New()

	type form struct {
		Email string `validate:"required,funnel_email"`
	}

	cases := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"user+tag@mail.example.org", true},
		{"user@localhost", false},
		{"user@example.c", false},
		{"user@ex_ample.com", false},
		{"not-an-email", false},
	}

	for _, tc := range cases {
		err := val.Struct(form{Email: tc.email})
		if tc.valid && err != nil {
			t.Errorf("Struct(%q) = %v, want nil", tc.email, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("Struct(%q) = nil, want error", tc.email)
		}
	}
}

func TestVar(t *testing.T) {
	val := New()

	if err := val.Var("user@example.com", "funnel_email"); err != nil {
		t.Errorf("Var valid email = %v, want nil", err)
	}
	if err := val.Var("user@localhost", "funnel_email"); err == nil {
		t.Error("Var invalid email = nil, want error")
	}
}
