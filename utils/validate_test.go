package utils

import "testing"

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"alice@example.com",
		"first.last@cse.unsw.edu.au",
		"user_name-1@uni-mail.org",
	}
	invalid := []string{
		"",
		"no-at-sign.com",
		"spaces in@example.com",
		"alice@",
		"@example.com",
	}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = false, want true", email)
		}
	}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = true, want false", email)
		}
	}
}

func TestIsValidName(t *testing.T) {
	valid := []string{"Alice", "O'Brien", "Smith-Jones", "van der Berg"}
	invalid := []string{"", "Alice1", "Bob!", "名前"}
	for _, name := range valid {
		if !IsValidName(name) {
			t.Errorf("IsValidName(%q) = false, want true", name)
		}
	}
	for _, name := range invalid {
		if IsValidName(name) {
			t.Errorf("IsValidName(%q) = true, want false", name)
		}
	}
}

func TestIsValidPassword(t *testing.T) {
	valid := []string{"Passw0rd!", "Abcdef1@", "L0ngerPassw*rd"}
	invalid := []string{
		"",
		"alllower1!", // no uppercase
		"ALLUPPER1!", // no lowercase
		"NoDigits!!", // no digit
		"NoSpecial1", // no special character
		"Sh0rt!",     // too short
		"Has spaces 1A!",
	}
	for _, pw := range valid {
		if !IsValidPassword(pw) {
			t.Errorf("IsValidPassword(%q) = false, want true", pw)
		}
	}
	for _, pw := range invalid {
		if IsValidPassword(pw) {
			t.Errorf("IsValidPassword(%q) = true, want false", pw)
		}
	}
}

func TestIsValidPhoneNumber(t *testing.T) {
	if !IsValidPhoneNumber("0412345678") {
		t.Error("ten digits should be valid")
	}
	for _, phone := range []string{"", "12345", "04123456789", "04 1234 5678", "041234567a"} {
		if IsValidPhoneNumber(phone) {
			t.Errorf("IsValidPhoneNumber(%q) = true, want false", phone)
		}
	}
}

func TestIsStaffEmail(t *testing.T) {
	if !IsStaffEmail("prof@staff.unsw.edu.au") {
		t.Error("staff domain should match")
	}
	if IsStaffEmail("student@unsw.edu.au") {
		t.Error("student domain should not match")
	}
}
