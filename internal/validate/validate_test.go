package validate

import "testing"

func TestPhone(t *testing.T) {
	got, err := Phone("0412 345 678")
	if err != nil || got != "+61412345678" {
		t.Fatalf("Phone = %q, %v", got, err)
	}
	if got, err := Phone(""); err != nil || got != "" {
		t.Fatalf("empty phone = %q, %v", got, err)
	}
	if _, err := Phone("12"); err != ErrPhone {
		t.Fatalf("want ErrPhone, got %v", err)
	}
}

func TestStruct(t *testing.T) {
	type in struct {
		Name  string  `validate:"required,max=10"`
		Price float64 `validate:"gte=0"`
	}
	if errs := Struct(in{Name: "ok", Price: 1}); errs != nil {
		t.Fatalf("unexpected errors %v", errs)
	}
	errs := Struct(in{Price: -1})
	if errs["Name"] != "required" || errs["Price"] != "gte" {
		t.Fatalf("errs = %v", errs)
	}
}

func TestUsernameAndCategory(t *testing.T) {
	if _, ok := Username("al"); ok {
		t.Fatal("2-char username accepted")
	}
	if _, ok := Username("alice.smith"); !ok {
		t.Fatal("dotted username rejected")
	}
	if _, ok := Category("Retro Consoles (Used)"); !ok {
		t.Fatal("category with parentheses rejected")
	}
	if _, ok := Category("bad/name"); ok {
		t.Fatal("slash accepted in a worksheet title")
	}
}

func TestQ(t *testing.T) {
	if q, ok := Q("  GBC-001 "); !ok || q != "GBC-001" {
		t.Fatalf("Q = %q %v", q, ok)
	}
	if _, ok := Q("<script>"); ok {
		t.Fatal("markup accepted")
	}
}
