package catalog

import (
	"errors"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	cases := []struct {
		subcategory string
		want        Category
		wantErr     bool
	}{
		{FrontExterior, CategoryExterior, false},
		{BackExterior, CategoryExterior, false},
		{"Kitchen", CategoryRoom, false},
		{"Basement: Gym", CategoryRoom, false},
		{"Garage", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := CategoryOf(tc.subcategory)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownSubcategory) {
				t.Errorf("CategoryOf(%q) err = %v, want ErrUnknownSubcategory", tc.subcategory, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("CategoryOf(%q) unexpected error: %v", tc.subcategory, err)
			continue
		}
		if got != tc.want {
			t.Errorf("CategoryOf(%q) = %q, want %q", tc.subcategory, got, tc.want)
		}
	}
}

func TestRoomsBasementGating(t *testing.T) {
	plain := Rooms("A two-story house with a garden")
	for _, room := range plain {
		if cat, _ := CategoryOf(room); cat != CategoryRoom {
			t.Errorf("Rooms returned non-room %q", room)
		}
		if HasBasement(room) {
			t.Errorf("basement room %q offered without a basement", room)
		}
	}

	withBasement := Rooms("Modern home with a finished BASEMENT")
	if len(withBasement) <= len(plain) {
		t.Fatalf("basement description should add rooms: %d vs %d", len(withBasement), len(plain))
	}
	found := false
	for _, room := range withBasement {
		if room == "Basement: Theater Room" {
			found = true
		}
	}
	if !found {
		t.Error("expected Basement: Theater Room in basement room list")
	}
}

func TestOptionsReturnsCopy(t *testing.T) {
	first := Options("Kitchen")
	if len(first) == 0 {
		t.Fatal("Kitchen should have options")
	}
	first[0].Values[0] = "mutated"
	second := Options("Kitchen")
	if second[0].Values[0] == "mutated" {
		t.Error("Options must not expose shared backing arrays")
	}
}

func TestValidateSelections(t *testing.T) {
	valid := map[string]string{}
	for _, opt := range Options("Living Room") {
		valid[opt.Name] = opt.Values[0]
		break
	}
	if err := ValidateSelections("Living Room", valid); err != nil {
		t.Errorf("valid selections rejected: %v", err)
	}

	if err := ValidateSelections("Living Room", map[string]string{"Jacuzzi": "yes"}); err == nil {
		t.Error("unknown option name should be rejected")
	}

	if err := ValidateSelections("Garage", nil); !errors.Is(err, ErrUnknownSubcategory) {
		t.Errorf("unknown subcategory err = %v, want ErrUnknownSubcategory", err)
	}
}

func TestExteriors(t *testing.T) {
	ext := Exteriors()
	if len(ext) != 2 || ext[0] != FrontExterior || ext[1] != BackExterior {
		t.Errorf("Exteriors() = %v", ext)
	}
}
