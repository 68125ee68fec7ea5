package config_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/adamwoolhether/ecoalbridge/config"
)

func TestParseMappings(t *testing.T) {
	tests := map[string]struct {
		in   string
		want []config.CustomMapping
	}{
		"empty": {
			in: "",
		},
		"single": {
			in: `1@t1_value="Floor heating"`,
			want: []config.CustomMapping{
				{ID: "1@t1_value", VID: "1", TID: "t1_value", Name: "Floor heating", SafeID: "1_t1_value"},
			},
		},
		"several with spacing and trailing separator": {
			in: ` 1@t1_value="Floor" ; 2@t2_value=Garage;`,
			want: []config.CustomMapping{
				{ID: "1@t1_value", VID: "1", TID: "t1_value", Name: "Floor", SafeID: "1_t1_value"},
				{ID: "2@t2_value", VID: "2", TID: "t2_value", Name: "Garage", SafeID: "2_t2_value"},
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := config.ParseMappings(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("mappings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMappings_Invalid(t *testing.T) {
	tests := map[string]string{
		"no equals":  `1@t1_value`,
		"no at":      `t1_value="Floor"`,
		"empty vid":  `@t1_value="Floor"`,
		"empty tid":  `1@="Floor"`,
		"second bad": `1@t1_value="Floor";junk`,
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := config.ParseMappings(in); err == nil {
				t.Errorf("expected error for %q", in)
			}
		})
	}
}

func TestConfig_Mappings(t *testing.T) {
	cfg := config.Config{
		TempMappings:  `1@t1_value="Floor"`,
		VTempMappings: `3@vtemp="Virtual"`,
	}

	got, err := cfg.Mappings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"1_t1_value", "3_vtemp"}
	if len(got) != len(want) {
		t.Fatalf("got %d mappings, want %d", len(got), len(want))
	}
	for i, m := range got {
		if m.SafeID != want[i] {
			t.Errorf("mapping %d safe id = %q, want %q", i, m.SafeID, want[i])
		}
	}

	bad := config.Config{VTempMappings: "oops"}
	if _, err := bad.Mappings(); err == nil {
		t.Error("expected error for malformed vtempMappings")
	}
}
