package errors

import (
	"testing"
)

func TestValidateCountryName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Brazil", false},
		{"with space", "United States", false},
		{"with accent", "Côte d'Ivoire", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", string(make([]byte, 200)), true},
		{"path traversal", "../etc", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCountryName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCountryName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"csv", "data/filtered_df.csv", false},
		{"geojson", "map/world.geojson", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "data/../../secret", true},
		{"backslash", "data\\file.csv", true},
		{"null byte", "data\x00.csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/data", false},
		{"http", "http://localhost:8080", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateMetricKey(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"population", false},
		{"solar_share_elec", false},
		{"other_renewables_share_elec_exc_biofuel", false},
		{"", true},
		{"GDP", true},
		{"1gdp", true},
		{"gdp-per-capita", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateMetricKey(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMetricKey(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidMetric) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidMetric)
			}
		})
	}
}

func TestValidateYear(t *testing.T) {
	if err := ValidateYear(2015, 2010, 2020); err != nil {
		t.Errorf("ValidateYear(2015) = %v, want nil", err)
	}
	if err := ValidateYear(2009, 2010, 2020); !Is(err, ErrCodeInvalidYear) {
		t.Errorf("ValidateYear(2009) = %v, want %v", err, ErrCodeInvalidYear)
	}
	if err := ValidateYear(2021, 2010, 2020); err == nil {
		t.Error("ValidateYear(2021) = nil, want error")
	}
}
