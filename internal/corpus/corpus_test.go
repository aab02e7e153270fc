package corpus

import "testing"

func TestParseLocale(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"en-US", "en"},
		{"en-GB", "en"},
		{"zh-Hant-TW", "zh"},
		{"pt-BR", "pt"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ParseLocale(tt.code); got != tt.want {
				t.Errorf("ParseLocale(%q) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestSameLanguage_IgnoresRegionSubtags(t *testing.T) {
	if !SameLanguage(ParseLocale("en-US"), ParseLocale("en-GB")) {
		t.Error("en-US and en-GB should be the same language")
	}
	if SameLanguage(ParseLocale("en-US"), ParseLocale("de-DE")) {
		t.Error("en-US and de-DE should not be the same language")
	}
}

func TestLimitsWithDefaults(t *testing.T) {
	got := Limits{}.withDefaults()
	if got.MaxRecordBytes != DefaultMaxRecordBytes {
		t.Errorf("MaxRecordBytes = %d, want %d", got.MaxRecordBytes, DefaultMaxRecordBytes)
	}
	if got.MaxSkippedRecords != DefaultMaxSkippedRecords {
		t.Errorf("MaxSkippedRecords = %d, want %d", got.MaxSkippedRecords, DefaultMaxSkippedRecords)
	}
	if got.SkipInvalid {
		t.Error("SkipInvalid should default to false")
	}

	custom := Limits{MaxRecordBytes: 128, MaxSkippedRecords: 2, SkipInvalid: true}.withDefaults()
	if custom != (Limits{MaxRecordBytes: 128, MaxSkippedRecords: 2, SkipInvalid: true}) {
		t.Errorf("withDefaults changed explicit limits: %+v", custom)
	}
}
