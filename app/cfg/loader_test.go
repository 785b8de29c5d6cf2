package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestParseRetentionDays(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"30d", 30, false},
		{"12w", 84, false},
		{"6m", 180, false},
		{"1y", 365, false},
		{"45", 45, false},
		{"forever", -1, false},
		{"unlimited", -1, false},
		{"", -1, false},
		{"  90D ", 90, false},
		{"abc", 0, true},
		{"-5d", 0, true},
		{"3q", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseRetentionDays(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseRetentionDays(%q): expected error, got %d", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRetentionDays(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRetentionDays(%q): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestSetAndGet(t *testing.T) {
	old := globalCfg
	defer func() { globalCfg = old }()

	c := &Cfg{Port: "9090", MaxConcurrentRefreshes: 3}
	Set(c)

	if Get().Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", Get().Port)
	}
	if Get().MaxConcurrentRefreshes != 3 {
		t.Errorf("Expected max concurrent refreshes 3, got %d", Get().MaxConcurrentRefreshes)
	}
}
