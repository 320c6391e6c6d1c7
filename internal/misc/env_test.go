package misc

import (
	"reflect"
	"testing"
	"time"
)

func TestGetenv(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		val    string
		def    string
		expect string
	}{
		{"value present", "X_FOO", "bar", "zzz", "bar"},
		{"value empty -> default", "X_EMPTY", "", "defv", "defv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.val != "" {
				t.Setenv(tt.key, tt.val)
			} else {
				t.Setenv(tt.key, "")
			}
			got := Getenv(tt.key, tt.def)
			if got != tt.expect {
				t.Errorf("Getenv(%s) = %q, want %q", tt.key, got, tt.expect)
			}
		})
	}
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		val    string
		def    time.Duration
		expect time.Duration
	}{
		{"valid duration", "X_OK", "5s", 0, 5 * time.Second},
		{"bad format -> default", "X_BAD", "oops", 3 * time.Second, 3 * time.Second},
		{"empty -> default", "X_EMPTY", "", 7 * time.Second, 7 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.val != "" {
				t.Setenv(tt.key, tt.val)
			} else {
				t.Setenv(tt.key, "")
			}
			got := GetDuration(tt.key, tt.def)
			if got != tt.expect {
				t.Errorf("GetDuration(%s) = %v, want %v", tt.key, got, tt.expect)
			}
		})
	}
}

func TestGetDuration_SecondsAndNegative(t *testing.T) {
	t.Setenv("X_SECS", "15")
	if got := GetDuration("X_SECS", 0); got != 15*time.Second {
		t.Fatalf("seconds: got %v", got)
	}
	t.Setenv("X_NEG", "-3")
	if got := GetDuration("X_NEG", time.Second); got != 0 {
		t.Fatalf("negative: got %v want 0", got)
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name string
		val  string
		want int
	}{
		{"valid", "8", 8},
		{"below minimum", "0", 4},
		{"garbage", "many", 4},
		{"unset", "", 4},
		{"spaces", " 3 ", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("X_INT", tt.val)
			if got := GetInt("X_INT", 4, 1); got != tt.want {
				t.Fatalf("GetInt=%d want %d", got, tt.want)
			}
		})
	}
}

func TestGetBool(t *testing.T) {
	for val, want := range map[string]bool{"YES": true, "0": false, " t ": true, "maybe": true, "": true} {
		t.Setenv("X_BOOL", val)
		if got := GetBool("X_BOOL", true); got != want {
			t.Errorf("GetBool(%q)=%v want %v", val, got, want)
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{" , ,", nil},
		{"queue", []string{"queue"}},
		{"queue, user ,,region", []string{"queue", "user", "region"}},
	}
	for _, tc := range tests {
		if got := SplitList(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SplitList(%q) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
}
