package domain

import (
	"testing"
)

func TestRCode_IsValid(t *testing.T) {
	cases := []struct {
		code RCode
		want bool
	}{
		{0, true}, {4, true}, {5, true}, {15, true}, {16, false}, {255, false},
	}
	for _, tc := range cases {
		if got := tc.code.IsValid(); got != tc.want {
			t.Errorf("IsValid(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestRCode_String(t *testing.T) {
	cases := []struct {
		code RCode
		want string
	}{
		{0, "NOERROR"}, {1, "FORMERR"}, {2, "SERVFAIL"}, {3, "NXDOMAIN"}, {4, "NOTIMP"}, {5, "REFUSED"},
		{11, "RCODE11"}, {255, "RCODE255"},
	}
	for _, tc := range cases {
		if got := tc.code.String(); got != tc.want {
			t.Errorf("String(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
