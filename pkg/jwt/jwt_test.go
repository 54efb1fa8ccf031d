package jwt

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
)

func TestGenerateAndParse(t *testing.T) {
	ctx := context.Background()
	token, err := Generate(ctx, "web-gateway", "s3cret")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	userID, err := ParseUserID(ctx, token, "s3cret")
	if err != nil {
		t.Fatalf("ParseUserID: %v", err)
	}
	if userID != "web-gateway" {
		t.Errorf("userID = %q", userID)
	}
}

func TestParseUserIDWrongSecret(t *testing.T) {
	ctx := context.Background()
	token, err := Generate(ctx, "u1", "right")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := ParseUserID(ctx, token, "wrong"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseUserIDGarbage(t *testing.T) {
	if _, err := ParseUserID(context.Background(), "not-a-jwt", "k"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestParseTokenFromHeader(t *testing.T) {
	cases := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer  abc ", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"Bearer ", "", true},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if c.header != "" {
			r.Header.Set("Authorization", c.header)
		}
		got, err := ParseTokenFromHeader(r)
		if (err != nil) != c.wantErr {
			t.Errorf("%q: err = %v", c.header, err)
			continue
		}
		if got != c.want {
			t.Errorf("%q: token = %q, want %q", c.header, got, c.want)
		}
	}
}
