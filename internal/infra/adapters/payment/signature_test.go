//go:build !integration

package payment

import (
	"crypto/sha256"
	"crypto/sha512"
	"strings"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	params := map[string]string{
		"b":         "2",
		"a":         "1",
		"signature": "should-be-dropped",
		"empty":     "",
		"space":     "x y",
	}

	t.Run("sorts keys and drops the signature parameter", func(t *testing.T) {
		got := canonicalize(params, "signature", escapeNone, false)
		want := "a=1&b=2&empty=&space=x y"
		if got != want {
			t.Errorf("canonicalize = %q, want %q", got, want)
		}
	})

	t.Run("query escaping uses plus for space", func(t *testing.T) {
		got := canonicalize(params, "signature", escapeQuery, false)
		want := "a=1&b=2&empty=&space=x+y"
		if got != want {
			t.Errorf("canonicalize = %q, want %q", got, want)
		}
	})

	t.Run("dropEmpty removes empty-valued fields", func(t *testing.T) {
		got := canonicalize(params, "signature", escapeQuery, true)
		if strings.Contains(got, "empty") {
			t.Errorf("empty field survived: %q", got)
		}
	})
}

func TestSignAndVerify(t *testing.T) {
	secret := "s3cret"
	params := map[string]string{"amount": "450000", "orderId": "GYM-1"}

	t.Run("verify accepts a freshly computed signature", func(t *testing.T) {
		sig := signPayload(secret, canonicalize(params, "sig", escapeNone, false), sha256.New)
		if !verifyPayload(secret, params, "sig", sig, sha256.New, escapeNone, false) {
			t.Error("expected valid signature to verify")
		}
	})

	t.Run("verify is case-insensitive on the candidate", func(t *testing.T) {
		sig := signPayload(secret, canonicalize(params, "sig", escapeQuery, true), sha512.New)
		if !verifyPayload(secret, params, "sig", strings.ToUpper(sig), sha512.New, escapeQuery, true) {
			t.Error("expected uppercase candidate to verify")
		}
	})

	t.Run("verify rejects a tampered parameter", func(t *testing.T) {
		sig := signPayload(secret, canonicalize(params, "sig", escapeNone, false), sha256.New)
		tampered := map[string]string{"amount": "450001", "orderId": "GYM-1"}
		if verifyPayload(secret, tampered, "sig", sig, sha256.New, escapeNone, false) {
			t.Error("expected tampered payload to fail verification")
		}
	})

	t.Run("verify rejects the wrong secret", func(t *testing.T) {
		sig := signPayload(secret, canonicalize(params, "sig", escapeNone, false), sha256.New)
		if verifyPayload("other", params, "sig", sig, sha256.New, escapeNone, false) {
			t.Error("expected wrong secret to fail verification")
		}
	})

	t.Run("verify rejects an empty candidate", func(t *testing.T) {
		if verifyPayload(secret, params, "sig", "", sha256.New, escapeNone, false) {
			t.Error("expected empty candidate to fail verification")
		}
	})
}
