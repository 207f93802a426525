// File: internal/infra/adapters/payment/signature.go
package payment

import (
	"crypto/hmac"
	"hash"
	"net/url"
	"sort"
	"strings"

	"encoding/hex"
)

// escapeMode states how parameter values enter the canonical string. MoMo
// signs raw values; VNPay signs query-escaped values (space becomes '+').
type escapeMode int

const (
	escapeNone escapeMode = iota
	escapeQuery
)

// canonicalize builds the provider canonical string: the signature parameter
// itself is removed, remaining keys are sorted byte-ascending and joined as
// key=value pairs with '&'.
//
// dropEmpty is a per-provider quirk, not a unifiable rule: VNPay excludes
// empty-valued fields from callback signatures, MoMo signs them (an empty
// extraData still participates in the digest).
func canonicalize(params map[string]string, sigKey string, esc escapeMode, dropEmpty bool) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if k == sigKey {
			continue
		}
		if dropEmpty && strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		if esc == escapeQuery {
			sb.WriteString(url.QueryEscape(params[k]))
		} else {
			sb.WriteString(params[k])
		}
	}
	return sb.String()
}

// signPayload returns the lowercase hex keyed digest of a canonical string.
func signPayload(secret, payload string, newHash func() hash.Hash) string {
	mac := hmac.New(newHash, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyPayload recomputes the signature over params and compares it to the
// candidate in constant time. Candidates arrive in either case depending on
// the provider, so the comparison is case-insensitive.
func verifyPayload(secret string, params map[string]string, sigKey, candidate string, newHash func() hash.Hash, esc escapeMode, dropEmpty bool) bool {
	if candidate == "" {
		return false
	}
	expected := signPayload(secret, canonicalize(params, sigKey, esc, dropEmpty), newHash)
	return hmac.Equal([]byte(strings.ToLower(candidate)), []byte(expected))
}
