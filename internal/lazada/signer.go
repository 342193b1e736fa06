package lazada

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Signature methods accepted by the Lazada Open Platform. The general API
// family accepts either; the auth-token family is always signed with sha256.
const (
	SignMethodMD5    = "md5"
	SignMethodSHA256 = "sha256"
)

// concatParams renders params as key immediately followed by value, pairs
// ordered lexicographically by key with no separators. This is the base
// string both signing variants hash over.
func concatParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}
	return b.String()
}

// SignMD5 computes the legacy secret-wrapped signature:
// MD5(secret + concat + secret), rendered as uppercase hex.
func SignMD5(params map[string]string, secret string) string {
	sum := md5.Sum([]byte(secret + concatParams(params) + secret))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// SignHMACSHA256 computes the current platform signature:
// HMAC-SHA256(secret, apiPath + concat), rendered as uppercase hex.
// apiPath is the API name path, e.g. "/product/stock/update".
func SignHMACSHA256(apiPath string, params map[string]string, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(apiPath))
	mac.Write([]byte(concatParams(params)))
	return strings.ToUpper(hex.EncodeToString(mac.Sum(nil)))
}
