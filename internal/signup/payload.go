// Package signup implements the stateless signup protocol: a signup
// request produces a signed verification link carrying all state needed
// to apply the subscription, and clicking the link applies that state to
// the durable list. The server stores nothing about a request before its
// link is verified.
package signup

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
)

// Request is the decoded form of a signup submission: one CSV record
// "email,fullname,tag*" carried base64url-encoded in the r parameter.
type Request struct {
	Email string
	Name  string
	Tags  []string
}

// Payload is the inner record of a verification token:
// "email,fullname,expiry,tag*". Expiry 0 means the token never expires.
type Payload struct {
	Email  string
	Name   string
	Expiry int64
	Tags   []string
}

func decodeBase64URL(s string) ([]byte, error) {
	// Tokens built here are unpadded, but hand-crafted clients may pad.
	if data, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

func parseRecord(encoded string) ([]string, error) {
	data, err := decodeBase64URL(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base64", ErrValidation)
	}
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	record, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: bad csv record", ErrValidation)
	}
	return record, nil
}

// validEmail applies a standard syntax check. The address must stand
// alone (no display-name form) and its domain must contain a dot.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	_, domain, _ := strings.Cut(addr.Address, "@")
	return strings.Contains(domain, ".")
}

// nonBlank filters out blank and whitespace-only tags.
func nonBlank(fields []string) []string {
	var tags []string
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			tags = append(tags, f)
		}
	}
	return tags
}

// DecodeRequest parses the r parameter. Fewer than two fields or a
// malformed email is a validation failure.
func DecodeRequest(encoded string) (Request, error) {
	record, err := parseRecord(encoded)
	if err != nil {
		return Request{}, err
	}
	if len(record) < 2 {
		return Request{}, fmt.Errorf("%w: need at least email and name", ErrValidation)
	}
	if !validEmail(record[0]) {
		return Request{}, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return Request{Email: record[0], Name: record[1], Tags: nonBlank(record[2:])}, nil
}

// Encode builds the canonical token payload: an always-quoted CSV record,
// base64url-encoded without padding. The encoded string is what gets
// signed, so its byte form must be deterministic.
func (p Payload) Encode() string {
	fields := append([]string{p.Email, p.Name, strconv.FormatInt(p.Expiry, 10)}, p.Tags...)
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	record := strings.Join(quoted, ",")
	return base64.RawURLEncoding.EncodeToString([]byte(record))
}

// DecodePayload parses a token's inner payload. Fewer than three fields
// or a non-numeric expiry is a validation failure.
func DecodePayload(encoded string) (Payload, error) {
	record, err := parseRecord(encoded)
	if err != nil {
		return Payload{}, err
	}
	if len(record) < 3 {
		return Payload{}, fmt.Errorf("%w: need email, name and expiry", ErrValidation)
	}
	expiry, err := strconv.ParseInt(record[2], 10, 64)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: non-numeric expiry", ErrValidation)
	}
	return Payload{Email: record[0], Name: record[1], Expiry: expiry, Tags: nonBlank(record[3:])}, nil
}
