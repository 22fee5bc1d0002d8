package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// EncodeEntryToken creates a base64 encoded keyset token pointing after entryID in
// accountCode's history. The account code is embedded so a token cannot be replayed
// against another account.
func EncodeEntryToken(accountCode string, entryID int64) string {
	return EncodeMultiFieldToken(accountCode, strconv.FormatInt(entryID, 10))
}

// DecodeEntryToken parses a token produced by EncodeEntryToken and checks it belongs to accountCode.
func DecodeEntryToken(accountCode, token string) (int64, error) {
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid pagination token format (split)")
	}
	// Codes may themselves contain the separator; the entry ID is always last.
	last := len(parts) - 1
	if issuedFor := strings.Join(parts[:last], "|"); issuedFor != accountCode {
		return 0, fmt.Errorf("invalid pagination token (issued for account %q)", issuedFor)
	}
	entryID, err := strconv.ParseInt(parts[last], 10, 64)
	if err != nil || entryID < 0 {
		return 0, fmt.Errorf("invalid pagination token format (entry id parse): %q", parts[last])
	}
	return entryID, nil
}

// EncodeMultiFieldToken creates a token with any number of string fields
func EncodeMultiFieldToken(fields ...string) string {
	tokenStr := strings.Join(fields, "|")
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeMultiFieldToken decodes a token into its component fields
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	return strings.Split(string(decodedBytes), "|"), nil
}
