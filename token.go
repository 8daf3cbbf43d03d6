package keypager

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InitialTokenData is the resolved pagination configuration before any page
// has been fetched.
type InitialTokenData struct {
	Size      int       `json:"size"`
	SortBy    string    `json:"sortBy"`
	Direction Direction `json:"direction"`
	// CursorBy is the tie-break column. It is always unique and non-null for
	// the entity and may equal SortBy.
	CursorBy string `json:"cursorBy"`
}

// TokenData is the state carried by a continuation token: the resolved
// configuration, the sort/cursor values of the first row of the next page and
// the filter parameters of the original request.
//
// Numeric values decoded from a token are json.Number.
type TokenData[P any] struct {
	InitialTokenData

	SortValue    any `json:"sortValue"`
	CursorValue  any `json:"cursorValue"`
	FilterParams P   `json:"filterParams"`
}

// EncodeToken serializes data to JSON and seals it with codec.
func EncodeToken[P any](codec TokenCodec, data TokenData[P]) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("cannot marshal token data: %w", err)
	}

	token, err := codec.Seal(payload)
	if err != nil {
		return "", fmt.Errorf("cannot seal token data: %w", err)
	}

	return token, nil
}

// DecodeToken opens token with codec and deserializes the payload. Every
// failure wraps ErrDecode.
func DecodeToken[P any](codec TokenCodec, token string) (TokenData[P], error) {
	var ret TokenData[P]

	payload, err := codec.Open(token)
	if err != nil {
		return ret, err
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err = dec.Decode(&ret); err != nil {
		return TokenData[P]{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if dec.More() {
		return TokenData[P]{}, fmt.Errorf("%w: trailing data after token payload", ErrDecode)
	}

	return ret, nil
}
