package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ClientID is the external identifier of a fleet client: the prefix "m-"
// followed by 16 lowercase hex digits. Every table keys clients by the
// decoded uint64 form; the codec between the two is total and injective.
type ClientID string

// clientIDPrefix is the fixed prefix of the external form.
const clientIDPrefix = "m-"

// ErrInvalidClientID reports an identifier that does not parse.
var ErrInvalidClientID = errors.New("invalid client ID")

// ParseClientID validates the external form and returns it as a ClientID.
func ParseClientID(s string) (ClientID, error) {
	id := ClientID(s)
	if _, err := id.Key(); err != nil {
		return "", err
	}
	return id, nil
}

// NewClientID returns a fresh identifier derived from a random UUID.
func NewClientID() ClientID {
	u := uuid.New()
	return ClientIDFromKey(binary.BigEndian.Uint64(u[:8]))
}

// ClientIDFromKey converts the compact internal key back to the external
// form.
func ClientIDFromKey(key uint64) ClientID {
	return ClientID(fmt.Sprintf("%s%016x", clientIDPrefix, key))
}

// Key converts the external form to the compact internal key used in all
// tables. Returns ErrInvalidClientID if the identifier is malformed.
func (id ClientID) Key() (uint64, error) {
	s := string(id)
	if !strings.HasPrefix(s, clientIDPrefix) || len(s) != len(clientIDPrefix)+16 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClientID, s)
	}
	hex := s[len(clientIDPrefix):]
	if strings.ToLower(hex) != hex {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClientID, s)
	}
	key, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClientID, s)
	}
	return key, nil
}

// String returns the external form.
func (id ClientID) String() string {
	return string(id)
}
