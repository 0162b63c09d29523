package nft

import (
	"encoding/binary"
	"fmt"
	"strings"

	"lukechampine.com/blake3"

	"passage/core/types"
)

// Attribute is a mutable key/value metadata entry.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Token is the stored record of a minted NFT. URI and MetadataHash are fixed
// at mint; Owner and Attributes change over the token's life.
type Token struct {
	Collection   types.Address `json:"collection"`
	ID           uint64        `json:"id"`
	Owner        types.Address `json:"owner"`
	URI          string        `json:"uri"`
	MetadataHash [32]byte      `json:"metadataHash"`
	Attributes   []Attribute   `json:"attributes"`
	MintedAt     uint64        `json:"mintedAt"`
}

// Clone returns a deep copy.
func (t *Token) Clone() *Token {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Attributes = append([]Attribute(nil), t.Attributes...)
	return &clone
}

// Collection describes the token contract itself.
type Collection struct {
	Address types.Address `json:"address"`
	Name    string        `json:"name" yaml:"name"`
	Symbol  string        `json:"symbol" yaml:"symbol"`
	Creator types.Address `json:"creator" yaml:"creator"`
	BaseURI string        `json:"baseUri" yaml:"base_uri"`
}

// Validate requires a name and symbol.
func (c Collection) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("nft: collection name required")
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("nft: collection symbol required")
	}
	return nil
}

// TokenURI derives the default URI of id from the base URI.
func (c Collection) TokenURI(id uint64) string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURI), "/")
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/%d", base, id)
}

// MetadataHash binds a token's immutable metadata: blake3(collection || id || uri).
func MetadataHash(collection types.Address, id uint64, uri string) [32]byte {
	buf := make([]byte, 0, len(collection)+8+len(uri))
	buf = append(buf, collection[:]...)
	buf = binary.BigEndian.AppendUint64(buf, id)
	buf = append(buf, uri...)
	return blake3.Sum256(buf)
}

// ValidateAttributes rejects empty or duplicate keys.
func ValidateAttributes(attrs []Attribute) error {
	seen := make(map[string]struct{}, len(attrs))
	for _, attr := range attrs {
		key := strings.TrimSpace(attr.Key)
		if key == "" {
			return fmt.Errorf("nft: attribute key required")
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("nft: duplicate attribute %q", key)
		}
		seen[key] = struct{}{}
	}
	return nil
}
