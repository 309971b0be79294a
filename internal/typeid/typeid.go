package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixStroke  = "stroke"
	PrefixText    = "text"
	PrefixElement = "el"
	PrefixGroup   = "grp"
	PrefixUser    = "user"
	PrefixClient  = "client"
	PrefixAsset   = "asset"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewStrokeID() string  { return New(PrefixStroke) }
func NewTextID() string    { return New(PrefixText) }
func NewElementID() string { return New(PrefixElement) }
func NewGroupID() string   { return New(PrefixGroup) }
func NewUserID() string    { return New(PrefixUser) }
func NewClientID() string  { return New(PrefixClient) }
func NewAssetID() string   { return New(PrefixAsset) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}

// HasPrefix reports whether id parses as a typeid with the given prefix.
func HasPrefix(id, prefix string) bool {
	return Validate(id, prefix) == nil
}
