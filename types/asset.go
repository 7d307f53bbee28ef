package types

// Asset identifies a transferable value type accepted for payment.
// The zero value is not a valid asset; the host chain's native asset
// uses the NativeAsset identifier.
type Asset string

// NativeAsset is the identifier of the host's native asset.
const NativeAsset Asset = "native"

// String returns the asset identifier.
func (a Asset) String() string { return string(a) }

// IsNative returns true for the host's native asset.
func (a Asset) IsNative() bool { return a == NativeAsset }

// IsZero reports whether the asset identifier is unset.
func (a Asset) IsZero() bool { return a == "" }

// Address identifies an account able to send and receive transfers.
// Subgate treats addresses as opaque — validity is the host's concern.
type Address string

// String returns the address text.
func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }
