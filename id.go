package subgate

import "github.com/xraph/subgate/id"

// ID is the identifier type for minted Subgate entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
