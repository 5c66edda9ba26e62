package invoicing

import "github.com/xraph/invoicing/types"

// Re-export common types for convenience so users don't have to import the
// types package.

// Money is re-exported from the types package.
type Money = types.Money

// Entity is re-exported from the types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	Cents      = types.Cents
	Zero       = types.Zero
	ParseMoney = types.Parse
	Sum        = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
