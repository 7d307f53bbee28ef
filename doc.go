// Package subgate provides a subscription billing and entitlement engine
// for Go applications.
//
// Subgate is designed as a library, not a service. The host owns the
// money movement and the caller identity; Subgate owns the catalog, the
// payment verification rules, the entitlement windows, and the
// append-only payment ledger. It provides:
//
//   - A plan catalog priced in any number of asset types
//   - Exact-amount payment verification with a fixed precondition order
//   - Per-(user, plan) entitlement windows that stack on timely renewal
//   - Append-only payment totals per asset and per (user, asset)
//   - An immutable receipt per verified payment
//   - Pluggable storage (memory, SQLite, PostgreSQL, MongoDB)
//   - Lifecycle plugins for metrics and audit trails
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/subgate"
//	    "github.com/xraph/subgate/store/sqlite"
//	)
//
//	store, err := sqlite.Open("subgate.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng := subgate.New(store,
//	    subgate.WithOwner("erd1owner..."),
//	    subgate.WithSender(mySender),
//	)
//
//	// Start the engine (runs store migrations)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// The owner manages the catalog and configuration:
//
//	ctx = subgate.WithCaller(ctx, owner)
//	eng.AddPlan(ctx, "monthly", 30*24*time.Hour)
//	eng.SetPrice(ctx, "monthly", "USDC", types.Units(100))
//	eng.SetPayoutAddress(ctx, treasury)
//	eng.SetEnabled(ctx, true)
//
// Users pay for plans; the engine verifies the payment against the
// configured price and grants (or extends) the entitlement window:
//
//	ctx = subgate.WithCaller(ctx, user)
//	receipt, err := eng.Pay(ctx, "monthly", payment.Incoming{
//	    Asset:  "USDC",
//	    Amount: types.Units(100),
//	})
//
// A renewal before the window lapses stacks: the new expiry is the old
// expiry plus the plan's validity, so no paid time is lost. A renewal
// after the window lapses resets the window from the payment time.
//
// # Amounts
//
// All amounts use arbitrary-precision decimal arithmetic. The Amount
// type is unitless; the Asset it denominates travels alongside it.
//
// # Receipts
//
// Every verified payment mints a receipt with a TypeID:
//
//	pay_01h2xcejqtf2nbrexx3vqjhp41
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package subgate
