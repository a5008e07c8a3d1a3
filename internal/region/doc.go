// Package region provides named composition slots into which controls are
// placed at runtime.
//
// A Region is bound to exactly one host. Hosts come in two kinds:
//
//   - ContentHost shows a single control at a time. Adding a control replaces
//     the previous one.
//   - ListHost shows an ordered list of controls. Adding a control appends it.
//
// The Registry owns the name → Region mapping and a table of views registered
// before their region exists. When a host is associated with a region name the
// pending views are replayed in registration order:
//
//	reg := region.NewRegistry()
//	region.RegisterView[CustomerList](reg, "Sales")
//	region.RegisterView[CustomerDetail](reg, "sales")
//
//	// Adds CustomerList, then CustomerDetail.
//	r, err := reg.AssociateRegion(host, "SALES")
//
// # Tokens
//
// Every Add returns a ControlToken. Tokens are issued from a per-region
// counter that never goes backwards, so a token that has been removed or
// replaced can never become valid again. Removing with a stale token is a
// no-op.
//
// Region names are case-insensitive and stored in lowercase.
package region
