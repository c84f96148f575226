// Package role defines the ordered role hierarchy used for access checks.
//
// Roles form a single total order (guest < customer < staff < manager <
// admin). A held role can access a requirement iff its rank is greater than
// or equal to the requirement's rank. There are no permission bits here;
// storefront access control is purely rank-based.
//
// # What this package must NOT do
//
//   - Consult session or user state (callers resolve the held role first).
//   - Grow dependencies; it stays leaf-level so every other package may
//     import it.
package role
