// Package models defines the core domain models for Rentroll.
//
// # Models
//
//   - Building: a property managed by the single management account
//   - Room: a rentable unit inside a building
//   - Tenant: a renter occupying one room, billed rent + maintenance monthly
//   - Payment: one entry of a tenant's payment ledger
//   - Document: metadata for a file uploaded to the blob store
//   - User: the authenticated principal behind a session (management or tenant)
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships are expressed with ID strings
// 2. **Typed read models**: joins are returned as *View structs, never maps
// 3. **Money is decimal**: amounts use shopspring/decimal, never float64
// 4. **Dates are calendar dates**: stored and parsed with DateLayout, no time of day
//
// Occupancy (Room.IsOccupied) is a denormalized flag kept in sync by the
// tenant service when a tenant is created, vacated or deleted.
package models

// DateLayout is the layout used for calendar dates (paid-on, agreement dates).
const DateLayout = "2006-01-02"
