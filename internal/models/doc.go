// Package models defines the core domain models for splitledger.
//
// # Models
//
//   - User: an account known to the identity provider, synced on first use
//   - Group: a set of members sharing expenses in one currency
//   - Expense: a payment made by one member on behalf of several
//   - ExpenseSplit: one participant's share of an expense
//   - Settlement: a payment between two members that reduces a debt
//
// Balances are not modelled here: they are a projection computed by the
// calculator package from expenses and settlements.
//
// # Design Principles
//
//  1. Money is always money.Money (integer minor units), never float64
//  2. Enumerations are closed int types with explicit text encodings
//  3. Relationships use ID strings instead of pointers
//  4. Timestamps are Unix seconds
package models
