// Package sanitizer provides input normalization for appointment data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings rather than errors.
//
// Normalization includes:
//   - Free text (reasons, notes): Collapse whitespace, trim leading/trailing spaces
//   - Departments: Lowercase labels with special characters removed
//   - Identifiers: Trimmed, never case-folded
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
