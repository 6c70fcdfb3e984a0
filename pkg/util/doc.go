// Package util provides common utility functions and data structures
//
// This package includes the generic set implementation used for resource
// bookkeeping and state transition tables
package util
