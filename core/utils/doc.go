// Package utils provides common utility functions for the commscivet application.
// It includes helpers for type conversion and the canonical text form that
// record values are compared by.
package utils
