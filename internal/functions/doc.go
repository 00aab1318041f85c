// Package functions holds the sample handlers deployed under cmd/lambda and
// served locally by lambdalocal, one per event family.
package functions
