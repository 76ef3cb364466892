// Package report renders simulation results for people and for machines,
// and classifies simulation errors into status codes.
package report
