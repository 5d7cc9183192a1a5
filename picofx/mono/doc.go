// Package mono holds brightness effects for single-channel outputs.
package mono
