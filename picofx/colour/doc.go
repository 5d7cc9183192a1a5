// Package colour holds effects for RGB outputs.
package colour
