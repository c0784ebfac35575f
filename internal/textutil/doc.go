// Package textutil sanitizes client-supplied names before they touch the
// filesystem.
package textutil
