//go:build purego

package arith

const pureGo = true
