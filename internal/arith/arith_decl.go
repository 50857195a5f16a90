// Copyright 2010 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !purego

// WARNING: This file uses //go:linkname to access unexported functions from
// math/big. These functions are not part of Go's public API. math/big keeps
// them reachable for existing users (go.dev/issue/67401), but the signatures
// below must be reviewed against math/big after every Go upgrade. Build with
// -tags purego to fall back to the portable implementations.

package arith

import (
	"math/big"
	_ "unsafe" // Required for go:linkname
)

// addVV computes z = x + y element-wise and returns the carry.
//
//go:linkname addVV math/big.addVV
func addVV(z, x, y []big.Word) (c big.Word)

// subVV computes z = x - y element-wise and returns the borrow.
//
//go:linkname subVV math/big.subVV
func subVV(z, x, y []big.Word) (c big.Word)

// addVW computes z = x + y where y is a single word, and returns the carry.
//
//go:linkname addVW math/big.addVW
func addVW(z, x []big.Word, y big.Word) (c big.Word)

// subVW computes z = x - y where y is a single word, and returns the borrow.
//
//go:linkname subVW math/big.subVW
func subVW(z, x []big.Word, y big.Word) (c big.Word)

// mulAddVWW computes z = x*y + r element-wise and returns the carry.
//
//go:linkname mulAddVWW math/big.mulAddVWW
func mulAddVWW(z, x []big.Word, y, r big.Word) (c big.Word)

// addMulVVW computes z += x*y element-wise and returns the carry.
//
//go:linkname addMulVVW math/big.addMulVVW
func addMulVVW(z, x []big.Word, y big.Word) (c big.Word)
