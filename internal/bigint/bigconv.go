package bigint

import "math/big"

// ToBig returns x as a new *big.Int that shares no memory with x.
func ToBig(x Int) *big.Int {
	z := new(big.Int).SetBits(x.Words())
	if x.neg {
		z.Neg(z)
	}
	return z
}

// FromBig returns the value of z. It copies the limbs, so z may be reused.
func FromBig(z *big.Int) Int {
	src := z.Bits()
	if len(src) == 0 {
		return Int{}
	}
	mag := make([]big.Word, len(src))
	copy(mag, src)
	return makeInt(z.Sign() < 0, mag)
}

// bigView returns a *big.Int aliasing the limbs of x. The result must only
// be used as a read-only operand.
func bigView(x Int) *big.Int {
	z := new(big.Int).SetBits(x.mag[:len(x.mag):len(x.mag)])
	if x.neg {
		z.Neg(z)
	}
	return z
}

// fromBigOwned takes ownership of the limbs of a freshly computed z.
func fromBigOwned(z *big.Int) Int {
	return makeInt(z.Sign() < 0, z.Bits())
}

// Bytes returns the absolute value of x as a big-endian byte slice with no
// leading zero bytes. Bytes of 0 is empty.
func (x Int) Bytes() []byte {
	return bigView(x).Bytes()
}

// FromBytes interprets buf as the bytes of a big-endian unsigned integer.
func FromBytes(buf []byte) Int {
	return fromBigOwned(new(big.Int).SetBytes(buf))
}
