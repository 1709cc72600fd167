package mult

import "math/big"

// WNAF computes the width-w non-adjacent form of k: a slice of digits,
// MSB first, each 0 or odd in (-2^(w-1), 2^(w-1)), such that at most one
// in every w consecutive digits is nonzero. Ported from pyecsca's wnaf
// (pyecsca/ec/scalar.py, originally ec/naf.py).
func WNAF(k *big.Int, w uint) []int {
	halfWidth := int64(1) << (w - 1)
	fullWidth := halfWidth * 2

	mods := func(val *big.Int) int64 {
		m := new(big.Int).Mod(val, big.NewInt(fullWidth)).Int64()
		if m > halfWidth {
			m -= fullWidth
		}
		return m
	}

	var result []int
	rem := new(big.Int).Set(k)
	for rem.Sign() >= 1 {
		if rem.Bit(0) == 1 {
			kval := mods(rem)
			result = append([]int{int(kval)}, result...)
			rem.Sub(rem, big.NewInt(kval))
		} else {
			result = append([]int{0}, result...)
		}
		rem.Rsh(rem, 1)
	}
	return result
}

// NAF computes the (width-2) non-adjacent form of k.
func NAF(k *big.Int) []int {
	return WNAF(k, 2)
}

// ConvertBase expands k into base-b digits, little-endian (least
// significant digit first). Ported from pyecsca's convert_base
// (pyecsca/ec/scalar.py), used by the comb/BGMW/fixed-window multipliers
// to recode a scalar into base 2^width.
func ConvertBase(k *big.Int, base int64) []int64 {
	if k.Sign() == 0 {
		return []int64{0}
	}
	b := big.NewInt(base)
	rem := new(big.Int).Set(k)
	mod := new(big.Int)
	var digits []int64
	for rem.Sign() != 0 {
		rem.QuoRem(rem, b, mod)
		digits = append(digits, mod.Int64())
	}
	return digits
}

// SlidingWindowLTR computes the sliding-window left-to-right recoding of
// k with window width w: MSB-first digits, each 0 or the odd value of the
// widest window (up to w bits) that starts at the current bit. Ported
// from pyecsca's sliding_window_ltr (pyecsca/ec/scalar.py).
func SlidingWindowLTR(k *big.Int, w uint) []int {
	var result []int
	b := k.BitLen() - 1
	bit := func(i int) uint {
		if i < 0 {
			return 0
		}
		return k.Bit(i)
	}
	for b >= 0 {
		if bit(b) == 0 {
			result = append(result, 0)
			b--
			continue
		}
		u := int64(0)
		for v := 1; v <= int(w); v++ {
			if b+1 < v {
				break
			}
			c := int64(0)
			for j := 0; j < v; j++ {
				c |= int64(bit(b-v+1+j)) << uint(j)
			}
			if c&1 == 1 {
				u = c
			}
		}
		kBits := bitLen64(u)
		for i := 0; i < kBits-1; i++ {
			result = append(result, 0)
		}
		result = append(result, int(u))
		b -= kBits
	}
	return dropLeadingZeros(result)
}

// SlidingWindowRTL computes the sliding-window right-to-left recoding of
// k with window width w. Ported from pyecsca's sliding_window_rtl
// (pyecsca/ec/scalar.py).
func SlidingWindowRTL(k *big.Int, w uint) []int {
	var result []int
	rem := new(big.Int).Set(k)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), w), big.NewInt(1))
	for rem.Sign() >= 1 {
		if rem.Bit(0) == 0 {
			result = append([]int{0}, result...)
			rem.Rsh(rem, 1)
			continue
		}
		window := new(big.Int).And(rem, mask).Int64()
		padded := make([]int, w-1, w)
		padded = append(padded, int(window))
		result = append(padded, result...)
		rem.Rsh(rem, w)
	}
	return dropLeadingZeros(result)
}

func bitLen64(v int64) int {
	n := 0
	for v > 0 {
		v >>= 1
		n++
	}
	return n
}

func dropLeadingZeros(digits []int) []int {
	i := 0
	for i < len(digits) && digits[i] == 0 {
		i++
	}
	return digits[i:]
}
