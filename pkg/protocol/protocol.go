// Package protocol implements the higher-level cryptographic protocols
// built on top of a scalar multiplier and a curve's domain parameters:
// key generation, Diffie-Hellman key agreement, and ECDSA signing/
// verification. Ported from pyecsca's pyecsca/ec/key_generation.py,
// key_agreement.py and signature.py.
package protocol

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/asn1"
	"fmt"
	"hash"
	"math/big"

	"github.com/ecsim/ecsim/pkg/curve"
	"github.com/ecsim/ecsim/pkg/ecerrors"
	"github.com/ecsim/ecsim/pkg/formula"
	"github.com/ecsim/ecsim/pkg/mod"
	"github.com/ecsim/ecsim/pkg/mult"
)

// Keygen draws a uniformly random private scalar in [1, order) and
// computes the corresponding public point, using m — which must already
// be Init'd with the curve's generator. Ported from pyecsca's KeyGeneration.
func Keygen(ctx context.Context, m mult.ScalarMultiplier, params *curve.DomainParameters) (*big.Int, *curve.Point, error) {
	priv, err := randomNonZero(params.Order)
	if err != nil {
		return nil, nil, fmt.Errorf("protocol: keygen: %w", err)
	}
	pub, err := m.Multiply(ctx, priv)
	if err != nil {
		return nil, nil, fmt.Errorf("protocol: keygen: %w", err)
	}
	return priv, pub, nil
}

// randomNonZero draws a uniform value in [1, n).
func randomNonZero(n *big.Int) (*big.Int, error) {
	for {
		v, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, err
		}
		if v.Sign() != 0 {
			return v, nil
		}
	}
}

// ECDH performs non-interactive Diffie-Hellman: m must already be Init'd
// with the peer's public point. The shared secret is the big-endian
// encoding of the resulting affine x-coordinate, optionally hashed.
// Ported from pyecsca's KeyAgreement.perform.
func ECDH(ctx context.Context, m mult.ScalarMultiplier, priv *big.Int, field *big.Int, hashAlgo func() hash.Hash) ([]byte, error) {
	point, err := m.Multiply(ctx, priv)
	if err != nil {
		return nil, fmt.Errorf("protocol: ecdh: %w", err)
	}
	x, ok := point.Coords["x"]
	if !ok {
		return nil, fmt.Errorf("protocol: ecdh: %w: result has no affine x coordinate", ecerrors.InputMismatch)
	}
	n := (field.BitLen() + 7) / 8
	out := make([]byte, n)
	x.X().FillBytes(out)
	if hashAlgo == nil {
		return out, nil
	}
	h := hashAlgo()
	h.Write(out)
	return h.Sum(nil), nil
}

// Signature is an ECDSA (r, s) pair. Ported from pyecsca's SignatureResult.
type Signature struct {
	R, S *big.Int
}

type derSignature struct {
	R, S *big.Int
}

// ToDER encodes the signature as a DER SEQUENCE{r INTEGER, s INTEGER}.
func (s *Signature) ToDER() ([]byte, error) {
	return asn1.Marshal(derSignature{R: s.R, S: s.S})
}

// SignatureFromDER decodes a DER-encoded ECDSA signature.
func SignatureFromDER(data []byte) (*Signature, error) {
	var d derSignature
	if _, err := asn1.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("protocol: decoding signature: %w", err)
	}
	return &Signature{R: d.R, S: d.S}, nil
}

func (s *Signature) Equal(other *Signature) bool {
	return s.R.Cmp(other.R) == 0 && s.S.Cmp(other.S) == 0
}

func (s *Signature) String() string {
	return fmt.Sprintf("(r=%s, s=%s)", s.R, s.S)
}

// Signer binds everything ECDSA needs: a multiplier Init'd with the
// generator (for k*G and u1*G), a second multiplier Init'd with the
// public key (for u2*Q during verification), and the addition formula
// used to combine the two. Ported from pyecsca's Signature class, split
// into two multiplier bindings since Go's ScalarMultiplier carries a
// single bound point rather than accepting one per call.
type Signer struct {
	GenMult  mult.ScalarMultiplier
	PubMult  mult.ScalarMultiplier
	Add      *formula.Formula
	Params   *curve.DomainParameters
	PrivKey  *big.Int
	PubKey   *curve.Point
	Deterministic bool // use RFC 6979 nonces instead of crypto/rand
}

// Sign computes an ECDSA signature over digest (already hashed by the
// caller). Nonce generation is deterministic (RFC 6979) when
// s.Deterministic is set, otherwise drawn from crypto/rand.
func (s *Signer) Sign(ctx context.Context, digest []byte, hashFn func() hash.Hash) (*Signature, error) {
	if s.PrivKey == nil {
		return nil, fmt.Errorf("protocol: signer has no private key")
	}
	order := s.Params.Order
	var k *big.Int
	var err error
	if s.Deterministic {
		k = rfc6979Nonce(order, s.PrivKey, digest, hashFn)
	} else {
		k, err = randomNonZero(order)
		if err != nil {
			return nil, err
		}
	}
	return s.signWithNonce(ctx, k, digest)
}

func (s *Signer) signWithNonce(ctx context.Context, k *big.Int, digest []byte) (*Signature, error) {
	order := s.Params.Order
	point, err := s.GenMult.Multiply(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("protocol: sign: %w", err)
	}
	x, ok := point.Coords["x"]
	if !ok {
		return nil, fmt.Errorf("protocol: sign: %w: result has no affine x coordinate", ecerrors.InputMismatch)
	}
	r := new(big.Int).Mod(x.X(), order)
	if r.Sign() == 0 {
		return nil, fmt.Errorf("protocol: sign: nonce produced r=0")
	}

	kMod, err := mod.New(k, order)
	if err != nil {
		return nil, err
	}
	kInv, err := kMod.Inverse()
	if err != nil {
		return nil, err
	}
	e := hashToScalar(digest, order)
	rMod, err := mod.New(r, order)
	if err != nil {
		return nil, err
	}
	privMod, err := mod.New(new(big.Int).Mod(s.PrivKey, order), order)
	if err != nil {
		return nil, err
	}
	rPriv, err := rMod.Mul(privMod)
	if err != nil {
		return nil, err
	}
	eMod, err := mod.New(e, order)
	if err != nil {
		return nil, err
	}
	sum, err := eMod.Add(rPriv)
	if err != nil {
		return nil, err
	}
	sigS, err := kInv.Mul(sum)
	if err != nil {
		return nil, err
	}
	if sigS.X().Sign() == 0 {
		return nil, fmt.Errorf("protocol: sign: nonce produced s=0")
	}
	return &Signature{R: r, S: sigS.X()}, nil
}

// Verify checks sig over digest against s.PubKey, using GenMult for u1*G
// and PubMult for u2*Q. Ported from pyecsca's Signature._do_verify.
func (s *Signer) Verify(ctx context.Context, sig *Signature, digest []byte) (bool, error) {
	if s.PubKey == nil {
		return false, fmt.Errorf("protocol: verifier has no public key")
	}
	order := s.Params.Order
	if sig.R.Sign() <= 0 || sig.R.Cmp(order) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(order) >= 0 {
		return false, nil
	}
	sMod, err := mod.New(sig.S, order)
	if err != nil {
		return false, err
	}
	c, err := sMod.Inverse()
	if err != nil {
		return false, err
	}
	e := hashToScalar(digest, order)
	eMod, err := mod.New(e, order)
	if err != nil {
		return false, err
	}
	u1, err := eMod.Mul(c)
	if err != nil {
		return false, err
	}
	rMod, err := mod.New(sig.R, order)
	if err != nil {
		return false, err
	}
	u2, err := rMod.Mul(c)
	if err != nil {
		return false, err
	}

	p1, err := s.GenMult.Multiply(ctx, u1.X())
	if err != nil {
		return false, err
	}
	p2, err := s.PubMult.Multiply(ctx, u2.X())
	if err != nil {
		return false, err
	}
	p, _, err := s.Add.Execute(ctx, s.Params.Curve.Field, []*curve.Point{p1, p2}, s.Params.Curve.Parameters)
	if err != nil {
		return false, err
	}
	x, ok := p[0].Coords["x"]
	if !ok {
		return false, fmt.Errorf("protocol: verify: %w: result has no affine x coordinate", ecerrors.InputMismatch)
	}
	v := new(big.Int).Mod(x.X(), order)
	return v.Cmp(sig.R) == 0, nil
}

// hashToScalar reduces a digest into an element of Z/orderZ, truncating
// overlong digests the way FIPS 186 specifies.
func hashToScalar(digest []byte, order *big.Int) *big.Int {
	orderBits := order.BitLen()
	if digestBits := len(digest) * 8; digestBits > orderBits {
		digest = digest[:(orderBits+7)/8]
	}
	e := new(big.Int).SetBytes(digest)
	if excess := len(digest)*8 - orderBits; excess > 0 {
		e.Rsh(e, uint(excess))
	}
	return new(big.Int).Mod(e, order)
}

// rfc6979Nonce deterministically derives the ECDSA nonce from the private
// key and digest per RFC 6979 §3.2, built directly on crypto/hmac and the
// caller-supplied hash constructor (no vendored rfc6979 package appears
// anywhere in the example pack — see DESIGN.md).
func rfc6979Nonce(order, privKey *big.Int, digest []byte, hashFn func() hash.Hash) *big.Int {
	holen := hashFn().Size()
	rolen := (order.BitLen() + 7) / 8

	bx := append(int2octets(privKey, rolen), bits2octets(digest, order, rolen)...)

	v := bytesRepeat(0x01, holen)
	k := bytesRepeat(0x00, holen)

	k = hmacSum(hashFn, k, append(append(append([]byte{}, v...), 0x00), bx...))
	v = hmacSum(hashFn, k, v)
	k = hmacSum(hashFn, k, append(append(append([]byte{}, v...), 0x01), bx...))
	v = hmacSum(hashFn, k, v)

	for {
		var t []byte
		for len(t) < rolen {
			v = hmacSum(hashFn, k, v)
			t = append(t, v...)
		}
		cand := bits2int(t, order.BitLen())
		if cand.Sign() != 0 && cand.Cmp(order) < 0 {
			return cand
		}
		k = hmacSum(hashFn, k, append(append([]byte{}, v...), 0x00))
		v = hmacSum(hashFn, k, v)
	}
}

func hmacSum(hashFn func() hash.Hash, key, msg []byte) []byte {
	mac := hmac.New(hashFn, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func bytesRepeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func bits2int(b []byte, qlen int) *big.Int {
	x := new(big.Int).SetBytes(b)
	if excess := len(b)*8 - qlen; excess > 0 {
		x.Rsh(x, uint(excess))
	}
	return x
}

func int2octets(x *big.Int, rolen int) []byte {
	out := make([]byte, rolen)
	x.FillBytes(out)
	return out
}

func bits2octets(b []byte, order *big.Int, rolen int) []byte {
	z1 := bits2int(b, order.BitLen())
	z2 := new(big.Int).Mod(z1, order)
	return int2octets(z2, rolen)
}
