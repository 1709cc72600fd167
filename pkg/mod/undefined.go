package mod

import (
	"fmt"
	"math/big"
)

// errUndefined is returned by every arithmetic operation on Undefined.
var errUndefined = fmt.Errorf("operation on Undefined")

// undefinedMod is the sentinel inhabitant for abstract/uninstantiated
// coordinates (e.g. the as-yet-unbound Z-coordinate of a formula's
// symbolic output before it has been assigned). Every arithmetic
// operation on it fails, per the spec.
type undefinedMod struct{}

// Undefined is the single Undefined instance.
var Undefined Mod = undefinedMod{}

func (undefinedMod) X() *big.Int { return nil }
func (undefinedMod) N() *big.Int { return nil }

func (undefinedMod) Add(Mod) (Mod, error)  { return nil, errUndefined }
func (undefinedMod) Sub(Mod) (Mod, error)  { return nil, errUndefined }
func (undefinedMod) Mul(Mod) (Mod, error)  { return nil, errUndefined }
func (undefinedMod) Div(Mod) (Mod, error)  { return nil, errUndefined }
func (undefinedMod) Neg() Mod              { return undefinedMod{} }
func (undefinedMod) Inverse() (Mod, error) { return nil, errUndefined }
func (undefinedMod) Pow(*big.Int) (Mod, error) {
	return nil, errUndefined
}
func (undefinedMod) Sqrt() (Mod, error)            { return nil, errUndefined }
func (undefinedMod) IsResidue() (bool, error)      { return false, errUndefined }
func (undefinedMod) CubeRoot() (Mod, error)         { return nil, errUndefined }
func (undefinedMod) IsCubicResidue() (bool, error)  { return false, errUndefined }
func (undefinedMod) BitLen() (int, error)           { return 0, errUndefined }
func (undefinedMod) Bytes() ([]byte, error)         { return nil, errUndefined }
func (undefinedMod) Equal(other Mod) bool           { return false }
func (undefinedMod) String() string                 { return "Undefined" }
