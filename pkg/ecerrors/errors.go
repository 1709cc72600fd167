// Package ecerrors defines the structured error kinds shared across the
// ecsim engine. Call sites wrap a sentinel with fmt.Errorf("...: %w", ...)
// so callers can still recover the kind with errors.Is/errors.As.
package ecerrors

import "fmt"

// Sentinel error kinds, see spec section 7.
var (
	// ModulusMismatch is returned when arithmetic combines Mods of different moduli.
	ModulusMismatch = fmt.Errorf("modulus mismatch")
	// NonInvertible is returned when inverting a non-unit.
	NonInvertible = fmt.Errorf("element not invertible")
	// NonResidue is returned when taking sqrt/cube_root of a non-residue.
	NonResidue = fmt.Errorf("no such root exists")
	// NotImplementedForComposite is returned for residue tests on a composite modulus.
	NotImplementedForComposite = fmt.Errorf("not implemented for composite modulus")
	// InputMismatch is returned for a wrong number or coordinate model of formula/multiplier inputs.
	InputMismatch = fmt.Errorf("input mismatch")
	// MissingFormula is returned when a multiplier lacks a required formula kind.
	MissingFormula = fmt.Errorf("missing required formula")
	// Uninitialized is returned when multiply is called before init.
	Uninitialized = fmt.Errorf("multiplier not initialized")
	// BadConfiguration is returned for an invalid configuration value.
	BadConfiguration = fmt.Errorf("bad configuration")
)

// UnsatisfiedAssumptionError is raised when a formula assumption fails and
// cannot be satisfied by solving for a free parameter.
type UnsatisfiedAssumptionError struct {
	Msg string
}

func (e *UnsatisfiedAssumptionError) Error() string {
	return "unsatisfied assumption: " + e.Msg
}

// NewUnsatisfiedAssumption builds an UnsatisfiedAssumptionError with the given message.
func NewUnsatisfiedAssumption(msg string) error {
	return &UnsatisfiedAssumptionError{Msg: msg}
}

// MissingFormulaError names the formula kind (shortname) that was missing.
type MissingFormulaError struct {
	Kind string
}

func (e *MissingFormulaError) Error() string {
	return fmt.Sprintf("%s: missing formula kind %q", MissingFormula, e.Kind)
}

func (e *MissingFormulaError) Unwrap() error {
	return MissingFormula
}

// NewMissingFormula builds a MissingFormulaError for the given formula kind.
func NewMissingFormula(kind string) error {
	return &MissingFormulaError{Kind: kind}
}
