// Package gates is the leaf gate library: Pauli, Clifford, T, rotation and
// Toffoli gates, state preparations and effects, and measurement.
//
// Every gate declares its leaf cost through cost.ClassCost. Gates that are
// their own inverse return themselves from Adjoint; S, T and Rz flip a
// flag. X, CNOT and Z have specialized singly controlled versions (CNOT,
// Toffoli and CZ), so control threading never wraps them generically.
package gates
