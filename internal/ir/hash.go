package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for structural identity.
// The version suffix leaves room for a future algorithm migration.
const (
	DomainOperation  = "qwire/operation/v1"
	DomainSignature  = "qwire/signature/v1"
	DomainGraph      = "qwire/graph/v1"
	DomainDefinition = "qwire/definition/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// OperationKey computes the structural identity of an operation from its
// kind and constructor parameters. Two operations with equal keys are
// interchangeable everywhere, including in the cost cache.
func OperationKey(kind string, params IRObject) (string, error) {
	if params == nil {
		params = IRObject{}
	}
	obj := IRObject{
		"kind":   IRString(kind),
		"params": params,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("OperationKey %s: failed to marshal: %w", kind, err)
	}
	return hashWithDomain(DomainOperation, canonical), nil
}

// MustOperationKey is like OperationKey but panics on error.
// Parameters built from IR constructors never fail to marshal.
func MustOperationKey(kind string, params IRObject) string {
	key, err := OperationKey(kind, params)
	if err != nil {
		panic(err)
	}
	return key
}

// SignatureKey computes the structural identity of a signature.
// Port order is significant here; use Signature.Equal for the
// order-insensitive comparison.
func SignatureKey(sig Signature) (string, error) {
	canonical, err := MarshalCanonical(sig.Object())
	if err != nil {
		return "", fmt.Errorf("SignatureKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSignature, canonical), nil
}

// GraphKey hashes an already-assembled graph description.
func GraphKey(desc IRObject) (string, error) {
	canonical, err := MarshalCanonical(desc)
	if err != nil {
		return "", fmt.Errorf("GraphKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainGraph, canonical), nil
}

// DefinitionKey hashes the source of a compiled definition.
func DefinitionKey(src IRValue) (string, error) {
	canonical, err := MarshalCanonical(src)
	if err != nil {
		return "", fmt.Errorf("DefinitionKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDefinition, canonical), nil
}

// ShortKey abbreviates a key for log lines and reports.
func ShortKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	return key[:12]
}
