package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignatureDomain is the domain separation prefix for declaration
// signatures. Format: SHA256(domain + 0x00 + canonical JSON). The version
// suffix enables future field-set migration.
const SignatureDomain = "canon/declaration/v1"

// SignatureLength is the number of hex characters in a signature.
const SignatureLength = 16

// Signature computes the short deterministic fingerprint of a
// declaration's semantically relevant fields: title, forms (id, kind,
// params, orientation, symmetry, curvature, iteration depth, truncated),
// relations (kind, a, b, params), traces (id, kind, closure status, void
// type, params), and epsilon.
//
// Notes, meaning tags, metadata, constraints and test requests are
// deliberately excluded: they never change what gets realized. Two
// structurally identical declarations produce the same signature
// regardless of construction order, because canonical JSON sorts all
// object keys.
func Signature(d *Declaration) (string, error) {
	obj := signatureObject(d)
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("signature: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(SignatureDomain))
	h.Write([]byte{0x00}) // null separator prevents domain/data ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil))[:SignatureLength], nil
}

// signatureObject builds the canonical field subset hashed by Signature.
func signatureObject(d *Declaration) Object {
	forms := make(Array, len(d.Forms))
	for i, f := range d.Forms {
		obj := Object{
			"id":        String(f.ID),
			"kind":      String(f.Kind),
			"params":    normalizeParams(f.Params),
			"truncated": Bool(f.Truncated),
		}
		if f.Orientation != "" {
			obj["orientation"] = String(f.Orientation)
		}
		if f.SymmetryClass != "" {
			obj["symmetry_class"] = String(f.SymmetryClass)
		}
		if f.CurvatureClass != "" {
			obj["curvature_class"] = String(f.CurvatureClass)
		}
		if f.IterationDepth != nil {
			obj["iteration_depth"] = Int(*f.IterationDepth)
		}
		forms[i] = obj
	}

	relations := make(Array, len(d.Relations))
	for i, r := range d.Relations {
		relations[i] = Object{
			"kind":   String(r.Kind),
			"a":      String(r.A),
			"b":      String(r.B),
			"params": normalizeParams(r.Params),
		}
	}

	traces := make(Array, len(d.Traces))
	for i, t := range d.Traces {
		traces[i] = Object{
			"id":             String(t.ID),
			"kind":           String(t.Kind),
			"closure_status": String(t.Closure()),
			"void_type":      String(t.VoidType),
			"params":         normalizeParams(t.Params),
		}
	}

	obj := Object{
		"title":     String(d.Title),
		"forms":     forms,
		"relations": relations,
		"traces":    traces,
	}
	if d.Epsilon != nil {
		obj["epsilon"] = Num(*d.Epsilon)
	}
	return obj
}

// normalizeParams maps a nil params map to an empty object so that
// "absent" and "empty" hash identically.
func normalizeParams(p Object) Object {
	if p == nil {
		return Object{}
	}
	return p
}
