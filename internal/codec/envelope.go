// Package codec turns grids and simulation parameters into two-part
// envelopes: a raw row-major payload and a JSON metadata block carrying the
// element type, shape and a SHA-256 digest of the payload.
//
// Encoding never verifies anything. Decoding always verifies the digest
// before it looks at the payload.
package codec

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"automata/internal/core"
	"automata/internal/engine"
)

// Envelope is the transport form of one message: metadata plus payload.
type Envelope struct {
	Metadata []byte `json:"metadata"`
	Payload  []byte `json:"payload"`
}

// Metadata is the header shared by every envelope kind.
type Metadata struct {
	DType string `json:"dtype"`
	Shape []int  `json:"shape"`
	Hash  string `json:"hash"`
}

// ParamsMetadata is the header of a parameters envelope.
type ParamsMetadata struct {
	Metadata
	Steps        int    `json:"steps"`
	RuleID       string `json:"rule_id"`
	Neighborhood string `json:"neighborhood"`
	Radius       int    `json:"radius,omitempty"`
}

// Digest returns the hex SHA-256 of payload.
func Digest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// EncodePayload envelopes an automaton grid.
func EncodePayload(g *core.Grid) (metadata, payload []byte, err error) {
	md, payload, err := header(g)
	if err != nil {
		return nil, nil, err
	}
	metadata, err = json.Marshal(md)
	if err != nil {
		return nil, nil, fmt.Errorf("encode metadata: %w", err)
	}
	return metadata, payload, nil
}

// DecodePayload verifies and reconstructs an automaton grid.
func DecodePayload(metadata, payload []byte) (*core.Grid, error) {
	var md Metadata
	if err := unmarshal(metadata, &md); err != nil {
		return nil, err
	}
	return open(md, payload)
}

// EncodeParams envelopes the initial grid together with the parameters.
func EncodeParams(g *core.Grid, p engine.Params) (metadata, payload []byte, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	md, payload, err := header(g)
	if err != nil {
		return nil, nil, err
	}
	metadata, err = json.Marshal(ParamsMetadata{
		Metadata:     md,
		Steps:        p.Steps,
		RuleID:       p.Rule.String(),
		Neighborhood: p.Neighborhood.String(),
		Radius:       p.Radius,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode metadata: %w", err)
	}
	return metadata, payload, nil
}

// DecodeParams verifies the envelope and rebuilds the grid and parameters.
// An unrecognized neighborhood name is read as Moore.
func DecodeParams(metadata, payload []byte) (*core.Grid, engine.Params, error) {
	var md ParamsMetadata
	if err := unmarshal(metadata, &md); err != nil {
		return nil, engine.Params{}, err
	}
	g, err := open(md.Metadata, payload)
	if err != nil {
		return nil, engine.Params{}, err
	}
	p, err := engine.NewParams(md.Steps, md.RuleID, md.Radius, md.Neighborhood)
	if err != nil {
		return nil, engine.Params{}, err
	}
	return g, p, nil
}

// SealGrid is EncodePayload returning an Envelope.
func SealGrid(g *core.Grid) (Envelope, error) {
	md, pl, err := EncodePayload(g)
	return Envelope{Metadata: md, Payload: pl}, err
}

// SealParams is EncodeParams returning an Envelope.
func SealParams(g *core.Grid, p engine.Params) (Envelope, error) {
	md, pl, err := EncodeParams(g, p)
	return Envelope{Metadata: md, Payload: pl}, err
}

func header(g *core.Grid) (Metadata, []byte, error) {
	if g == nil || g.Len() == 0 {
		return Metadata{}, nil, fmt.Errorf("%w: empty grid", core.ErrInvalidInput)
	}
	if _, err := core.ParseDType(string(g.DType())); err != nil {
		return Metadata{}, nil, err
	}
	payload := g.Bytes()
	return Metadata{
		DType: g.DType().String(),
		Shape: g.Shape(),
		Hash:  Digest(payload),
	}, payload, nil
}

func unmarshal(metadata []byte, v any) error {
	if err := json.Unmarshal(metadata, v); err != nil {
		return fmt.Errorf("%w: unreadable metadata: %v", core.ErrMalformedShape, err)
	}
	return nil
}

// open checks the digest first and only then interprets the payload.
func open(md Metadata, payload []byte) (*core.Grid, error) {
	if err := verify(md.Hash, payload); err != nil {
		return nil, err
	}
	dtype := core.DType(md.DType)
	return core.FromBytes(dtype, core.Shape(md.Shape), payload)
}

func verify(hash string, payload []byte) error {
	want, err := hex.DecodeString(hash)
	if err != nil || len(want) != sha256.Size {
		return fmt.Errorf("%w: metadata digest %q is not a SHA-256 hex string", core.ErrIntegrity, hash)
	}
	got := sha256.Sum256(payload)
	if subtle.ConstantTimeCompare(want, got[:]) != 1 {
		return fmt.Errorf("%w: payload digest %x does not match %s", core.ErrIntegrity, got, hash)
	}
	return nil
}

// Verify checks an envelope's digest without decoding the grid.
func Verify(e Envelope) error {
	var md Metadata
	if err := unmarshal(e.Metadata, &md); err != nil {
		return err
	}
	return verify(md.Hash, e.Payload)
}
