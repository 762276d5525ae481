package codec

import (
	"encoding/json"
	"testing"

	"automata/internal/core"
	"automata/internal/engine"
	"automata/internal/rules"
	"automata/pkg/rng"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plus(t *testing.T) *core.Grid {
	t.Helper()
	return core.MustStates(core.Uint8, core.Shape{3, 3}, []uint8{0, 1, 0, 1, 0, 1, 0, 1, 0})
}

func TestRoundTripEveryDType(t *testing.T) {
	r := rng.New(5)
	for _, d := range core.DTypes() {
		for _, shape := range []core.Shape{{1}, {17}, {4, 6}} {
			g, err := core.Random(d, shape, 0.4, r)
			require.NoError(t, err)

			md, pl, err := EncodePayload(g)
			require.NoError(t, err)
			got, err := DecodePayload(md, pl)
			require.NoError(t, err)
			assert.True(t, g.Equal(got), "dtype %s shape %v", d, shape)
			assert.Equal(t, g.Bytes(), got.Bytes())
		}
	}
}

func TestRoundTripNegativeValues(t *testing.T) {
	g, err := core.NewGrid(core.Int16, 2, 2)
	require.NoError(t, err)
	require.NoError(t, g.Set(0, -300))
	require.NoError(t, g.Set(3, 1200))

	md, pl, err := EncodePayload(g)
	require.NoError(t, err)
	got, err := DecodePayload(md, pl)
	require.NoError(t, err)
	assert.Equal(t, int64(-300), got.At(0))
	assert.Equal(t, int64(1200), got.At(3))
}

func TestMetadataFields(t *testing.T) {
	md, pl, err := EncodePayload(plus(t))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(md, &raw))
	assert.Equal(t, "uint8", raw["dtype"])
	assert.Equal(t, []any{3.0, 3.0}, raw["shape"])
	assert.Equal(t, Digest(pl), raw["hash"])
	assert.Len(t, raw, 3, "automaton envelopes carry no extra fields")
}

func TestEncodeIsDeterministic(t *testing.T) {
	md1, pl1, err := EncodePayload(plus(t))
	require.NoError(t, err)
	md2, pl2, err := EncodePayload(plus(t))
	require.NoError(t, err)
	assert.Equal(t, md1, md2)
	assert.Equal(t, pl1, pl2)
}

func TestTamperedPayloadFailsIntegrity(t *testing.T) {
	g, err := core.Random(core.Int32, core.Shape{3, 5}, 0.5, rng.New(11))
	require.NoError(t, err)
	md, pl, err := EncodePayload(g)
	require.NoError(t, err)

	for i := range pl {
		tampered := append([]byte(nil), pl...)
		tampered[i] ^= 0x01
		_, err := DecodePayload(md, tampered)
		require.ErrorIs(t, err, core.ErrIntegrity, "byte %d", i)
	}
}

func TestTruncatedPayloadFailsIntegrity(t *testing.T) {
	md, pl, err := EncodePayload(plus(t))
	require.NoError(t, err)
	_, err = DecodePayload(md, pl[:len(pl)-1])
	assert.ErrorIs(t, err, core.ErrIntegrity)
}

func TestShapeMismatchIsMalformed(t *testing.T) {
	_, pl, err := EncodePayload(plus(t))
	require.NoError(t, err)

	md, err := json.Marshal(Metadata{DType: "uint8", Shape: []int{4, 4}, Hash: Digest(pl)})
	require.NoError(t, err)
	_, err = DecodePayload(md, pl)
	assert.ErrorIs(t, err, core.ErrMalformedShape)

	md, err = json.Marshal(Metadata{DType: "uint16", Shape: []int{3, 3}, Hash: Digest(pl)})
	require.NoError(t, err)
	_, err = DecodePayload(md, pl)
	assert.ErrorIs(t, err, core.ErrMalformedShape)

	md, err = json.Marshal(Metadata{DType: "float64", Shape: []int{9}, Hash: Digest(pl)})
	require.NoError(t, err)
	_, err = DecodePayload(md, pl)
	assert.ErrorIs(t, err, core.ErrMalformedShape)
}

func TestOverflowingShapeIsMalformed(t *testing.T) {
	pl := make([]byte, 9)
	md, err := json.Marshal(Metadata{DType: "uint8", Shape: []int{5, 3689348814741910325}, Hash: Digest(pl)})
	require.NoError(t, err)

	g, err := DecodePayload(md, pl)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, core.ErrMalformedShape)
}

func TestGarbageMetadata(t *testing.T) {
	_, err := DecodePayload([]byte("{not json"), []byte{1})
	assert.ErrorIs(t, err, core.ErrMalformedShape)

	md, err := json.Marshal(Metadata{DType: "uint8", Shape: []int{1}, Hash: "zz"})
	require.NoError(t, err)
	_, err = DecodePayload(md, []byte{1})
	assert.ErrorIs(t, err, core.ErrIntegrity)
}

func TestEncodeRejectsEmptyGrid(t *testing.T) {
	_, _, err := EncodePayload(nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)
	_, err = SealGrid(&core.Grid{})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestParamsRoundTrip(t *testing.T) {
	p, err := engine.NewParams(1, "Conway", 1, "Moore")
	require.NoError(t, err)

	md, pl, err := EncodeParams(plus(t), p)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(md, &raw))
	assert.Equal(t, 1.0, raw["steps"])
	assert.Equal(t, "Conway", raw["rule_id"])
	assert.Equal(t, "Moore", raw["neighborhood"])

	g, got, err := DecodeParams(md, pl)
	require.NoError(t, err)
	assert.True(t, plus(t).Equal(g))
	assert.Equal(t, p, got)
}

func TestDecodeParamsNormalizesNeighborhood(t *testing.T) {
	_, pl, err := EncodePayload(plus(t))
	require.NoError(t, err)
	md, err := json.Marshal(ParamsMetadata{
		Metadata:     Metadata{DType: "uint8", Shape: []int{3, 3}, Hash: Digest(pl)},
		Steps:        4,
		RuleID:       "HighLife",
		Neighborhood: "hexagonal",
	})
	require.NoError(t, err)

	_, p, err := DecodeParams(md, pl)
	require.NoError(t, err)
	assert.Equal(t, engine.Moore, p.Neighborhood)
	assert.Equal(t, engine.DefaultRadius, p.Radius)
	assert.Equal(t, rules.HighLife, p.Rule)
}

func TestDecodeParamsRejectsBadFields(t *testing.T) {
	_, pl, err := EncodePayload(plus(t))
	require.NoError(t, err)
	base := Metadata{DType: "uint8", Shape: []int{3, 3}, Hash: Digest(pl)}

	md, err := json.Marshal(ParamsMetadata{Metadata: base, Steps: 0, RuleID: "Conway"})
	require.NoError(t, err)
	_, _, err = DecodeParams(md, pl)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	md, err = json.Marshal(ParamsMetadata{Metadata: base, Steps: 3, RuleID: "Rule184"})
	require.NoError(t, err)
	_, _, err = DecodeParams(md, pl)
	assert.ErrorIs(t, err, rules.ErrUnknownRule)
}

func TestParamsTamperCheckedBeforeFields(t *testing.T) {
	p, err := engine.NewParams(2, "Seeds", 1, "VonNeumann")
	require.NoError(t, err)
	env, err := SealParams(plus(t), p)
	require.NoError(t, err)

	env.Payload[4] = 1
	_, _, err = DecodeParams(env.Metadata, env.Payload)
	assert.ErrorIs(t, err, core.ErrIntegrity)
	assert.ErrorIs(t, Verify(env), core.ErrIntegrity)
}
