package storage

import (
	"encoding/json"
	"errors"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRound(r RoundRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRound(data []byte) (RoundRecord, error) {
	var round RoundRecord
	if err := json.Unmarshal(data, &round); err != nil {
		return RoundRecord{}, err
	}
	if err := checkVersion(round.VersionedRecord); err != nil {
		return RoundRecord{}, err
	}
	return round, nil
}

func EncodeScore(s ScoreRecord) ([]byte, error) {
	return json.Marshal(s)
}

func DecodeScore(data []byte) (ScoreRecord, error) {
	var score ScoreRecord
	if err := json.Unmarshal(data, &score); err != nil {
		return ScoreRecord{}, err
	}
	if err := checkVersion(score.VersionedRecord); err != nil {
		return ScoreRecord{}, err
	}
	return score, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
