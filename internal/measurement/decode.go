package measurement

import (
	"bytes"
	"encoding/json"
	"math"
	"unicode/utf8"
)

// decodeObject runs the checks shared by every inbound topic: the payload
// must be UTF-8 text holding a single JSON object.
func decodeObject(payload []byte) (map[string]json.RawMessage, error) {
	if !utf8.Valid(payload) {
		return nil, &DecodeError{Kind: ErrEncoding}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, &DecodeError{Kind: ErrFormat, Err: err}
	}
	// "null" unmarshals into a nil map without an error.
	if obj == nil {
		return nil, &DecodeError{Kind: ErrFormat}
	}

	return obj, nil
}

// Decode turns a measurements-topic payload into a Raw reading.
// A record missing any required key is rejected as a whole.
func Decode(payload []byte) (Raw, error) {
	obj, err := decodeObject(payload)
	if err != nil {
		return Raw{}, err
	}

	for _, key := range RequiredFields {
		if v, ok := obj[key]; !ok || isNull(v) {
			return Raw{}, &DecodeError{Kind: ErrIncompleteData, Field: key}
		}
	}

	var raw Raw
	floats := []struct {
		key string
		dst *float64
	}{
		{FieldParticleConcentration, &raw.ParticleConcentration},
		{FieldTemperature, &raw.Temperature},
		{FieldHumidity, &raw.Humidity},
		{FieldCO2Concentration, &raw.CO2Concentration},
		{FieldTVOCConcentration, &raw.TVOCConcentration},
	}
	for _, f := range floats {
		if err := json.Unmarshal(obj[f.key], f.dst); err != nil {
			return Raw{}, &DecodeError{Kind: ErrFormat, Field: f.key, Err: err}
		}
	}

	status, err := decodeInteger(obj[FieldSensorStatus])
	if err == nil && (status > math.MaxInt32 || status < math.MinInt32) {
		err = errOutOfRange
	}
	if err != nil {
		return Raw{}, &DecodeError{Kind: ErrFormat, Field: FieldSensorStatus, Err: err}
	}
	raw.SensorStatus = int(status)

	return raw, nil
}

// DecodeLogEntry decodes a logs-topic payload. Only the UTF-8 and JSON object
// checks apply; both keys are optional.
func DecodeLogEntry(payload []byte) (LogEntry, error) {
	obj, err := decodeObject(payload)
	if err != nil {
		return LogEntry{}, err
	}

	var entry LogEntry
	if v, ok := obj["timestamp"]; ok && !isNull(v) {
		ts, err := decodeInteger(v)
		if err != nil {
			return LogEntry{}, &DecodeError{Kind: ErrFormat, Field: "timestamp", Err: err}
		}
		entry.DeviceTimestamp = ts
	}
	if v, ok := obj["message"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &entry.Message); err != nil {
			return LogEntry{}, &DecodeError{Kind: ErrFormat, Field: "message", Err: err}
		}
	}

	return entry, nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// maxExactInteger is the largest integer a float64 holds without rounding.
const maxExactInteger = 1 << 53

// decodeInteger accepts any JSON number without a fractional part, so 3 and
// 3.0 are both valid.
func decodeInteger(v json.RawMessage) (int64, error) {
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, errNotInteger
	}
	if math.Abs(f) > maxExactInteger {
		return 0, errOutOfRange
	}
	return int64(f), nil
}
