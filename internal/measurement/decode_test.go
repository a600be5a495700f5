package measurement

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{"particle_concentration":75,"temperature":22,"humidity":40,"co2_concentration":1200,"tvoc_concentration":1000,"sensor_status":0}`

func TestDecode_Valid(t *testing.T) {
	raw, err := Decode([]byte(validPayload))
	require.NoError(t, err)

	assert.Equal(t, Raw{
		ParticleConcentration: 75,
		Temperature:           22,
		Humidity:              40,
		CO2Concentration:      1200,
		TVOCConcentration:     1000,
		SensorStatus:          0,
	}, raw)
}

func TestDecode_IgnoresUnknownKeys(t *testing.T) {
	raw, err := Decode([]byte(`{"particle_concentration":1.5,"temperature":-3.25,"humidity":99,"co2_concentration":410,"tvoc_concentration":12,"sensor_status":2,"firmware":"1.2.0"}`))
	require.NoError(t, err)

	assert.Equal(t, 1.5, raw.ParticleConcentration)
	assert.Equal(t, -3.25, raw.Temperature)
	assert.Equal(t, 2, raw.SensorStatus)
}

func TestDecode_InvalidUTF8(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xfe, '{', '}'})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEncoding))
	assert.Equal(t, "encoding", Reason(err))
}

func TestDecode_InvalidJSON(t *testing.T) {
	for _, payload := range []string{``, `{`, `not json`, `[1,2,3]`, `"text"`, `42`, `null`} {
		_, err := Decode([]byte(payload))

		require.Error(t, err, "payload %q", payload)
		assert.True(t, errors.Is(err, ErrFormat), "payload %q", payload)
	}
}

func TestDecode_MissingSensorStatus(t *testing.T) {
	_, err := Decode([]byte(`{"particle_concentration":75,"temperature":22,"humidity":40,"co2_concentration":1200,"tvoc_concentration":1000}`))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompleteData))

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, FieldSensorStatus, decodeErr.Field)
	assert.Contains(t, err.Error(), FieldSensorStatus)
}

func TestDecode_EachFieldRequired(t *testing.T) {
	for _, missing := range RequiredFields {
		obj := map[string]any{}
		for i, key := range RequiredFields {
			obj[key] = i + 1
		}
		delete(obj, missing)

		payload, err := json.Marshal(obj)
		require.NoError(t, err)

		_, err = Decode(payload)

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr), "missing %s", missing)
		assert.Equal(t, ErrIncompleteData, decodeErr.Kind)
		assert.Equal(t, missing, decodeErr.Field)
	}
}

func TestDecode_NullCountsAsMissing(t *testing.T) {
	_, err := Decode([]byte(`{"particle_concentration":null,"temperature":22,"humidity":40,"co2_concentration":1200,"tvoc_concentration":1000,"sensor_status":0}`))

	assert.True(t, errors.Is(err, ErrIncompleteData))
}

func TestDecode_NonNumericValue(t *testing.T) {
	_, err := Decode([]byte(`{"particle_concentration":"75","temperature":22,"humidity":40,"co2_concentration":1200,"tvoc_concentration":1000,"sensor_status":0}`))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat))

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, FieldParticleConcentration, decodeErr.Field)
}

func TestDecode_SensorStatusMustBeInteger(t *testing.T) {
	_, err := Decode([]byte(`{"particle_concentration":75,"temperature":22,"humidity":40,"co2_concentration":1200,"tvoc_concentration":1000,"sensor_status":1.5}`))
	assert.True(t, errors.Is(err, ErrFormat))

	raw, err := Decode([]byte(`{"particle_concentration":75,"temperature":22,"humidity":40,"co2_concentration":1200,"tvoc_concentration":1000,"sensor_status":3.0}`))
	require.NoError(t, err)
	assert.Equal(t, 3, raw.SensorStatus)

	_, err = Decode([]byte(`{"particle_concentration":75,"temperature":22,"humidity":40,"co2_concentration":1200,"tvoc_concentration":1000,"sensor_status":4294967296}`))
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestDecode_NumberOverflow(t *testing.T) {
	_, err := Decode([]byte(`{"particle_concentration":1e400,"temperature":22,"humidity":40,"co2_concentration":1200,"tvoc_concentration":1000,"sensor_status":0}`))

	assert.True(t, errors.Is(err, ErrFormat))
}

func TestDecodeLogEntry(t *testing.T) {
	entry, err := DecodeLogEntry([]byte(`{"timestamp":1718000000123,"message":"sensor warmed up"}`))
	require.NoError(t, err)

	assert.Equal(t, int64(1718000000123), entry.DeviceTimestamp)
	assert.Equal(t, "sensor warmed up", entry.Message)
}

func TestDecodeLogEntry_OptionalFields(t *testing.T) {
	entry, err := DecodeLogEntry([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, LogEntry{}, entry)
}

func TestDecodeLogEntry_Malformed(t *testing.T) {
	_, err := DecodeLogEntry([]byte{0xc3, 0x28})
	assert.True(t, errors.Is(err, ErrEncoding))

	_, err = DecodeLogEntry([]byte(`{"message":`))
	assert.True(t, errors.Is(err, ErrFormat))

	_, err = DecodeLogEntry([]byte(`{"timestamp":"yesterday"}`))
	assert.True(t, errors.Is(err, ErrFormat))
}

func TestDecodeLogEntry_SkipsMeasurementValidation(t *testing.T) {
	_, err := DecodeLogEntry([]byte(`{"message":"boot"}`))

	assert.NoError(t, err)
}
