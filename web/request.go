package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// maxBodySize caps request bodies; control payloads are a few bytes.
const maxBodySize = 4 << 10

// Param returns the path value key, failing when it is empty.
func Param(r *http.Request, key string) (string, error) {
	val := r.PathValue(key)
	if val == "" {
		return "", fmt.Errorf("path param[%s] not found", key)
	}

	return val, nil
}

// QueryBool parses query parameter key as a bool. A missing parameter
// yields def.
func QueryBool(r *http.Request, key string, def bool) (bool, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return def, nil
	}

	v, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("query param[%s] must be boolean: %w", key, err)
	}

	return v, nil
}

// Decode reads a JSON request body into val, rejecting unknown fields,
// then validates val against its struct tags.
func Decode[T any](r *http.Request, val *T) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(val); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	if err := Validate(val); err != nil {
		return err
	}

	return nil
}
