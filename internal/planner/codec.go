package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"canteen-planner/internal/catalog"
)

// ErrMalformedPayload is returned when a drag payload cannot be decoded
// back into a valid dish.
var ErrMalformedPayload = errors.New("malformed drag payload")

// PayloadCodec carries a dragged dish across the drag/drop boundary by value.
type PayloadCodec interface {
	Encode(d catalog.Dish) ([]byte, error)
	Decode(payload []byte) (catalog.Dish, error)
}

// JSONCodec encodes the dish as plain JSON.
type JSONCodec struct{}

func (JSONCodec) Encode(d catalog.Dish) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal drag payload: %w", err)
	}
	return data, nil
}

func (JSONCodec) Decode(payload []byte) (catalog.Dish, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return catalog.Dish{}, fmt.Errorf("%w: empty", ErrMalformedPayload)
	}

	var d catalog.Dish
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return catalog.Dish{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return catalog.Dish{}, fmt.Errorf("%w: trailing data after dish", ErrMalformedPayload)
	}
	if err := d.Validate(); err != nil {
		return catalog.Dish{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return d, nil
}
