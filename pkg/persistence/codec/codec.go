// Package codec serialises checkpoints for byte-oriented stores.
package codec

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Codec converts checkpoints to and from bytes.
type Codec interface {
	Name() string
	Marshal(cp *domain.Checkpoint) ([]byte, error)
	Unmarshal(data []byte) (*domain.Checkpoint, error)
}

// Default is the codec stores use when none is configured.
var Default Codec = JSON{}

// JSON encodes checkpoints as JSON.
type JSON struct {
	Indent bool
}

func (JSON) Name() string { return "json" }

func (c JSON) Marshal(cp *domain.Checkpoint) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(cp, "", "  ")
	}
	return json.Marshal(cp)
}

func (JSON) Unmarshal(data []byte) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint json: %w", err)
	}
	return &cp, nil
}

// Msgpack encodes checkpoints with MessagePack.
type Msgpack struct{}

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Marshal(cp *domain.Checkpoint) ([]byte, error) {
	return msgpack.Marshal(cp)
}

func (Msgpack) Unmarshal(data []byte) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint msgpack: %w", err)
	}
	return &cp, nil
}

// Zstd compresses the output of another codec.
type Zstd struct {
	Inner Codec

	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

// NewZstd wraps inner with zstd compression.
func NewZstd(inner Codec) *Zstd {
	return &Zstd{Inner: inner}
}

func (z *Zstd) init() error {
	z.once.Do(func() {
		z.enc, z.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if z.err != nil {
			return
		}
		z.dec, z.err = zstd.NewReader(nil)
	})
	return z.err
}

func (z *Zstd) Name() string { return z.Inner.Name() + "+zstd" }

func (z *Zstd) Marshal(cp *domain.Checkpoint) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, fmt.Errorf("zstd init: %w", err)
	}
	raw, err := z.Inner.Marshal(cp)
	if err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(raw, nil), nil
}

func (z *Zstd) Unmarshal(data []byte) (*domain.Checkpoint, error) {
	if err := z.init(); err != nil {
		return nil, fmt.Errorf("zstd init: %w", err)
	}
	raw, err := z.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress checkpoint: %w", err)
	}
	return z.Inner.Unmarshal(raw)
}

// ByName returns the codec for json, msgpack, json+zstd or msgpack+zstd.
func ByName(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "msgpack":
		return Msgpack{}, nil
	case "json+zstd":
		return NewZstd(JSON{}), nil
	case "msgpack+zstd":
		return NewZstd(Msgpack{}), nil
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}
