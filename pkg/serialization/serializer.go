// Package serialization encodes flow snapshots for storage
package serialization

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec turns values into bytes and back
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error
	Name() string
}

// CompressionType represents compression algorithms
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
)

// ParseCompression maps a configuration value to a compression type
func ParseCompression(name string) (CompressionType, error) {
	switch c := CompressionType(strings.ToLower(strings.TrimSpace(name))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression %q", name)
	}
}

// CodecByName returns the codec registered under name
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgPackCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// Serializer encodes with a codec and then compresses
type Serializer struct {
	codec       Codec
	compression CompressionType
}

// NewSerializer creates a serializer. A nil codec means JSON.
func NewSerializer(codec Codec, compression CompressionType) *Serializer {
	if codec == nil {
		codec = JSONCodec{}
	}
	if compression == "" {
		compression = CompressionNone
	}
	return &Serializer{codec: codec, compression: compression}
}

// Codec returns the name of the codec in use
func (s *Serializer) Codec() string {
	return s.codec.Name()
}

// Compression returns the compression in use
func (s *Serializer) Compression() CompressionType {
	return s.compression
}

// Serialize encodes and compresses v
func (s *Serializer) Serialize(v interface{}) ([]byte, error) {
	data, err := s.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("codec encoding failed: %w", err)
	}

	data, err = compress(s.compression, data)
	if err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}
	return data, nil
}

// Deserialize decompresses and decodes data into v
func (s *Serializer) Deserialize(data []byte, v interface{}) error {
	return s.DeserializeWith(s.codec.Name(), s.compression, data, v)
}

// DeserializeWith reads data written with another codec or compression,
// as found in items stored before a configuration change
func (s *Serializer) DeserializeWith(codecName string, compression CompressionType, data []byte, v interface{}) error {
	codec, err := CodecByName(codecName)
	if err != nil {
		return err
	}

	data, err = decompress(compression, data)
	if err != nil {
		return fmt.Errorf("decompression failed: %w", err)
	}

	if err := codec.Decode(data, v); err != nil {
		return fmt.Errorf("codec decoding failed: %w", err)
	}
	return nil
}

func compress(compression CompressionType, data []byte) ([]byte, error) {
	switch compression {
	case CompressionGzip:
		var buf bytes.Buffer
		writer := gzip.NewWriter(&buf)
		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil
	default:
		return data, nil
	}
}

func decompress(compression CompressionType, data []byte) ([]byte, error) {
	switch compression {
	case CompressionGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return io.ReadAll(reader)
	case CompressionZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return decoder.DecodeAll(data, nil)
	default:
		return data, nil
	}
}

// JSONCodec implements JSON serialization
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error)   { return json.Marshal(v) }
func (JSONCodec) Decode(data []byte, v interface{}) error { return json.Unmarshal(data, v) }
func (JSONCodec) Name() string                            { return "json" }

// MsgPackCodec implements MessagePack serialization
type MsgPackCodec struct{}

func (MsgPackCodec) Encode(v interface{}) ([]byte, error)   { return msgpack.Marshal(v) }
func (MsgPackCodec) Decode(data []byte, v interface{}) error { return msgpack.Unmarshal(data, v) }
func (MsgPackCodec) Name() string                            { return "msgpack" }
