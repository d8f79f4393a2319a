package io

import (
	"bytes"
	"errors"

	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/tools"
	"github.com/segmentio/encoding/json"
)

const (
	b3dmMagic        = "b3dm"
	b3dmVersion      = 1
	b3dmHeaderLength = 28
)

type featureTable struct {
	BatchLength int `json:"BATCH_LENGTH"`
}

// Generates the b3dm container of a tile content: header, feature table, batch table and embedded glb.
// Json sections are padded with spaces so that every section starts on an 8 byte boundary.
func generateB3dm(tileContent *content.TileContent) ([]byte, error) {
	if tileContent == nil || tileContent.Mesh == nil {
		return nil, errors.New("tile has no mesh")
	}

	featureTableBytes, err := json.Marshal(featureTable{BatchLength: tileContent.FeaturesLength()})
	if err != nil {
		return nil, err
	}
	featureTableBytes = padJSON(featureTableBytes, b3dmHeaderLength)

	batchTableBytes, err := json.Marshal(tileContent.BatchTable)
	if err != nil {
		return nil, err
	}
	batchTableBytes = padJSON(batchTableBytes, b3dmHeaderLength+len(featureTableBytes))

	glb, err := generateGlb(tileContent.Mesh)
	if err != nil {
		return nil, err
	}

	byteLength := b3dmHeaderLength + len(featureTableBytes) + len(batchTableBytes) + len(glb)
	outputByte := make([]byte, 0, byteLength)
	outputByte = append(outputByte, []byte(b3dmMagic)...)                                   // magic
	outputByte = append(outputByte, tools.ConvertIntToByteArray(b3dmVersion)...)            // version number
	outputByte = append(outputByte, tools.ConvertIntToByteArray(byteLength)...)             // total length
	outputByte = append(outputByte, tools.ConvertIntToByteArray(len(featureTableBytes))...) // feature table length
	outputByte = append(outputByte, tools.ConvertIntToByteArray(0)...)                      // feature table binary length
	outputByte = append(outputByte, tools.ConvertIntToByteArray(len(batchTableBytes))...)   // batch table length
	outputByte = append(outputByte, tools.ConvertIntToByteArray(0)...)                      // batch table binary length
	outputByte = append(outputByte, featureTableBytes...)
	outputByte = append(outputByte, batchTableBytes...)
	outputByte = append(outputByte, glb...)

	return outputByte, nil
}

// pads a json section with trailing spaces so that it ends on an 8 byte boundary, given where it starts
func padJSON(section []byte, offset int) []byte {
	padding := tools.PaddingLength(offset+len(section), 8)
	return append(section, bytes.Repeat([]byte(" "), padding)...)
}
