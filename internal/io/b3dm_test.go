package io

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/ecopia-map/city_tiler/internal/geometry"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func prism(id string, x, y float64) *data.Feature {
	p := func(x, y, z float64) geometry.Coordinate { return geometry.Coordinate{X: x, Y: y, Z: z} }
	rect := func(a, b, c, d geometry.Coordinate) *geometry.Surface {
		return geometry.NewSurface([]geometry.Coordinate{a, b, c, d})
	}
	x1, y1 := x+8, y+6
	surfaces := []*geometry.Surface{
		rect(p(x, y, 0), p(x, y1, 0), p(x1, y1, 0), p(x1, y, 0)),
		rect(p(x, y, 9), p(x1, y, 9), p(x1, y1, 9), p(x, y1, 9)),
		rect(p(x, y, 0), p(x1, y, 0), p(x1, y, 9), p(x, y, 9)),
		rect(p(x1, y, 0), p(x1, y1, 0), p(x1, y1, 9), p(x1, y, 9)),
		rect(p(x1, y1, 0), p(x, y1, 0), p(x, y1, 9), p(x1, y1, 9)),
		rect(p(x, y1, 0), p(x, y, 0), p(x, y, 9), p(x, y1, 9)),
	}
	attributes := data.NewAttributes().Set("height", data.NumberValue(9)).Set("name", data.TextValue(id))
	return data.NewFeature(id, "Building", surfaces, nil, attributes)
}

func u32(b []byte, offset int) int {
	return int(binary.LittleEndian.Uint32(b[offset:]))
}

func TestGenerateB3dmLayout(t *testing.T) {
	group := data.NewFeatureGroupFromFeatures([]*data.Feature{prism("a", -10, -3), prism("b", 2, -3)})
	tileContent, err := content.NewAssembler(nil, content.AssemblerOptions{}).Assemble(group)
	require.NoError(t, err)

	b3dm, err := generateB3dm(tileContent)
	require.NoError(t, err)

	require.Equal(t, "b3dm", string(b3dm[0:4]))
	require.Equal(t, 1, u32(b3dm, 4))
	require.Equal(t, len(b3dm), u32(b3dm, 8))
	require.Zero(t, len(b3dm)%8)

	ftLength, btLength := u32(b3dm, 12), u32(b3dm, 20)
	require.Zero(t, u32(b3dm, 16))
	require.Zero(t, u32(b3dm, 24))
	require.Zero(t, (28+ftLength)%8)
	require.Zero(t, (28+ftLength+btLength)%8)

	featureTable := bytes.TrimRight(b3dm[28:28+ftLength], " ")
	require.Equal(t, `{"BATCH_LENGTH":2}`, string(featureTable))

	var batchTable map[string][]interface{}
	require.NoError(t, json.Unmarshal(b3dm[28+ftLength:28+ftLength+btLength], &batchTable))
	require.Equal(t, []interface{}{"a", "b"}, batchTable["id"])
	require.Equal(t, []interface{}{9.0, 9.0}, batchTable["height"])

	glb := b3dm[28+ftLength+btLength:]
	require.Equal(t, "glTF", string(glb[0:4]))
	require.Equal(t, 2, u32(glb, 4))
	require.Equal(t, len(glb), u32(glb, 8))

	jsonLength := u32(glb, 12)
	require.Equal(t, 0x4E4F534A, u32(glb, 16))
	require.Zero(t, jsonLength%4)
	binOffset := 20 + jsonLength
	require.Equal(t, 0x004E4942, u32(glb, binOffset+4))
	require.Equal(t, len(glb), binOffset+8+u32(glb, binOffset))

	var doc gltfDocument
	require.NoError(t, json.Unmarshal(glb[20:20+jsonLength], &doc))
	vertices := tileContent.Mesh.VertexCount()
	require.Equal(t, 72, vertices)
	require.Equal(t, vertices, doc.Accessors[0].Count)
	require.Equal(t, []float64{-10, 0, -3}, doc.Accessors[0].Min)
	require.Equal(t, []float64{10, 9, 3}, doc.Accessors[0].Max)
	require.Equal(t, 7*4*vertices, doc.Buffers[0].ByteLength)
	require.Equal(t, 2, doc.Meshes[0].Primitives[0].Attributes["_BATCHID"])
}

func TestGenerateB3dmWithoutMesh(t *testing.T) {
	_, err := generateB3dm(&content.TileContent{})
	require.Error(t, err)
	_, err = generateB3dm(nil)
	require.Error(t, err)
}

func TestNumberMarshalling(t *testing.T) {
	raw, err := json.Marshal([]Number{1000, 1.123456789012, -0.5, 1358012.25})
	require.NoError(t, err)
	require.Equal(t, `[1000,1.12345679,-0.5,1358012.25]`, string(raw))
}
