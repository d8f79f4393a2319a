package io

import (
	"bytes"

	"github.com/ecopia-map/city_tiler/internal/content"
	"github.com/ecopia-map/city_tiler/tools"
	"github.com/segmentio/encoding/json"
)

const (
	glbMagic           = "glTF"
	glbVersion         = 2
	glbHeaderLength    = 12
	glbChunkJSON       = 0x4E4F534A
	glbChunkBIN        = 0x004E4942
	componentFloat     = 5126
	targetArrayBuf     = 34962
	primitiveTriangles = 4
)

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

type gltfScene struct {
	Nodes []int `json:"nodes"`
}

type gltfNode struct {
	Mesh int `json:"mesh"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Mode       int            `json:"mode"`
	Material   int            `json:"material"`
}

type gltfMesh struct {
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPbr struct {
	BaseColorFactor [4]float64 `json:"baseColorFactor"`
	MetallicFactor  float64    `json:"metallicFactor"`
	RoughnessFactor float64    `json:"roughnessFactor"`
}

type gltfMaterial struct {
	Name                 string  `json:"name"`
	PbrMetallicRoughness gltfPbr `json:"pbrMetallicRoughness"`
}

type gltfAccessor struct {
	BufferView    int       `json:"bufferView"`
	ByteOffset    int       `json:"byteOffset"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target"`
}

type gltfBuffer struct {
	ByteLength int `json:"byteLength"`
}

type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       int              `json:"scene"`
	Scenes      []gltfScene      `json:"scenes"`
	Nodes       []gltfNode       `json:"nodes"`
	Meshes      []gltfMesh       `json:"meshes"`
	Materials   []gltfMaterial   `json:"materials"`
	Accessors   []gltfAccessor   `json:"accessors"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Buffers     []gltfBuffer     `json:"buffers"`
}

// Generates the binary glTF holding the mesh: one triangle primitive with positions, normals and batch ids
func generateGlb(mesh *content.Mesh) ([]byte, error) {
	positions := tools.ConvertFloat32ArrayToByteArray(mesh.Positions)
	normals := tools.ConvertFloat32ArrayToByteArray(mesh.Normals)
	batchIDs := tools.ConvertFloat32ArrayToByteArray(mesh.BatchIDs)
	count := mesh.VertexCount()

	doc := gltfDocument{
		Asset:  gltfAsset{Version: "2.0", Generator: "city_tiler"},
		Scene:  0,
		Scenes: []gltfScene{{Nodes: []int{0}}},
		Nodes:  []gltfNode{{Mesh: 0}},
		Meshes: []gltfMesh{{Primitives: []gltfPrimitive{{
			Attributes: map[string]int{"POSITION": 0, "NORMAL": 1, "_BATCHID": 2},
			Mode:       primitiveTriangles,
			Material:   0,
		}}}},
		Materials: []gltfMaterial{{
			Name:                 "default",
			PbrMetallicRoughness: gltfPbr{BaseColorFactor: [4]float64{1, 1, 1, 1}, MetallicFactor: 0, RoughnessFactor: 1},
		}},
		Accessors: []gltfAccessor{
			{BufferView: 0, ComponentType: componentFloat, Count: count, Type: "VEC3", Min: mesh.Min[:], Max: mesh.Max[:]},
			{BufferView: 1, ComponentType: componentFloat, Count: count, Type: "VEC3"},
			{BufferView: 2, ComponentType: componentFloat, Count: count, Type: "SCALAR"},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: len(positions), Target: targetArrayBuf},
			{Buffer: 0, ByteOffset: len(positions), ByteLength: len(normals), Target: targetArrayBuf},
			{Buffer: 0, ByteOffset: len(positions) + len(normals), ByteLength: len(batchIDs), Target: targetArrayBuf},
		},
		Buffers: []gltfBuffer{{ByteLength: len(positions) + len(normals) + len(batchIDs)}},
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	bin := make([]byte, 0, doc.Buffers[0].ByteLength+3)
	bin = append(bin, positions...)
	bin = append(bin, normals...)
	bin = append(bin, batchIDs...)
	bin = append(bin, make([]byte, tools.PaddingLength(len(bin), 4))...)

	// the glb is embedded in a b3dm and must end on an 8 byte boundary
	jsonPadding := tools.PaddingLength(len(jsonBytes), 4)
	if (glbHeaderLength+8+len(jsonBytes)+jsonPadding+8+len(bin))%8 != 0 {
		jsonPadding += 4
	}
	jsonBytes = append(jsonBytes, bytes.Repeat([]byte(" "), jsonPadding)...)

	totalLength := glbHeaderLength + 8 + len(jsonBytes) + 8 + len(bin)
	out := make([]byte, 0, totalLength)
	out = append(out, []byte(glbMagic)...)
	out = append(out, tools.ConvertIntToByteArray(glbVersion)...)
	out = append(out, tools.ConvertIntToByteArray(totalLength)...)
	out = append(out, tools.ConvertIntToByteArray(len(jsonBytes))...)
	out = append(out, tools.ConvertIntToByteArray(glbChunkJSON)...)
	out = append(out, jsonBytes...)
	out = append(out, tools.ConvertIntToByteArray(len(bin))...)
	out = append(out, tools.ConvertIntToByteArray(glbChunkBIN)...)
	out = append(out, bin...)
	return out, nil
}
