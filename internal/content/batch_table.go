package content

import (
	"bytes"

	"github.com/ecopia-map/city_tiler/internal/data"
	"github.com/segmentio/encoding/json"
)

const IDColumn = "id"

// keys of the batch table json that can't be used as attribute names
var reservedColumns = map[string]bool{
	IDColumn:     true,
	"extensions": true,
	"extras":     true,
}

// columns is a table of named, equally long value arrays that keeps the order in which names first appeared
type columns struct {
	names  []string
	values map[string][]interface{}
	length int
}

func newColumns() *columns {
	return &columns{
		names:  make([]string, 0),
		values: make(map[string][]interface{}),
	}
}

// addRow appends a row made of the id followed by the given attributes. Cells of columns absent from the row
// are null, new columns are backfilled with nulls.
func (c *columns) addRow(id string, attributes *data.Attributes) {
	c.set(IDColumn, id)
	for _, name := range attributes.Names() {
		if reservedColumns[name] {
			continue
		}
		v, _ := attributes.Get(name)
		c.set(name, v.Interface())
	}
	c.length++
	for _, name := range c.names {
		if len(c.values[name]) < c.length {
			c.values[name] = append(c.values[name], nil)
		}
	}
}

// set fills the cell of the current row
func (c *columns) set(name string, value interface{}) {
	col, ok := c.values[name]
	if !ok {
		c.names = append(c.names, name)
		col = make([]interface{}, c.length, c.length+1)
	}
	c.values[name] = append(col, value)
}

func (c *columns) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := c.writeMembers(&buf); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (c *columns) writeMembers(buf *bytes.Buffer) error {
	for i, name := range c.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(buf, name, c.values[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeMember(buf *bytes.Buffer, name string, value interface{}) error {
	key, err := json.Marshal(name)
	if err != nil {
		return err
	}
	val, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// BatchTable holds one row per feature of a tile: the feature id first, then its attributes
type BatchTable struct {
	*columns
	extensions map[string]interface{}
}

func NewBatchTable() *BatchTable {
	return &BatchTable{
		columns: newColumns(),
	}
}

func (bt *BatchTable) AddRow(id string, attributes *data.Attributes) {
	bt.addRow(id, attributes)
}

func (bt *BatchTable) Len() int {
	return bt.length
}

// ColumnNames returns the columns in output order, id first
func (bt *BatchTable) ColumnNames() []string {
	names := make([]string, len(bt.names))
	copy(names, bt.names)
	return names
}

func (bt *BatchTable) Column(name string) ([]interface{}, bool) {
	col, ok := bt.values[name]
	return col, ok
}

func (bt *BatchTable) SetExtension(name string, extension interface{}) {
	if bt.extensions == nil {
		bt.extensions = make(map[string]interface{})
	}
	bt.extensions[name] = extension
}

func (bt *BatchTable) Extension(name string) (interface{}, bool) {
	ext, ok := bt.extensions[name]
	return ext, ok
}

func (bt *BatchTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := bt.writeMembers(&buf); err != nil {
		return nil, err
	}
	if len(bt.extensions) > 0 {
		if len(bt.names) > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, "extensions", bt.extensions); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
