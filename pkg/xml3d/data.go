// Package xml3d implements the typed data vocabulary of the XML3D format and
// an element tree that serializes it.
package xml3d

import (
	"slices"
	"strconv"
	"strings"
)

// DataType names a typed data element. The value doubles as the element name.
type DataType string

const (
	TypeFloat    DataType = "float"
	TypeFloat2   DataType = "float2"
	TypeFloat3   DataType = "float3"
	TypeFloat4   DataType = "float4"
	TypeFloat4x4 DataType = "float4x4"
	TypeInt      DataType = "int"
	TypeInt4     DataType = "int4"
	TypeBool     DataType = "bool"
	TypeTexture  DataType = "texture"
	TypeData     DataType = "data"
)

// Texture wrap modes.
const (
	WrapRepeat = "repeat"
	WrapClamp  = "clamp"
)

// DataEntry is one typed, named value. Data references carry only Src,
// textures carry Src and an optional Wrap.
type DataEntry struct {
	Name   string
	Type   DataType
	Floats []float64
	Ints   []int
	Bool   bool
	Src    string
	Wrap   string
	Key    string
	Class  string
}

// Float returns a float entry.
func Float(name string, v ...float64) DataEntry {
	return DataEntry{Name: name, Type: TypeFloat, Floats: v}
}

// Float2 returns a float2 entry.
func Float2(name string, v []float64) DataEntry {
	return DataEntry{Name: name, Type: TypeFloat2, Floats: v}
}

// Float3 returns a float3 entry.
func Float3(name string, v []float64) DataEntry {
	return DataEntry{Name: name, Type: TypeFloat3, Floats: v}
}

// Float4 returns a float4 entry.
func Float4(name string, v []float64) DataEntry {
	return DataEntry{Name: name, Type: TypeFloat4, Floats: v}
}

// Float4x4 returns a float4x4 entry; v holds whole matrices in column-major order.
func Float4x4(name string, v []float64) DataEntry {
	return DataEntry{Name: name, Type: TypeFloat4x4, Floats: v}
}

// Int returns an int entry.
func Int(name string, v ...int) DataEntry {
	return DataEntry{Name: name, Type: TypeInt, Ints: v}
}

// Int4 returns an int4 entry.
func Int4(name string, v []int) DataEntry {
	return DataEntry{Name: name, Type: TypeInt4, Ints: v}
}

// Bool returns a bool entry.
func Bool(name string, v bool) DataEntry {
	return DataEntry{Name: name, Type: TypeBool, Bool: v}
}

// Texture returns a texture entry sampling the image at src.
func Texture(name, src, wrap string) DataEntry {
	return DataEntry{Name: name, Type: TypeTexture, Src: src, Wrap: wrap}
}

// DataRef returns a reference to a data element in this or another document.
func DataRef(src string) DataEntry {
	return DataEntry{Type: TypeData, Src: src}
}

// WithKey returns a copy of e keyed for time series data.
func (e DataEntry) WithKey(key float64) DataEntry {
	e.Key = FormatFloat(key)
	return e
}

// Equal reports structural equality.
func (e DataEntry) Equal(o DataEntry) bool {
	return e.Name == o.Name && e.Type == o.Type &&
		slices.Equal(e.Floats, o.Floats) && slices.Equal(e.Ints, o.Ints) &&
		e.Bool == o.Bool && e.Src == o.Src && e.Wrap == o.Wrap &&
		e.Key == o.Key && e.Class == o.Class
}

// Text returns the encoded payload of the entry.
func (e DataEntry) Text() string {
	switch e.Type {
	case TypeInt, TypeInt4:
		return FormatInts(e.Ints)
	case TypeBool:
		return strconv.FormatBool(e.Bool)
	case TypeTexture, TypeData:
		return ""
	default:
		return FormatFloats(e.Floats)
	}
}

// Element converts the entry into its markup element.
func (e DataEntry) Element() *Element {
	el := NewElement(string(e.Type))
	if e.Type == TypeData {
		return el.Set("src", e.Src)
	}
	if e.Name != "" {
		el.Set("name", e.Name)
	}
	if e.Key != "" {
		el.Set("key", e.Key)
	}
	if e.Class != "" {
		el.Set("class", e.Class)
	}
	if e.Type == TypeTexture {
		if e.Wrap != "" {
			el.Set("wrapS", e.Wrap).Set("wrapT", e.Wrap)
		}
		return el.Append(NewElement("img").Set("src", e.Src))
	}
	el.Text = e.Text()
	return el
}

// FormatFloat encodes a float with six fixed decimals.
func FormatFloat(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// FormatFloats encodes values separated by single spaces.
func FormatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = FormatFloat(f)
	}
	return strings.Join(parts, " ")
}

// FormatInts encodes integers separated by single spaces.
func FormatInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " ")
}
