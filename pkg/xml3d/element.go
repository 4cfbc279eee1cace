package xml3d

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Attr is one attribute of an Element. Attribute order is preserved on output.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of an output document.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// NewElement returns an empty element.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Set assigns an attribute, replacing an existing value.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Get returns an attribute value.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Append adds children in order.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// AppendData adds one child element per data entry.
func (e *Element) AppendData(entries ...DataEntry) *Element {
	for _, d := range entries {
		e.Children = append(e.Children, d.Element())
	}
	return e
}

// Find returns the first descendant (or e itself) whose id equals id.
func (e *Element) Find(id string) *Element {
	if v, ok := e.Get("id"); ok && v == id {
		return e
	}
	for _, c := range e.Children {
		if f := c.Find(id); f != nil {
			return f
		}
	}
	return nil
}

// All returns e and every descendant named name, in document order.
func (e *Element) All(name string) []*Element {
	var out []*Element
	if e.Name == name {
		out = append(out, e)
	}
	for _, c := range e.Children {
		out = append(out, c.All(name)...)
	}
	return out
}

func (e *Element) encode(enc *xml.Encoder) error {
	start := xml.StartElement{Name: xml.Name{Local: e.Name}}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if e.Text != "" {
		if err := enc.EncodeToken(xml.CharData(e.Text)); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := c.encode(enc); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// Encode writes the element tree indented by two spaces. A standalone
// document gets the XML declaration.
func Encode(w io.Writer, root *Element, standalone bool) error {
	if standalone {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := root.encode(enc); err != nil {
		return fmt.Errorf("encoding <%s>: %w", root.Name, err)
	}
	return enc.Flush()
}

// String renders the element as an indented fragment.
func (e *Element) String() string {
	var buf bytes.Buffer
	if err := Encode(&buf, e, false); err != nil {
		return ""
	}
	return buf.String()
}

// WriteFile writes a standalone document and returns the number of bytes written.
func WriteFile(path string, root *Element) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cw := &countingWriter{w: bufio.NewWriter(f)}
	if err := Encode(cw, root, true); err != nil {
		return cw.n, err
	}
	if err := cw.w.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, f.Close()
}

type countingWriter struct {
	w *bufio.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
