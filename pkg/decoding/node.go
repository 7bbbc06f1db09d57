package decoding

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/buger/jsonparser"
)

// Node is a JSON value located in a document. Every accessor that fails
// returns a *DecodeError carrying the node's path and a rendering of its value,
// so decoders never have to build paths by hand.
type Node struct {
	path Path
	raw  []byte
	typ  jsonparser.ValueType
}

// Member is one key/value pair of a JSON object, in source order.
type Member struct {
	Key   string
	Value Node
}

// Root parses data and returns the node for the whole document. Blank input
// yields a node that does not exist; syntactically invalid JSON is a
// structural mismatch at the root.
func Root(data []byte) (Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Node{typ: jsonparser.NotExist}, nil
	}
	if !json.Valid(trimmed) {
		return Node{}, &DecodeError{
			Kind:     KindStructuralMismatch,
			Raw:      Snippet(trimmed),
			Expected: "a JSON document",
			Message:  "malformed JSON",
		}
	}
	n := Node{raw: trimmed, typ: typeOf(trimmed[0])}
	if n.typ == jsonparser.String {
		n.raw = trimmed[1 : len(trimmed)-1]
	}
	return n, nil
}

func typeOf(c byte) jsonparser.ValueType {
	switch c {
	case '{':
		return jsonparser.Object
	case '[':
		return jsonparser.Array
	case '"':
		return jsonparser.String
	case 't', 'f':
		return jsonparser.Boolean
	case 'n':
		return jsonparser.Null
	default:
		return jsonparser.Number
	}
}

// Path returns the location of the node from the document root.
func (n Node) Path() Path { return n.path }

// Type returns the JSON type of the node.
func (n Node) Type() jsonparser.ValueType { return n.typ }

// Exists reports whether the node is present in the document.
func (n Node) Exists() bool { return n.typ != jsonparser.NotExist }

// IsNull reports whether the node holds a JSON null.
func (n Node) IsNull() bool { return n.typ == jsonparser.Null }

// Absent reports whether the node is missing or null, the two ways an
// optional field is left out.
func (n Node) Absent() bool { return !n.Exists() || n.IsNull() }

// Raw renders the node's JSON text for diagnostics.
func (n Node) Raw() string {
	switch n.typ {
	case jsonparser.NotExist:
		return "nothing"
	case jsonparser.String:
		return Snippet(append(append([]byte{'"'}, n.raw...), '"'))
	default:
		return Snippet(n.raw)
	}
}

// Mismatch builds a structural-mismatch error located at the node.
func (n Node) Mismatch(expected, message string) error {
	return n.Fail(KindStructuralMismatch, expected, message)
}

// Fail builds a DecodeError of the given kind located at the node.
func (n Node) Fail(kind Kind, expected, message string) error {
	return &DecodeError{
		Kind:     kind,
		Path:     n.path,
		Raw:      n.Raw(),
		Expected: expected,
		Message:  message,
	}
}

func (n Node) expect(t jsonparser.ValueType, expected string) error {
	if n.typ == t {
		return nil
	}
	if !n.Exists() {
		return n.Mismatch(expected, "missing required field")
	}
	return n.Mismatch(expected, "unexpected "+n.typ.String())
}

// Wrap turns err into a structural mismatch located at the node.
func (n Node) Wrap(err error, expected string) error {
	return &DecodeError{
		Kind:     KindStructuralMismatch,
		Path:     n.path,
		Raw:      n.Raw(),
		Expected: expected,
		Err:      err,
	}
}

// Object returns the members of an object node in source order.
func (n Node) Object() (Object, error) {
	if err := n.expect(jsonparser.Object, "object"); err != nil {
		return Object{}, err
	}
	var members []Member
	err := jsonparser.ObjectEach(n.raw, func(key, value []byte, typ jsonparser.ValueType, _ int) error {
		k := string(key)
		members = append(members, Member{
			Key:   k,
			Value: Node{path: n.path.Key(k), raw: value, typ: typ},
		})
		return nil
	})
	if err != nil {
		return Object{}, n.Wrap(err, "object")
	}
	return Object{node: n, members: members}, nil
}

// Array returns the elements of an array node in source order.
func (n Node) Array() ([]Node, error) {
	if err := n.expect(jsonparser.Array, "array"); err != nil {
		return nil, err
	}
	var (
		elems   []Node
		elemErr error
	)
	_, err := jsonparser.ArrayEach(n.raw, func(value []byte, typ jsonparser.ValueType, _ int, err error) {
		if elemErr != nil {
			return
		}
		if err != nil {
			elemErr = err
			return
		}
		elems = append(elems, Node{path: n.path.Index(len(elems)), raw: value, typ: typ})
	})
	if err == nil {
		err = elemErr
	}
	if err != nil {
		return nil, n.Wrap(err, "array")
	}
	return elems, nil
}

// OptArray is like Array but treats a missing or null node as empty.
func (n Node) OptArray() ([]Node, error) {
	if n.Absent() {
		return nil, nil
	}
	return n.Array()
}

// String returns the unescaped value of a string node.
func (n Node) String() (string, error) {
	if err := n.expect(jsonparser.String, "string"); err != nil {
		return "", err
	}
	s, err := jsonparser.ParseString(n.raw)
	if err != nil {
		return "", n.Wrap(err, "string")
	}
	return s, nil
}

// OptString is like String but returns ok=false for a missing or null node.
func (n Node) OptString() (s string, ok bool, err error) {
	if n.Absent() {
		return "", false, nil
	}
	s, err = n.String()
	return s, err == nil, err
}

// Int returns the value of an integral number node.
func (n Node) Int() (int64, error) {
	if err := n.expect(jsonparser.Number, "integer"); err != nil {
		return 0, err
	}
	i, err := jsonparser.ParseInt(n.raw)
	if err != nil {
		return 0, n.Wrap(err, "integer")
	}
	return i, nil
}

// OptInt is like Int but returns ok=false for a missing or null node.
func (n Node) OptInt() (i int64, ok bool, err error) {
	if n.Absent() {
		return 0, false, nil
	}
	i, err = n.Int()
	return i, err == nil, err
}

// Float returns the value of a number node.
func (n Node) Float() (float64, error) {
	if err := n.expect(jsonparser.Number, "number"); err != nil {
		return 0, err
	}
	f, err := jsonparser.ParseFloat(n.raw)
	if err != nil {
		return 0, n.Wrap(err, "number")
	}
	return f, nil
}

// Bool returns the value of a boolean node.
func (n Node) Bool() (bool, error) {
	if err := n.expect(jsonparser.Boolean, "boolean"); err != nil {
		return false, err
	}
	b, err := jsonparser.ParseBoolean(n.raw)
	if err != nil {
		return false, n.Wrap(err, "boolean")
	}
	return b, nil
}

// OptBool is like Bool but treats a missing or null node as false.
func (n Node) OptBool() (bool, error) {
	if n.Absent() {
		return false, nil
	}
	return n.Bool()
}

// StringOrNumber returns the text of a string node or the literal of an
// integral number node. Identifiers that changed type across schema
// generations go through here.
func (n Node) StringOrNumber() (string, error) {
	switch n.typ {
	case jsonparser.String:
		return n.String()
	case jsonparser.Number:
		i, err := n.Int()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(i, 10), nil
	default:
		return "", n.expect(jsonparser.String, "string or integer")
	}
}

// Strings returns the values of an array of strings. A single string is
// accepted as a one-element list; a missing or null node yields nil.
func (n Node) Strings() ([]string, error) {
	switch {
	case n.Absent():
		return nil, nil
	case n.typ == jsonparser.String:
		s, err := n.String()
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	elems, err := n.Array()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(elems))
	for _, e := range elems {
		s, err := e.String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Object is a decoded JSON object that keeps its members in source order.
type Object struct {
	node    Node
	members []Member
}

// Node returns the object's own node.
func (o Object) Node() Node { return o.node }

// Members returns the key/value pairs in source order.
func (o Object) Members() []Member { return o.members }

// Len returns the number of members.
func (o Object) Len() int { return len(o.members) }

// Has reports whether the object has a member named key.
func (o Object) Has(key string) bool {
	return o.Get(key).Exists()
}

// Get returns the member named key, or a non-existent node located where the
// member would be. With duplicated keys the first one wins.
func (o Object) Get(key string) Node {
	for _, m := range o.members {
		if m.Key == key {
			return m.Value
		}
	}
	return Node{path: o.node.path.Key(key), typ: jsonparser.NotExist}
}

// Require is like Get but fails when the member is missing.
func (o Object) Require(key string) (Node, error) {
	n := o.Get(key)
	if !n.Exists() {
		return n, n.Mismatch("field "+strconv.Quote(key), "missing required field")
	}
	return n, nil
}
