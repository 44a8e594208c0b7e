package clpir

import (
	"fmt"
	"strings"
)

// dumpEntry is one member of a reconstructed object: either a nested
// object (objID references another entry in the dumper's objs map) or a
// leaf's already-rendered JSON text.
type dumpEntry struct {
	isObjRef bool
	objID    int
	raw      string
}

type dumpObj struct {
	keys    []string
	entries map[string]dumpEntry
}

// Dump reconstructs the JSON text of a record from the deserializer's
// output: the flat list of leaf schema-tree ids and their decoded values,
// walking each leaf's ancestor chain in tree to rebuild the nesting that
// the serializer's DFS flattened away.
func Dump(schema []int, values []*Value, tree *SchemaTree, codec ClpStringCodec) (string, error) {
	if len(schema) == 0 {
		if len(values) == 0 {
			return "{}", nil
		}
		return "", fmt.Errorf("clpir: schema/values length mismatch")
	}
	if len(schema) != len(values) {
		return "", fmt.Errorf("clpir: schema/values length mismatch")
	}

	objs := map[int]*dumpObj{RootID: {entries: map[string]dumpEntry{}}}

	var ensureObj func(id int) (*dumpObj, error)
	ensureObj = func(id int) (*dumpObj, error) {
		if o, ok := objs[id]; ok {
			return o, nil
		}
		node, err := tree.Get(id)
		if err != nil {
			return nil, err
		}
		parent, err := ensureObj(node.ParentID)
		if err != nil {
			return nil, err
		}
		o := &dumpObj{entries: map[string]dumpEntry{}}
		objs[id] = o
		if _, exists := parent.entries[node.KeyName]; !exists {
			parent.keys = append(parent.keys, node.KeyName)
		}
		parent.entries[node.KeyName] = dumpEntry{isObjRef: true, objID: id}
		return o, nil
	}

	for i, id := range schema {
		node, err := tree.Get(id)
		if err != nil {
			return "", err
		}
		parent, err := ensureObj(node.ParentID)
		if err != nil {
			return "", err
		}
		raw, err := renderLeafValue(values[i], node.Type, codec)
		if err != nil {
			return "", err
		}
		if _, exists := parent.entries[node.KeyName]; !exists {
			parent.keys = append(parent.keys, node.KeyName)
		}
		parent.entries[node.KeyName] = dumpEntry{raw: raw}
	}

	var buf strings.Builder
	if err := writeDumpObj(&buf, objs, RootID); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeDumpObj(buf *strings.Builder, objs map[int]*dumpObj, id int) error {
	o := objs[id]
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		q, err := quoteJSONString(k)
		if err != nil {
			return err
		}
		buf.WriteString(q)
		buf.WriteByte(':')
		e := o.entries[k]
		if e.isObjRef {
			if err := writeDumpObj(buf, objs, e.objID); err != nil {
				return err
			}
		} else {
			buf.WriteString(e.raw)
		}
	}
	buf.WriteByte('}')
	return nil
}

// renderLeafValue renders one decoded leaf value to its final JSON text.
// Array-typed leaves store a CLP-encoded JSON array as their "string"; its
// decoded text is already valid JSON and is inlined verbatim rather than
// quoted again.
func renderLeafValue(v *Value, typ NodeType, codec ClpStringCodec) (string, error) {
	if typ == NodeTypeArray {
		logtype, encodedVars, dictVars, err := v.ClpStrParts()
		if err != nil {
			return "", err
		}
		if codec == nil {
			return "", fmt.Errorf("clpir: dumping an array leaf requires a codec")
		}
		return codec.DecodeParts(logtype, encodedVars, dictVars)
	}
	return v.Dump(codec)
}
