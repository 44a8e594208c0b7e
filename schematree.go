package clpir

// RootID is the reserved id of the schema tree's root node, an implicit
// object.
const RootID = 0

// SchemaTreeNode is one node of a [SchemaTree]: a stable id, its parent,
// the key name it was reached by (empty for the root), its type, and the
// ids of its children in insertion order.
type SchemaTreeNode struct {
	ID       int
	ParentID int
	KeyName  string
	Type     NodeType
	Children []int
}

// locator is the triple that uniquely identifies a schema-tree node:
// (parent_id, key_name, type). Two sibling nodes may share a key_name if
// their types differ.
type locator struct {
	parentID int
	keyName  string
	typ      NodeType
}

// SchemaTree is a grow-only, path-deduplicated tree describing every
// (key-path, type) combination observed so far across a stream. It
// supports exactly one outstanding snapshot, used by the serializer to
// make record insertion all-or-nothing.
//
// A SchemaTree is not safe for concurrent use.
type SchemaTree struct {
	nodes []SchemaTreeNode
	index map[locator]int

	// snapshotSize is the node count recorded by TakeSnapshot, or 0 if no
	// snapshot is outstanding. Since the tree always has at least the root
	// node, a genuine snapshot size is never 0, so this doubles as a
	// "snapshot taken" flag — the same trick the reference implementation
	// uses.
	snapshotSize int
}

// NewSchemaTree returns a tree containing only the root node (id 0,
// parent 0, type Obj, name "").
func NewSchemaTree() *SchemaTree {
	t := &SchemaTree{
		index: make(map[locator]int),
	}
	t.nodes = append(t.nodes, SchemaTreeNode{ID: RootID, ParentID: RootID, KeyName: "", Type: NodeTypeObj})
	return t
}

// Size returns the current node count, including the root.
func (t *SchemaTree) Size() int { return len(t.nodes) }

// Get returns a pointer to the node with the given id. The returned
// pointer is only valid until the next Insert or Revert call.
func (t *SchemaTree) Get(id int) (*SchemaTreeNode, error) {
	if id < 0 || id >= len(t.nodes) {
		return nil, ErrOutOfBounds
	}
	return &t.nodes[id], nil
}

// Has reports whether a node exists at (parentID, keyName, typ), returning
// its id if so.
func (t *SchemaTree) Has(parentID int, keyName string, typ NodeType) (int, bool) {
	id, ok := t.index[locator{parentID, keyName, typ}]
	return id, ok
}

// Insert adds a new node at (parentID, keyName, typ) and returns its id.
// It fails with [ErrAlreadyExists] if such a node already exists, or
// [ErrInvalidParent] if parentID does not reference an existing node.
func (t *SchemaTree) Insert(parentID int, keyName string, typ NodeType) (int, error) {
	if parentID < 0 || parentID >= len(t.nodes) {
		return 0, ErrInvalidParent
	}
	loc := locator{parentID, keyName, typ}
	if _, ok := t.index[loc]; ok {
		return 0, ErrAlreadyExists
	}
	id := len(t.nodes)
	t.nodes = append(t.nodes, SchemaTreeNode{ID: id, ParentID: parentID, KeyName: keyName, Type: typ})
	t.nodes[parentID].Children = append(t.nodes[parentID].Children, id)
	t.index[loc] = id
	return id, nil
}

// TakeSnapshot records the current node count for a later Revert. Only one
// snapshot may be outstanding at a time; taking a new one discards the
// previous snapshot point.
func (t *SchemaTree) TakeSnapshot() {
	t.snapshotSize = len(t.nodes)
}

// Revert truncates the tree back to the size recorded by the last
// TakeSnapshot call, popping each removed node from its parent's child
// list and evicting it from the hash index. It fails with [ErrNoSnapshot]
// if no snapshot was taken.
func (t *SchemaTree) Revert() error {
	if t.snapshotSize == 0 {
		return ErrNoSnapshot
	}
	for len(t.nodes) != t.snapshotSize {
		last := t.nodes[len(t.nodes)-1]
		parent := &t.nodes[last.ParentID]
		parent.Children = parent.Children[:len(parent.Children)-1]
		delete(t.index, locator{last.ParentID, last.KeyName, last.Type})
		t.nodes = t.nodes[:len(t.nodes)-1]
	}
	t.snapshotSize = 0
	return nil
}

// Reset clears the snapshot and every non-root node.
func (t *SchemaTree) Reset() {
	t.snapshotSize = 0
	t.nodes = t.nodes[:1]
	t.nodes[0] = SchemaTreeNode{ID: RootID, ParentID: RootID, KeyName: "", Type: NodeTypeObj}
	clear(t.index)
}
