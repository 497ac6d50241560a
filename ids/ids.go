// Package ids holds the small integer identifier types shared by every layer
// of the query engine core: quantifiers, columns, registers, partitions and
// stages. Keeping them in one leaf package (rather than re-declaring `int`
// everywhere) is what lets the register allocator, the POP graph and the
// scheduler all talk about "the same kind of number" without an import cycle.
package ids

// QunId identifies a quantifier: a table reference inside a query block.
type QunId int

// ColId identifies a column within a cataloged table.
type ColId int

// RegisterId indexes into a stage's row tuple.
type RegisterId int

// PartitionId identifies one producer or consumer partition of a stage.
type PartitionId int

// StageId identifies a stage within a compiled flow.
type StageId int

// QunCol names a column by the quantifier that produced it. Two different
// quantifiers reading the same underlying table column are distinct QunCols.
type QunCol struct {
	Qun QunId
	Col ColId
}
