// Package catalog describes the table-descriptor/metadata service the core
// consumes (spec §1, §6). The catalog itself — durable storage, DDL,
// column/type bookkeeping — is out of scope; this package is the narrow
// interface the lowering pass calls into.
package catalog

import (
	"github.com/adarshpannu/flare/ids"
	"github.com/adarshpannu/flare/row"
)

// TableType selects which scan operator a TableScan lowers to (spec §4.4).
type TableType uint8

const (
	TableCSV TableType = iota
	TableCSVDir
)

// ColDesc describes one column of a cataloged table.
type ColDesc struct {
	Name     string
	ColID    ids.ColId
	DataType row.DataType
}

// TableDesc describes a cataloged table, as returned by Metadata.GetTableDesc
// (spec §6: "get_tabledesc(qun_or_name) -> {type, pathname, header,
// separator, columns}").
type TableDesc struct {
	Type      TableType
	Pathname  string
	Header    bool
	Separator byte
	Columns   []ColDesc
}

// Metadata is the catalog collaborator's interface. A real implementation
// talks to durable storage; tests and the demo CLI use an in-memory map.
type Metadata interface {
	GetTableDesc(qun ids.QunId) (TableDesc, bool)
}

// MapMetadata is a minimal in-memory Metadata, keyed by quantifier id. It is
// not meant for production use (spec §1 explicitly places the catalog
// service out of scope) — only for wiring a compilable plan in tests and the
// CLI demo.
type MapMetadata struct {
	tables map[ids.QunId]TableDesc
}

func NewMapMetadata() *MapMetadata {
	return &MapMetadata{tables: make(map[ids.QunId]TableDesc)}
}

func (m *MapMetadata) Add(qun ids.QunId, desc TableDesc) {
	m.tables[qun] = desc
}

func (m *MapMetadata) GetTableDesc(qun ids.QunId) (TableDesc, bool) {
	d, ok := m.tables[qun]
	return d, ok
}
