package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

const TABLE_PREFIX = "chronicle_"

const (
	TABLE_DOCUMENT          = TableName("documents")
	TABLE_CHUNK             = TableName("chunks")
	TABLE_GRAPH_ENTITY      = TableName("graph_entities")
	TABLE_ENTITY_ALIAS      = TableName("entity_aliases")
	TABLE_EVENT             = TableName("events")
	TABLE_EVENT_PARTICIPANT = TableName("event_participants")
	TABLE_RELATION          = TableName("relations")
	TABLE_KG_RUN_HISTORY    = TableName("kg_run_history")
)
