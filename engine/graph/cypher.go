package graph

import (
	"fmt"
	"strings"
)

// UniformLabel is the label of every node under the uniform strategy.
const UniformLabel = "IfcNode"

const (
	clearCypher        = `MATCH (n) DETACH DELETE n`
	uniformNodeCypher  = `CREATE (n:` + UniformLabel + ` $props)`
	uniformIndexCypher = `CREATE INDEX IF NOT EXISTS FOR (n:` + UniformLabel + `) ON (n.nid)`
)

// quoteIdent backtick-quotes a label or relationship type. Embedded
// backticks are doubled; case is preserved.
func quoteIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func uniformEdgeCypher(label string) string {
	return fmt.Sprintf(
		`MATCH (a:%[1]s {nid: $id1}) MATCH (b:%[1]s {nid: $id2}) CREATE (a)-[r:%[2]s]->(b)`,
		UniformLabel, quoteIdent(label),
	)
}

func perClassNodeCypher(typeName string) string {
	return fmt.Sprintf(`CREATE (n:%s $props)`, quoteIdent(typeName))
}

func perClassEdgeCypher(srcType, dstType, label string) string {
	return fmt.Sprintf(
		`MATCH (a:%s {nid: $id1}) MATCH (b:%s {nid: $id2}) CREATE (a)-[r:%s]->(b)`,
		quoteIdent(srcType), quoteIdent(dstType), quoteIdent(label),
	)
}
