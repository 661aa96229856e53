package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"zodo/app/models"
)

// Neo4jStore keeps the tree as (:Task) nodes linked child-[:HAS_PARENT]->parent.
// Every node carries the slot key, so several trees can share a database.
type Neo4jStore struct {
	driver neo4j.DriverWithContext
	slot   string
}

// NewNeo4jStore creates a new Neo4jStore for the given slot.
func NewNeo4jStore(driver neo4j.DriverWithContext, slot string) *Neo4jStore {
	return &Neo4jStore{driver: driver, slot: slot}
}

// nodeRow is one persisted task node.
type nodeRow struct {
	ID       string
	ParentID string
	Position int64
	Name     string
	Done     bool
	Show     bool
}

// Load reads every node of the slot and reassembles the tree.
func (s *Neo4jStore) Load(ctx context.Context) (*models.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			"MATCH (t:Task {slot: $slot}) "+
				"OPTIONAL MATCH (t)-[:HAS_PARENT]->(p:Task {slot: $slot}) "+
				"RETURN t.id AS id, t.title AS title, t.completed AS completed, t.show AS show, t.position AS position, p.id AS parent_id",
			map[string]any{"slot": s.slot},
		)
		if err != nil {
			return nil, err
		}

		var rows []nodeRow
		for res.Next(ctx) {
			row, err := rowFromValues(res.Record().Values)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
		if err := res.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading slot %q from neo4j: %w", s.slot, err)
	}

	rows, _ := result.([]nodeRow)
	return assemble(rows)
}

// Save replaces the slot's nodes with rec in a single write transaction.
func (s *Neo4jStore) Save(ctx context.Context, rec models.Record) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	params := map[string]any{
		"slot":  s.slot,
		"tasks": flatten(rec),
	}
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, "MATCH (t:Task {slot: $slot}) DETACH DELETE t", params); err != nil {
			return nil, err
		}
		if _, err := tx.Run(ctx,
			"UNWIND $tasks AS task "+
				"CREATE (:Task {slot: $slot, id: task.id, title: task.title, completed: task.completed, show: task.show, position: task.position})",
			params,
		); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx,
			"UNWIND $tasks AS task "+
				"WITH task WHERE task.parent_id IS NOT NULL "+
				"MATCH (child:Task {slot: $slot, id: task.id}), (parent:Task {slot: $slot, id: task.parent_id}) "+
				"CREATE (child)-[:HAS_PARENT]->(parent)",
			params,
		)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("saving slot %q to neo4j: %w", s.slot, err)
	}
	return nil
}

// Close closes the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func rowFromValues(values []any) (nodeRow, error) {
	if len(values) != 6 {
		return nodeRow{}, fmt.Errorf("unexpected column count %d", len(values))
	}
	var row nodeRow
	var ok bool
	if row.ID, ok = values[0].(string); !ok {
		return nodeRow{}, fmt.Errorf("task id has type %T", values[0])
	}
	if values[1] != nil {
		if row.Name, ok = values[1].(string); !ok {
			return nodeRow{}, fmt.Errorf("task %s: title has type %T", row.ID, values[1])
		}
	}
	if row.Done, ok = values[2].(bool); !ok {
		return nodeRow{}, fmt.Errorf("task %s: completed has type %T", row.ID, values[2])
	}
	if row.Show, ok = values[3].(bool); !ok {
		return nodeRow{}, fmt.Errorf("task %s: show has type %T", row.ID, values[3])
	}
	if row.Position, ok = values[4].(int64); !ok {
		return nodeRow{}, fmt.Errorf("task %s: position has type %T", row.ID, values[4])
	}
	if values[5] != nil {
		if row.ParentID, ok = values[5].(string); !ok {
			return nodeRow{}, fmt.Errorf("task %s: parent id has type %T", row.ID, values[5])
		}
	}
	return row, nil
}

// flatten turns rec into UNWIND parameters, parents before children.
func flatten(rec models.Record) []map[string]any {
	var out []map[string]any
	var walk func(r models.Record, parentID any, position int64)
	walk = func(r models.Record, parentID any, position int64) {
		id := uuid.New().String()
		out = append(out, map[string]any{
			"id":        id,
			"parent_id": parentID,
			"position":  position,
			"title":     r.Name,
			"completed": r.Done,
			"show":      r.Show,
		})
		for i, c := range r.Children {
			walk(c, id, int64(i))
		}
	}
	walk(rec, nil, 0)
	return out
}

type rowNode struct {
	row  nodeRow
	kids []*rowNode
}

// assemble rebuilds the record tree from unordered rows. No rows means an
// empty slot.
func assemble(rows []nodeRow) (*models.Record, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	nodes := make(map[string]*rowNode, len(rows))
	for _, r := range rows {
		if _, dup := nodes[r.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %s", r.ID)
		}
		nodes[r.ID] = &rowNode{row: r}
	}

	var root *rowNode
	for _, r := range rows {
		n := nodes[r.ID]
		if r.ParentID == "" {
			if root != nil {
				return nil, fmt.Errorf("slot has more than one root (%s, %s)", root.row.ID, r.ID)
			}
			root = n
			continue
		}
		parent, ok := nodes[r.ParentID]
		if !ok {
			return nil, fmt.Errorf("task %s references missing parent %s", r.ID, r.ParentID)
		}
		parent.kids = append(parent.kids, n)
	}
	if root == nil {
		return nil, fmt.Errorf("slot has no root task")
	}

	seen := 0
	var build func(n *rowNode) models.Record
	build = func(n *rowNode) models.Record {
		seen++
		sort.Slice(n.kids, func(i, j int) bool { return n.kids[i].row.Position < n.kids[j].row.Position })
		rec := models.Record{
			Name:     n.row.Name,
			Done:     n.row.Done,
			Show:     n.row.Show,
			Children: make([]models.Record, 0, len(n.kids)),
		}
		for _, k := range n.kids {
			rec.Children = append(rec.Children, build(k))
		}
		return rec
	}
	rec := build(root)
	if seen != len(rows) {
		return nil, fmt.Errorf("slot has %d tasks unreachable from the root", len(rows)-seen)
	}
	return &rec, nil
}
