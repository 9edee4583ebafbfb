package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// NodeKind identifies the entity type of a graph node.
type NodeKind string

const (
	NODE_PATIENT    NodeKind = "patient"
	NODE_MEDICATION NodeKind = "medication"
	NODE_CONDITION  NodeKind = "condition"
	NODE_ALLERGEN   NodeKind = "allergen"
	NODE_DRUG_CLASS NodeKind = "drug_class"
)

// EdgeKind identifies the relationship type of a graph edge.
type EdgeKind string

const (
	EDGE_TAKES              EdgeKind = "takes"
	EDGE_HAS_CONDITION      EdgeKind = "has_condition"
	EDGE_PRESCRIBED_FOR     EdgeKind = "prescribed_for"
	EDGE_INTERACTS_WITH     EdgeKind = "interacts_with"
	EDGE_CONTRAINDICATED_BY EdgeKind = "contraindicated_by"
	EDGE_ALLERGIC_TO        EdgeKind = "allergic_to"
	EDGE_MEMBER_OF          EdgeKind = "member_of"
)

// Node is a knowledge-graph vertex. IDs are content-addressed: the same
// entity always produces the same ID, so repeated projections are stable
// and graphs from separate evaluations can be merged.
type Node struct {
	ID    string   `json:"id"`
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`
}

// Edge is a directed knowledge-graph relationship. Properties carry rule
// metadata (severity, rule ID) for finding-derived edges.
type Edge struct {
	From       string            `json:"from"`
	To         string            `json:"to"`
	Kind       EdgeKind          `json:"kind"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Graph is the projected evidence graph for one evaluation.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeID derives the content-addressed ID for an entity. Names are
// normalized before addressing so "Warfarin" and "warfarin " collide.
func NodeID(kind NodeKind, name string) string {
	slug := strings.ReplaceAll(NormalizeDrugName(name), " ", "_")
	return string(kind) + ":" + slug
}

// PatientNodeID hashes the patient identifier instead of embedding it, so
// graph exports carry no direct patient ID.
func PatientNodeID(patientID string) string {
	sum := sha256.Sum256([]byte(patientID))
	return string(NODE_PATIENT) + ":" + hex.EncodeToString(sum[:8])
}

// EdgeKey returns a stable identity for deduplication.
func (e *Edge) EdgeKey() string {
	return e.From + "|" + string(e.Kind) + "|" + e.To
}
