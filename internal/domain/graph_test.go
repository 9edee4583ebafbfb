package domain

import (
	"strings"
	"testing"
)

func TestNodeIDContentAddressed(t *testing.T) {
	a := NodeID(NODE_MEDICATION, "Warfarin")
	b := NodeID(NODE_MEDICATION, "warfarin ")
	if a != b {
		t.Errorf("Expected normalized names to collide: %q vs %q", a, b)
	}
	if a != "medication:warfarin" {
		t.Errorf("Unexpected node id %q", a)
	}

	if NodeID(NODE_MEDICATION, "ferrous sulfate") != "medication:ferrous_sulfate" {
		t.Error("Expected spaces to be slugged")
	}
}

func TestPatientNodeIDHidesIdentifier(t *testing.T) {
	id := PatientNodeID("patient-42")
	if strings.Contains(id, "patient-42") {
		t.Error("Patient node ID must not embed the raw identifier")
	}
	if !strings.HasPrefix(id, "patient:") {
		t.Errorf("Unexpected patient node id %q", id)
	}
	if id != PatientNodeID("patient-42") {
		t.Error("Expected stable hashing")
	}
	if id == PatientNodeID("patient-43") {
		t.Error("Expected distinct patients to hash differently")
	}
}

func TestEdgeKey(t *testing.T) {
	e := Edge{From: "a", To: "b", Kind: EDGE_TAKES}
	if e.EdgeKey() != "a|takes|b" {
		t.Errorf("Unexpected edge key %q", e.EdgeKey())
	}
}
