package service

import (
	"sort"

	"github.com/rx-timeline-engine/internal/catalog"
	"github.com/rx-timeline-engine/internal/domain"
)

// GraphProjector turns an evaluation into a knowledge graph. Node IDs are
// content-addressed, so projecting the same evaluation twice yields
// byte-identical output and graphs across evaluations merge cleanly.
type GraphProjector struct {
	catalog *catalog.Catalog
}

// NewGraphProjector creates a projector bound to the catalog used for the
// evaluation, so class-membership edges stay consistent with the findings.
func NewGraphProjector(cat *catalog.Catalog) *GraphProjector {
	return &GraphProjector{catalog: cat}
}

// Project builds the graph from the active timeline, the patient context,
// and the findings. No edge is emitted that a finding or source record
// does not directly support.
func (g *GraphProjector) Project(snapshot *domain.TimelineSnapshot, patient *domain.PatientContext, findings []domain.Finding) *domain.Graph {
	nodes := make(map[string]domain.Node)
	edges := make(map[string]domain.Edge)

	patientID := domain.PatientNodeID(patient.PatientID)
	nodes[patientID] = domain.Node{ID: patientID, Kind: domain.NODE_PATIENT, Label: "patient"}

	addNode := func(kind domain.NodeKind, name string) string {
		id := domain.NodeID(kind, name)
		if _, ok := nodes[id]; !ok {
			nodes[id] = domain.Node{ID: id, Kind: kind, Label: domain.NormalizeDrugName(name)}
		}
		return id
	}
	addEdge := func(e domain.Edge) {
		if _, ok := edges[e.EdgeKey()]; !ok {
			edges[e.EdgeKey()] = e
		}
	}

	for _, p := range snapshot.Active {
		drugID := addNode(domain.NODE_MEDICATION, p.Drug)
		addEdge(domain.Edge{From: patientID, To: drugID, Kind: domain.EDGE_TAKES,
			Properties: map[string]string{"regimen": p.DoseLabel(), "since": p.Start.Format("2006-01-02")}})

		for _, indication := range p.Indications {
			condID := addNode(domain.NODE_CONDITION, indication)
			addEdge(domain.Edge{From: drugID, To: condID, Kind: domain.EDGE_PRESCRIBED_FOR})
		}
		if classes, ok := g.catalog.ClassesOf(p.Drug); ok {
			for _, cls := range classes {
				classID := addNode(domain.NODE_DRUG_CLASS, cls)
				addEdge(domain.Edge{From: drugID, To: classID, Kind: domain.EDGE_MEMBER_OF})
			}
		}
	}

	for _, condition := range patient.ChronicConditions {
		condID := addNode(domain.NODE_CONDITION, condition)
		addEdge(domain.Edge{From: patientID, To: condID, Kind: domain.EDGE_HAS_CONDITION})
	}

	for _, f := range findings {
		props := map[string]string{
			"severity": f.Severity.String(),
			"rule_id":  f.RuleID,
		}
		switch f.Type {
		case domain.FINDING_DRUG_INTERACTION, domain.FINDING_CLASS_INTERACTION:
			aID := addNode(domain.NODE_MEDICATION, f.Drugs[0])
			bID := addNode(domain.NODE_MEDICATION, f.Drugs[1])
			addEdge(domain.Edge{From: aID, To: bID, Kind: domain.EDGE_INTERACTS_WITH, Properties: props})
		case domain.FINDING_ALLERGY_CONFLICT:
			drugID := addNode(domain.NODE_MEDICATION, f.Drugs[0])
			allergenID := addNode(domain.NODE_ALLERGEN, f.Allergen)
			addEdge(domain.Edge{From: patientID, To: allergenID, Kind: domain.EDGE_ALLERGIC_TO})
			addEdge(domain.Edge{From: drugID, To: allergenID, Kind: domain.EDGE_CONTRAINDICATED_BY, Properties: props})
		case domain.FINDING_CONTRAINDICATION:
			drugID := addNode(domain.NODE_MEDICATION, f.Drugs[0])
			condID := addNode(domain.NODE_CONDITION, f.Condition)
			addEdge(domain.Edge{From: drugID, To: condID, Kind: domain.EDGE_CONTRAINDICATED_BY, Properties: props})
		}
	}

	graph := &domain.Graph{
		Nodes: make([]domain.Node, 0, len(nodes)),
		Edges: make([]domain.Edge, 0, len(edges)),
	}
	for _, n := range nodes {
		graph.Nodes = append(graph.Nodes, n)
	}
	for _, e := range edges {
		graph.Edges = append(graph.Edges, e)
	}
	sort.Slice(graph.Nodes, func(i, j int) bool { return graph.Nodes[i].ID < graph.Nodes[j].ID })
	sort.Slice(graph.Edges, func(i, j int) bool { return graph.Edges[i].EdgeKey() < graph.Edges[j].EdgeKey() })
	return graph
}
