package vector

import "github.com/poiesic/recall/core"

// DocumentPoints returns one point per embedded chunk of doc, keyed by
// core.PointID and carrying core.PointMetadata. Chunks without an embedding
// are skipped.
func DocumentPoints(doc *core.IndexedDocument) []Point {
	points := make([]Point, 0, len(doc.Chunks))
	for i := range doc.Chunks {
		chunk := &doc.Chunks[i]
		if len(chunk.Embedding) == 0 {
			continue
		}
		points = append(points, Point{
			ID:       core.PointID(doc.ID, chunk.ID),
			Vector:   chunk.Embedding,
			Metadata: core.PointMetadata(doc, chunk),
		})
	}
	return points
}

// DocumentPointIDs returns the point IDs of every chunk of doc, embedded or not.
func DocumentPointIDs(doc *core.IndexedDocument) []string {
	ids := make([]string, len(doc.Chunks))
	for i := range doc.Chunks {
		ids[i] = core.PointID(doc.ID, doc.Chunks[i].ID)
	}
	return ids
}
