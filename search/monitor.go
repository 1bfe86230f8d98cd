package search

import "github.com/poiesic/pitchroom/core"

// Monitor receives callbacks at each stage of a retrieval.
type Monitor interface {
	Start(projectID core.ID, query string)
	AfterQueryEmbedding(dimensions int)
	AfterDocumentScan(documents int, candidates int)
	Finish(results []*core.ScoredChunk)
}

type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ core.ID, _ string)      {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)      {}
func (n *noopMonitor) AfterDocumentScan(_ int, _ int) {}
func (n *noopMonitor) Finish(_ []*core.ScoredChunk)   {}
