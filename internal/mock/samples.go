package mock

// Sample bodies in the shape the analysis service returns
const (
	SamplePlagiarism = `{
  "mode": "plagiarism",
  "result": {
    "type": "plagiarism",
    "title": "Attention Is All You Need",
    "reason": "Large passages match the abstract of the source article almost word for word.",
    "url": "https://example.org/articles/attention-is-all-you-need"
  }
}`

	SampleNoPlagiarism = `{
  "mode": "plagiarism",
  "result": {
    "type": "no_plagiarism"
  }
}`

	SampleDoppelganger = `{
  "mode": "doppelganger",
  "result": {
    "type": "doppelganger",
    "count": 3,
    "top_3": {
      "justification": "All three papers model the same self-attention mechanism.",
      "papers": [
        {"id": 2, "place": 1, "title": "Self-Attention Networks", "url": "https://example.org/papers/2", "domain": "machine learning", "reason": "Same core architecture."},
        {"id": 1, "place": 2, "title": "Transformers for Sequence Modeling", "url": "https://example.org/papers/1", "domain": "natural language processing", "reason": "Same training objective."}
      ]
    },
    "all_doppelgangers_with_reasons": [
      {"id": 1, "title": "Transformers for Sequence Modeling", "url": "https://example.org/papers/1", "domain": "natural language processing", "reason": "Same training objective."},
      {"id": 2, "title": "Self-Attention Networks", "url": "https://example.org/papers/2", "domain": "machine learning", "reason": "Same core architecture."},
      {"id": 3, "title": "Attention in Protein Folding", "url": "https://example.org/papers/3", "domain": "biology", "reason": "Same idea applied to another field."}
    ]
  }
}`
)
