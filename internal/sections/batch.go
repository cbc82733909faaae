package sections

import "fmt"

// MaxBatchOperations bounds the number of mutations in one batch call,
// keeping worst-case latency and abuse bounded.
const MaxBatchOperations = 10

// ItemResult is the per-operation outcome of a batch. Failures carry a
// human-readable error; successes carry the mutation result.
type ItemResult struct {
	Ref     string  `json:"section"`
	Op      Op      `json:"operation"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// BatchResult summarizes a batch: every item's outcome plus the counts the
// caller reports onward.
type BatchResult struct {
	Items            []ItemResult `json:"items"`
	SectionsModified int          `json:"sections_modified"`
	TotalOperations  int          `json:"total_operations"`
}

// ApplyBatch applies operations sequentially, not transactionally: each
// item succeeds or fails on its own, and a failure at item i never rolls
// back items before it. An oversized batch is rejected before any item is
// applied.
func (e *Engine) ApplyBatch(reqs []Request) (*BatchResult, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("batch contains no operations")
	}
	if len(reqs) > MaxBatchOperations {
		return nil, fmt.Errorf("batch of %d operations exceeds the maximum of %d", len(reqs), MaxBatchOperations)
	}

	out := &BatchResult{TotalOperations: len(reqs)}
	for _, req := range reqs {
		item := ItemResult{Ref: req.Ref, Op: req.Op}
		res, err := e.Apply(req)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Success = true
			item.Result = res
			out.SectionsModified++
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}
