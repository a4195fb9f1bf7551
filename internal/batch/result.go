package batch

// ItemResult is one parsed line of a batch output artifact: either a
// generated summary or a provider-reported generation error, keyed by the
// customId the request was submitted under. Exactly one of Summary and Err
// is meaningful; Failed tells the branches apart so callers never have to
// inspect raw JSON.
type ItemResult struct {
	CustomID string
	Summary  string
	Err      string
}

// Failed reports whether the provider returned an error for this item.
func (r ItemResult) Failed() bool {
	return r.Err != ""
}
