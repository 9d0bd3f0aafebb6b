// Package sdk provides a Go client for the reposcout HTTP API.
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey(key))
//	res, _ := client.Search(ctx, sdk.SearchRequest{Query: "bird sound detection"})
//	diag, _ := client.Diagram(ctx, "torvalds", "linux")
package sdk
